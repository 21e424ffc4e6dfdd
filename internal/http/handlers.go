package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"wikigen/app/internal/generation"
	"wikigen/app/internal/http/templates"
	"wikigen/app/internal/wiki"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	textContentType = "text/plain; charset=utf-8"

	badRequestMessage    = "Bad Request"
	notFoundMessage      = "Not Found"
	badGatewayMessage    = "Bad Gateway"
	internalErrorMessage = "Internal Error"
)

type htmlResponse struct {
	Status       int
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

type dashboardInput struct {
	ProjectID string `path:"projectId"`
}

type processInput struct {
	Model     string `path:"model"`
	ProjectID string `path:"projectId"`
	Slug      string `path:"slug"`
}

type wikiIndexInput struct {
	ProjectID string `path:"projectId"`
}

type wikiPageInput struct {
	ProjectID string `path:"projectId"`
	Slug      string `path:"slug"`
}

type healthResponse struct {
	Status int
	Body   struct {
		Status    string `json:"status"`
		Backend   string `json:"backend"`
		Wiki      string `json:"wiki"`
		Generator string `json:"generator"`
	}
}

func (s *Server) registerDashboardRoutes() {
	dashboardOp := huma.Operation{
		OperationID: "get-dashboard",
		Method:      stdhttp.MethodGet,
		Path:        "/dashboard/{projectId}",
	}
	htmlOperation("Project dashboard", stdhttp.StatusBadGateway)(&dashboardOp)
	huma.Register(s.api, dashboardOp, s.dashboardHandler)

	webuiOp := huma.Operation{
		OperationID: "get-webui",
		Method:      stdhttp.MethodGet,
		Path:        "/webui/{projectId}",
		Hidden:      true,
	}
	htmlOperation("Project dashboard (legacy path)", stdhttp.StatusBadGateway)(&webuiOp)
	huma.Register(s.api, webuiOp, s.dashboardHandler)
}

func (s *Server) registerProcessRoute() {
	huma.Get(s.api, "/process/{model}/{projectId}/{slug}", s.processHandler, htmlOperation(
		"Generate a page from a wiki page",
		stdhttp.StatusBadRequest,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
		stdhttp.StatusBadGateway,
	))
}

func (s *Server) registerWikiRoutes() {
	huma.Get(s.api, "/wiki/{projectId}", s.wikiIndexHandler, htmlOperation(
		"List wiki pages",
		stdhttp.StatusNotFound,
		stdhttp.StatusBadGateway,
	))
	huma.Get(s.api, "/wiki/{projectId}/{slug}", s.wikiPageHandler, htmlOperation(
		"Show a wiki page",
		stdhttp.StatusNotFound,
		stdhttp.StatusBadGateway,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) dashboardHandler(ctx context.Context, input *dashboardInput) (*htmlResponse, error) {
	projectID := strings.TrimSpace(input.ProjectID)
	fields := logrus.Fields{"project_id": projectID}

	wikiCtx, cancel := context.WithTimeout(ctx, s.wikiTimeout)
	pages, err := s.wiki.ListPages(wikiCtx, projectID)
	cancel()
	if err != nil {
		s.recordError(ctx, err, "listing wiki pages", fields)
		return newTextResponse(stdhttp.StatusBadGateway, badGatewayMessage), nil
	}

	models := generation.Models()
	options := make([]templates.ModelOption, 0, len(models))
	for _, model := range models {
		options = append(options, templates.ModelOption{Value: model.String(), Label: model.Label()})
	}

	body, err := renderComponent(ctx, templates.Dashboard(templates.DashboardData{
		ProjectID: projectID,
		Pages:     pages,
		Models:    options,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering dashboard", fields)
		return newTextResponse(stdhttp.StatusInternalServerError, internalErrorMessage), nil
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) processHandler(ctx context.Context, input *processInput) (*htmlResponse, error) {
	projectID := strings.TrimSpace(input.ProjectID)
	slug := strings.TrimSpace(input.Slug)
	fields := logrus.Fields{"project_id": projectID, "slug": slug, "model": input.Model}

	model, err := generation.ParseModel(input.Model)
	if err != nil {
		s.logWarning(ctx, err, "rejecting unknown model", fields)
		return newTextResponse(stdhttp.StatusBadRequest, badRequestMessage), nil
	}
	fields["model"] = model.String()

	wikiCtx, cancel := context.WithTimeout(ctx, s.wikiTimeout)
	page, err := s.wiki.GetPage(wikiCtx, projectID, slug)
	cancel()
	if err != nil {
		if eris.Is(err, wiki.ErrNotFound) {
			s.logWarning(ctx, err, "source page not found", fields)
			return newTextResponse(stdhttp.StatusNotFound, notFoundMessage), nil
		}
		s.recordError(ctx, err, "loading source page", fields)
		return newTextResponse(stdhttp.StatusBadGateway, badGatewayMessage), nil
	}

	wikiCtx, cancel = context.WithTimeout(ctx, s.wikiTimeout)
	projectURL, err := s.wiki.ProjectURL(wikiCtx, projectID)
	cancel()
	if err != nil {
		s.recordError(ctx, err, "resolving project url", fields)
		return newTextResponse(stdhttp.StatusBadGateway, badGatewayMessage), nil
	}

	destination, substituted := generation.DestinationPath(model, slug, s.suffixes)
	fields["destination"] = destination
	if !substituted {
		s.logWarning(ctx, eris.Errorf("slug does not contain suffix %q", s.suffixes.Document), "destination equals source page", fields)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	content, err := s.generator.Generate(genCtx, model, page.Content)
	cancel()
	if err != nil {
		s.recordError(ctx, err, "generating page content", fields)
		return newTextResponse(stdhttp.StatusInternalServerError, internalErrorMessage), nil
	}

	wikiCtx, cancel = context.WithTimeout(ctx, s.wikiTimeout)
	err = s.wiki.CreatePage(wikiCtx, projectID, destination, content)
	cancel()
	if err != nil {
		cause := "upstream"
		if eris.Is(err, wiki.ErrPageExists) {
			cause = "page_exists"
		}
		fields["cause"] = cause
		s.recordError(ctx, err, "creating destination page", fields)
		return newTextResponse(stdhttp.StatusInternalServerError, internalErrorMessage), nil
	}

	if s.logger != nil {
		s.requestLogger(ctx, fields).Info("destination page created")
	}

	body, err := renderComponent(ctx, templates.Redirect(templates.RedirectData{
		URL:          projectURL,
		DelaySeconds: int(s.redirectDelay.Round(time.Second) / time.Second),
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering redirect page", fields)
		return newTextResponse(stdhttp.StatusInternalServerError, internalErrorMessage), nil
	}

	resp := newHTMLResponse(stdhttp.StatusOK, body)
	resp.CacheControl = "no-store"
	return resp, nil
}

func (s *Server) wikiIndexHandler(ctx context.Context, input *wikiIndexInput) (*htmlResponse, error) {
	projectID := strings.TrimSpace(input.ProjectID)
	fields := logrus.Fields{"project_id": projectID}

	wikiCtx, cancel := context.WithTimeout(ctx, s.wikiTimeout)
	pages, err := s.wiki.ListPages(wikiCtx, projectID)
	cancel()
	if err != nil {
		return s.wikiErrorResponse(ctx, err, "listing wiki pages", fields), nil
	}

	body, err := renderComponent(ctx, templates.LocalWikiIndex(templates.WikiIndexData{
		ProjectID: projectID,
		Pages:     pages,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering wiki index", fields)
		return newTextResponse(stdhttp.StatusInternalServerError, internalErrorMessage), nil
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) wikiPageHandler(ctx context.Context, input *wikiPageInput) (*htmlResponse, error) {
	projectID := strings.TrimSpace(input.ProjectID)
	slug := strings.TrimSpace(input.Slug)
	fields := logrus.Fields{"project_id": projectID, "slug": slug}

	wikiCtx, cancel := context.WithTimeout(ctx, s.wikiTimeout)
	page, err := s.wiki.GetPage(wikiCtx, projectID, slug)
	cancel()
	if err != nil {
		return s.wikiErrorResponse(ctx, err, "loading wiki page", fields), nil
	}

	body, err := renderComponent(ctx, templates.LocalWikiPage(templates.WikiPageData{
		ProjectID: projectID,
		Title:     page.Title,
		Format:    page.Format,
		Content:   page.Content,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering wiki page", fields)
		return newTextResponse(stdhttp.StatusInternalServerError, internalErrorMessage), nil
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Backend = s.backend
	resp.Body.Wiki = "unchecked"
	resp.Body.Generator = "ready"
	if s.provider != "" {
		resp.Body.Generator = s.provider
	}

	if s.healthCheck != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.wikiTimeout)
		err := s.healthCheck.Ping(pingCtx)
		cancel()
		if err != nil {
			s.recordError(ctx, err, "pinging wiki backend", nil)
			resp.Status = stdhttp.StatusServiceUnavailable
			resp.Body.Status = "degraded"
			resp.Body.Wiki = "error"
		} else {
			resp.Body.Wiki = "ok"
		}
	}

	return resp, nil
}

func (s *Server) wikiErrorResponse(ctx context.Context, err error, message string, fields logrus.Fields) *htmlResponse {
	if eris.Is(err, wiki.ErrNotFound) {
		s.logWarning(ctx, err, message, fields)
		return newTextResponse(stdhttp.StatusNotFound, notFoundMessage)
	}
	s.recordError(ctx, err, message, fields)
	return newTextResponse(stdhttp.StatusBadGateway, badGatewayMessage)
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func newTextResponse(status int, message string) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: textContentType,
		Body:        []byte(message),
	}
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			contentType := textContentType
			if status == stdhttp.StatusOK {
				contentType = htmlContentType
			}
			op.Responses[strconv.Itoa(status)] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					contentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func (s *Server) requestLogger(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	entry := logrus.NewEntry(s.logger)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	if user := UserFromContext(ctx); user != "" {
		entry = entry.WithField("user", user)
	}
	return entry
}

func (s *Server) logWarning(ctx context.Context, err error, message string, fields logrus.Fields) {
	if s.logger == nil || err == nil {
		return
	}
	s.requestLogger(ctx, fields).WithField("error", err.Error()).Warn(message)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		s.requestLogger(ctx, fields).WithField("error", err.Error()).Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
