package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"wikigen/app/internal/db"
	"wikigen/app/internal/generation"
	"wikigen/app/internal/wiki"
)

var testSuffixes = generation.Suffixes{Document: "TC", Cypress: "CY", Playwright: "PW", Evaluator: "EV"}

func TestDashboardRendersPageOptionsInOrder(t *testing.T) {
	t.Parallel()

	client := &stubWikiClient{pages: []wiki.PageMeta{
		{Slug: "Login_US", Title: "Login US"},
		{Slug: "Checkout_US", Title: "Checkout US"},
		{Slug: "Search_US", Title: "Search US"},
	}}
	srv := newTestServer(t, client, &stubGenerator{output: "x"}, nil)

	rec := serve(srv, "/dashboard/42")

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}

	doc, err := html.Parse(rec.Body)
	if err != nil {
		t.Fatalf("parsing dashboard failed: %v", err)
	}

	pageSelect := findByID(doc, "inputdoc")
	if pageSelect == nil {
		t.Fatalf("expected page selector in dashboard")
	}
	var slugs []string
	for _, option := range elements(pageSelect, "option") {
		slugs = append(slugs, attribute(option, "value"))
	}
	if diff := cmp.Diff([]string{"Login_US", "Checkout_US", "Search_US"}, slugs); diff != "" {
		t.Fatalf("unexpected page options (-want +got):\n%s", diff)
	}

	modelSelect := findByID(doc, "aialgo")
	if modelSelect == nil {
		t.Fatalf("expected model selector in dashboard")
	}
	var models []string
	for _, option := range elements(modelSelect, "option") {
		models = append(models, attribute(option, "value"))
	}
	if diff := cmp.Diff([]string{"evaluate", "document", "cypress", "playwright"}, models); diff != "" {
		t.Fatalf("unexpected model options (-want +got):\n%s", diff)
	}

	if project := findByID(doc, "project"); project == nil || attribute(project, "value") != "42" {
		t.Fatalf("expected hidden project id 42")
	}
}

func TestDashboardEmptyWikiStillRenders(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWikiClient{}, &stubGenerator{}, nil)
	rec := serve(srv, "/webui/7")

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	doc, err := html.Parse(rec.Body)
	if err != nil {
		t.Fatalf("parsing dashboard failed: %v", err)
	}
	if got := len(elements(findByID(doc, "inputdoc"), "option")); got != 0 {
		t.Fatalf("expected no page options, got %d", got)
	}
}

func TestDashboardEscapesProjectID(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWikiClient{}, &stubGenerator{}, nil)
	rec := serve(srv, "/dashboard/%22%3E%3Cscript%3Ealert(1)%3C%2Fscript%3E")

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<script>alert(1)") {
		t.Fatalf("expected project id to be escaped, got %q", rec.Body.String())
	}
}

func TestDashboardListingFailureReturnsBadGateway(t *testing.T) {
	t.Parallel()

	client := &stubWikiClient{listErr: eris.Wrap(wiki.ErrUpstream, "connection refused")}
	srv := newTestServer(t, client, &stubGenerator{}, nil)

	rec := serve(srv, "/dashboard/42")

	if rec.Code != 502 {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	if rec.Body.String() != badGatewayMessage {
		t.Fatalf("expected plain error body, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != textContentType {
		t.Fatalf("expected content type %q, got %q", textContentType, ct)
	}
}

func TestProcessUnknownModelIsRejectedBeforeAnyCall(t *testing.T) {
	t.Parallel()

	client := &stubWikiClient{page: &wiki.Page{Content: "story"}, projectURL: "https://wiki"}
	generator := &stubGenerator{output: "x"}
	srv := newTestServer(t, client, generator, nil)

	rec := serve(srv, "/process/selenium/42/Login")

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if rec.Body.String() != badRequestMessage {
		t.Fatalf("expected body %q, got %q", badRequestMessage, rec.Body.String())
	}
	if calls := client.callCount(); calls != 0 {
		t.Fatalf("expected no wiki calls, got %d", calls)
	}
	if generator.calls != 0 {
		t.Fatalf("expected no generation calls, got %d", generator.calls)
	}
}

func TestProcessWritesDestinationAndRedirects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model       string
		slug        string
		destination string
		generated   generation.Model
	}{
		{"document", "Login", "Login_TC", generation.ModelDocument},
		{"evaluate", "Login", "Login_EV", generation.ModelEvaluate},
		{"eval", "Login", "Login_EV", generation.ModelEvaluate},
		{"cypress", "Login_TC", "Login_CY", generation.ModelCypress},
		{"playwright", "Login_TC", "Login_PW", generation.ModelPlaywright},
		{"playwright", "Login", "Login", generation.ModelPlaywright},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.model+"/"+tc.slug, func(t *testing.T) {
			t.Parallel()

			client := &stubWikiClient{
				page:       &wiki.Page{Slug: tc.slug, Content: "As a user I want to log in"},
				projectURL: "https://gitlab.example.com/qa/shop/-/wikis/pages",
			}
			generator := &stubGenerator{output: "generated " + tc.model}
			srv := newTestServer(t, client, generator, nil)

			rec := serve(srv, "/process/"+tc.model+"/42/"+tc.slug)

			if rec.Code != 200 {
				t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
			}
			if generator.lastModel != tc.generated {
				t.Fatalf("expected generation with %q, got %q", tc.generated, generator.lastModel)
			}
			if generator.lastInput != "As a user I want to log in" {
				t.Fatalf("expected source content to be forwarded, got %q", generator.lastInput)
			}

			want := []createCall{{ProjectID: "42", Path: tc.destination, Content: "generated " + tc.model}}
			if diff := cmp.Diff(want, client.creates); diff != "" {
				t.Fatalf("unexpected create calls (-want +got):\n%s", diff)
			}

			doc, err := html.Parse(rec.Body)
			if err != nil {
				t.Fatalf("parsing redirect page failed: %v", err)
			}
			var refresh string
			for _, meta := range elements(doc, "meta") {
				if attribute(meta, "http-equiv") == "refresh" {
					refresh = attribute(meta, "content")
				}
			}
			if want := "2;URL='https://gitlab.example.com/qa/shop/-/wikis/pages'"; refresh != want {
				t.Fatalf("expected refresh %q, got %q", want, refresh)
			}
		})
	}
}

func TestProcessDecodesEncodedPathSegments(t *testing.T) {
	t.Parallel()

	client := &stubWikiClient{page: &wiki.Page{Content: "story"}, projectURL: "https://wiki"}
	srv := newTestServer(t, client, &stubGenerator{output: "x"}, nil)

	rec := serve(srv, "/process/document/qa%2Fshop/Login%20US")

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if client.lastProject != "qa/shop" || client.lastSlug != "Login US" {
		t.Fatalf("expected decoded identifiers, got project %q slug %q", client.lastProject, client.lastSlug)
	}
}

func TestProcessFailureMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		client          *stubWikiClient
		generator       *stubGenerator
		status          int
		body            string
		wantGeneration  bool
		wantCreateCalls int
	}{
		{
			name:   "missing source page",
			client: &stubWikiClient{getErr: eris.Wrap(wiki.ErrNotFound, "404"), projectURL: "https://wiki"},
			status: 404, body: notFoundMessage,
		},
		{
			name:   "wiki unreachable",
			client: &stubWikiClient{getErr: eris.Wrap(wiki.ErrUpstream, "timeout"), projectURL: "https://wiki"},
			status: 502, body: badGatewayMessage,
		},
		{
			name:   "project url failure",
			client: &stubWikiClient{page: &wiki.Page{Content: "story"}, urlErr: eris.Wrap(wiki.ErrUpstream, "500")},
			status: 502, body: badGatewayMessage,
		},
		{
			name:           "generation failure",
			client:         &stubWikiClient{page: &wiki.Page{Content: "story"}, projectURL: "https://wiki"},
			generator:      &stubGenerator{err: eris.Wrap(generation.ErrGeneration, "quota")},
			status:         500,
			body:           internalErrorMessage,
			wantGeneration: true,
		},
		{
			name:            "destination exists",
			client:          &stubWikiClient{page: &wiki.Page{Content: "story"}, projectURL: "https://wiki", createErr: eris.Wrap(wiki.ErrPageExists, "dup")},
			status:          500,
			body:            internalErrorMessage,
			wantGeneration:  true,
			wantCreateCalls: 1,
		},
		{
			name:            "write failure",
			client:          &stubWikiClient{page: &wiki.Page{Content: "story"}, projectURL: "https://wiki", createErr: eris.Wrap(wiki.ErrUpstream, "403")},
			status:          500,
			body:            internalErrorMessage,
			wantGeneration:  true,
			wantCreateCalls: 1,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			generator := tc.generator
			if generator == nil {
				generator = &stubGenerator{output: "generated"}
			}
			srv := newTestServer(t, tc.client, generator, nil)

			rec := serve(srv, "/process/document/42/Login")

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if rec.Body.String() != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, rec.Body.String())
			}
			if (generator.calls > 0) != tc.wantGeneration {
				t.Fatalf("expected generation called=%v, got %d calls", tc.wantGeneration, generator.calls)
			}
			if len(tc.client.creates) != tc.wantCreateCalls {
				t.Fatalf("expected %d create calls, got %d", tc.wantCreateCalls, len(tc.client.creates))
			}
		})
	}
}

func TestProcessWithLocalStoreNeverOverwrites(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	if err := store.CreatePage(ctx, "42", "Login", "As a user I want to log in"); err != nil {
		t.Fatalf("seeding source page failed: %v", err)
	}

	generator := &stubGenerator{output: "first run"}
	srv := newTestServer(t, store, generator, store)

	first := serve(srv, "/process/document/42/Login")
	if first.Code != 200 {
		t.Fatalf("expected first run to succeed, got %d (%s)", first.Code, first.Body.String())
	}

	generator.output = "second run"
	second := serve(srv, "/process/document/42/Login")
	if second.Code != 500 || second.Body.String() != internalErrorMessage {
		t.Fatalf("expected second run to fail with 500, got %d (%s)", second.Code, second.Body.String())
	}

	page, err := store.GetPage(ctx, "42", "Login_TC")
	if err != nil {
		t.Fatalf("loading destination failed: %v", err)
	}
	if page.Content != "first run" {
		t.Fatalf("expected destination to keep first content, got %q", page.Content)
	}

	index := serve(srv, "/wiki/42")
	if index.Code != 200 || !strings.Contains(index.Body.String(), "/wiki/42/Login_TC") {
		t.Fatalf("expected wiki index to list the destination, got %d (%s)", index.Code, index.Body.String())
	}

	viewer := serve(srv, "/wiki/42/Login_TC")
	if viewer.Code != 200 || !strings.Contains(viewer.Body.String(), "first run") {
		t.Fatalf("expected wiki page to show generated content, got %d (%s)", viewer.Code, viewer.Body.String())
	}

	if missing := serve(srv, "/wiki/42/Nope"); missing.Code != 404 {
		t.Fatalf("expected 404 for a missing page, got %d", missing.Code)
	}
}

func TestStaticImages(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWikiClient{}, &stubGenerator{}, nil)

	rec := serve(srv, "/img/loading.gif")
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/gif" {
		t.Fatalf("expected image/gif, got %q", ct)
	}

	for _, path := range []string{"/img/missing.png", "/img/"} {
		if rec := serve(srv, path); rec.Code != 404 {
			t.Fatalf("expected 404 for %s, got %d", path, rec.Code)
		}
	}

	if rec := serve(srv, "/favicon.ico"); rec.Code != 200 {
		t.Fatalf("expected favicon, got %d", rec.Code)
	}
}

func TestResponsesCarryRequestIDAndSecurityHeaders(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWikiClient{}, &stubGenerator{}, nil)

	req := httptest.NewRequest("GET", "/dashboard/42", nil)
	req.Header.Set("X-Goog-Authenticated-User-Email", "accounts.google.com:qa@example.com")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected identity headers not to affect the response, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("expected %s %q, got %q", header, want, got)
		}
	}
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		pinger Pinger
		status int
		wiki   string
	}{
		{"no pinger", nil, 200, "unchecked"},
		{"healthy store", stubPinger{}, 200, "ok"},
		{"broken store", stubPinger{err: eris.New("disk I/O error")}, 503, "error"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, &stubWikiClient{}, &stubGenerator{}, tc.pinger)
			rec := serve(srv, "/healthz")

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}

			var body struct {
				Status    string `json:"status"`
				Wiki      string `json:"wiki"`
				Generator string `json:"generator"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding health response failed: %v", err)
			}
			if body.Wiki != tc.wiki {
				t.Fatalf("expected wiki %q, got %q", tc.wiki, body.Wiki)
			}
			if body.Generator != "openai" {
				t.Fatalf("expected generator openai, got %q", body.Generator)
			}
		})
	}
}

func TestNewServerValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Options{Generator: &stubGenerator{}, Suffixes: testSuffixes}); err == nil {
		t.Fatalf("expected error without wiki client")
	}
	if _, err := NewServer(Options{Wiki: &stubWikiClient{}, Suffixes: testSuffixes}); err == nil {
		t.Fatalf("expected error without generator")
	}
	if _, err := NewServer(Options{Wiki: &stubWikiClient{}, Generator: &stubGenerator{}}); err == nil {
		t.Fatalf("expected error without suffixes")
	}
}

// helper utilities

func newTestServer(t *testing.T, client wiki.Client, generator generation.Generator, pinger Pinger) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := NewServer(Options{
		Wiki:          client,
		Generator:     generator,
		Suffixes:      testSuffixes,
		RedirectDelay: 2 * time.Second,
		Backend:       "test",
		Provider:      "openai",
		HealthCheck:   pinger,
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}

	return srv
}

func newTestStore(t *testing.T) *wiki.Store {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	database, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "wiki.db"), Logger: logger})
	if err != nil {
		t.Fatalf("opening database failed: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(database); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	if err := wiki.Migrate(context.Background(), database, logger); err != nil {
		t.Fatalf("migrating failed: %v", err)
	}

	store, err := wiki.NewStore(database, "http://localhost:8080", logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	return store
}

func serve(srv *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func findByID(node *html.Node, id string) *html.Node {
	if node == nil {
		return nil
	}
	if node.Type == html.ElementNode && attribute(node, "id") == id {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func elements(node *html.Node, tag string) []*html.Node {
	if node == nil {
		return nil
	}
	var found []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == tag {
			found = append(found, child)
		}
		found = append(found, elements(child, tag)...)
	}
	return found
}

func attribute(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// stubs

type createCall struct {
	ProjectID string
	Path      string
	Content   string
}

type stubWikiClient struct {
	mu          sync.Mutex
	pages       []wiki.PageMeta
	listErr     error
	page        *wiki.Page
	getErr      error
	projectURL  string
	urlErr      error
	createErr   error
	creates     []createCall
	calls       int
	lastProject string
	lastSlug    string
}

func (s *stubWikiClient) ListPages(_ context.Context, projectID string) ([]wiki.PageMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastProject = projectID
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.pages, nil
}

func (s *stubWikiClient) GetPage(_ context.Context, projectID, slug string) (*wiki.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastProject = projectID
	s.lastSlug = slug
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.page, nil
}

func (s *stubWikiClient) CreatePage(_ context.Context, projectID, path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.creates = append(s.creates, createCall{ProjectID: projectID, Path: path, Content: content})
	return s.createErr
}

func (s *stubWikiClient) ProjectURL(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return s.projectURL, nil
}

func (s *stubWikiClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubGenerator struct {
	output    string
	err       error
	calls     int
	lastModel generation.Model
	lastInput string
}

func (s *stubGenerator) Generate(_ context.Context, model generation.Model, sourceText string) (string, error) {
	s.calls++
	s.lastModel = model
	s.lastInput = sourceText
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(_ context.Context) error {
	return s.err
}

var _ wiki.Client = (*stubWikiClient)(nil)
var _ generation.Generator = (*stubGenerator)(nil)
var _ Pinger = stubPinger{}
var _ stdhttp.Handler = (*Server)(nil)
