package wiki

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const defaultGitLabURL = "https://gitlab.com"

// GitLabOptions configures the GitLab-backed wiki client.
type GitLabOptions struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// GitLabClient talks to the project wiki API of a GitLab instance.
type GitLabClient struct {
	api    *gitlab.Client
	logger *logrus.Logger
}

var _ Client = (*GitLabClient)(nil)

// NewGitLabClient builds a client for the GitLab instance at opts.BaseURL.
// Retries are disabled: a failed call surfaces to the caller immediately.
func NewGitLabClient(opts GitLabOptions) (*GitLabClient, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, eris.New("gitlab token is required")
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGitLabURL
	}

	clientOptions := []gitlab.ClientOptionFunc{
		gitlab.WithBaseURL(baseURL + "/api/v4"),
		gitlab.WithoutRetries(),
	}
	if opts.HTTPClient != nil {
		clientOptions = append(clientOptions, gitlab.WithHTTPClient(opts.HTTPClient))
	}

	api, err := gitlab.NewClient(token, clientOptions...)
	if err != nil {
		return nil, eris.Wrap(err, "creating gitlab client")
	}

	return &GitLabClient{api: api, logger: opts.Logger}, nil
}

// ListPages returns the wiki pages of a project without their content.
func (c *GitLabClient) ListPages(ctx context.Context, projectID string) ([]PageMeta, error) {
	pid, err := requireProject(projectID)
	if err != nil {
		return nil, err
	}

	wikis, resp, err := c.api.Wikis.ListWikis(pid, &gitlab.ListWikisOptions{
		WithContent: gitlab.Ptr(false),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.classify(resp, err, "listing wiki pages", logrus.Fields{"project_id": pid})
	}

	pages := make([]PageMeta, 0, len(wikis))
	for _, w := range wikis {
		if w == nil {
			continue
		}
		pages = append(pages, PageMeta{Slug: w.Slug, Title: w.Title})
	}

	return pages, nil
}

// GetPage fetches one wiki page including its content.
func (c *GitLabClient) GetPage(ctx context.Context, projectID, slug string) (*Page, error) {
	pid, err := requireProject(projectID)
	if err != nil {
		return nil, err
	}

	trimmedSlug := strings.TrimSpace(slug)
	if trimmedSlug == "" {
		return nil, eris.Wrap(ErrNotFound, "slug is required")
	}

	w, resp, err := c.api.Wikis.GetWikiPage(pid, trimmedSlug, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.classify(resp, err, "fetching wiki page", logrus.Fields{"project_id": pid, "slug": trimmedSlug})
	}
	if w == nil {
		return nil, eris.Wrapf(ErrUpstream, "fetching wiki page %s: empty response", trimmedSlug)
	}

	return &Page{
		ProjectID: pid,
		Slug:      w.Slug,
		Title:     w.Title,
		Format:    string(w.Format),
		Content:   w.Content,
	}, nil
}

// CreatePage creates a markdown page titled with path. GitLab refuses duplicate titles, which maps to ErrPageExists.
func (c *GitLabClient) CreatePage(ctx context.Context, projectID, path, content string) error {
	pid, err := requireProject(projectID)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(path)
	if title == "" {
		return eris.Wrap(ErrUpstream, "page path is required")
	}

	_, resp, err := c.api.Wikis.CreateWikiPage(pid, &gitlab.CreateWikiPageOptions{
		Title:   gitlab.Ptr(title),
		Content: gitlab.Ptr(content),
		Format:  gitlab.Ptr(gitlab.WikiFormatMarkdown),
	}, gitlab.WithContext(ctx))
	if err != nil {
		fields := logrus.Fields{"project_id": pid, "path": title}
		if isDuplicatePage(resp, err) {
			c.logError(fields, err, "wiki page already exists")
			return eris.Wrapf(ErrPageExists, "creating wiki page %s", title)
		}
		return c.classify(resp, err, "creating wiki page", fields)
	}

	return nil
}

// ProjectURL returns the address of the project's wiki page index.
func (c *GitLabClient) ProjectURL(ctx context.Context, projectID string) (string, error) {
	pid, err := requireProject(projectID)
	if err != nil {
		return "", err
	}

	project, resp, err := c.api.Projects.GetProject(pid, nil, gitlab.WithContext(ctx))
	if err != nil {
		return "", c.classify(resp, err, "fetching project", logrus.Fields{"project_id": pid})
	}
	if project == nil || strings.TrimSpace(project.WebURL) == "" {
		return "", eris.Wrapf(ErrUpstream, "project %s has no web url", pid)
	}

	return strings.TrimSuffix(project.WebURL, "/") + "/-/wikis/pages", nil
}

// Ping checks that the instance answers authenticated API calls.
func (c *GitLabClient) Ping(ctx context.Context) error {
	if _, resp, err := c.api.Version.GetVersion(gitlab.WithContext(ctx)); err != nil {
		return c.classify(resp, err, "fetching gitlab version", nil)
	}
	return nil
}

func (c *GitLabClient) classify(resp *gitlab.Response, err error, operation string, fields logrus.Fields) error {
	c.logError(fields, err, operation)

	if statusCode(resp, err) == http.StatusNotFound {
		return eris.Wrapf(ErrNotFound, "%s: %v", operation, err)
	}
	return eris.Wrapf(ErrUpstream, "%s: %v", operation, err)
}

func (c *GitLabClient) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Warn(message)
}

func statusCode(resp *gitlab.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}

	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

func isDuplicatePage(resp *gitlab.Response, err error) bool {
	switch statusCode(resp, err) {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
	default:
		return false
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "already exists") || strings.Contains(message, "duplicate")
}

func requireProject(projectID string) (string, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return "", eris.Wrap(ErrNotFound, "project id is required")
	}
	return pid, nil
}
