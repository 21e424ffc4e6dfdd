package wiki

import (
	"context"

	"github.com/rotisserie/eris"
)

var (
	// ErrNotFound reports that the requested page or project does not exist.
	ErrNotFound = eris.New("wiki page not found")
	// ErrUpstream reports that the wiki backend was unreachable or rejected the call.
	ErrUpstream = eris.New("wiki backend request failed")
	// ErrPageExists reports that a create call targeted a page that is already present.
	ErrPageExists = eris.New("wiki page already exists")
)

// Client reads and creates pages in a project wiki.
type Client interface {
	// ListPages returns page metadata in the backend's own order. An empty wiki is not an error.
	ListPages(ctx context.Context, projectID string) ([]PageMeta, error)
	// GetPage returns one page with its content.
	GetPage(ctx context.Context, projectID, slug string) (*Page, error)
	// CreatePage adds a new page at path. It never overwrites an existing page.
	CreatePage(ctx context.Context, projectID, path, content string) error
	// ProjectURL resolves the browsable wiki address of a project.
	ProjectURL(ctx context.Context, projectID string) (string, error)
}
