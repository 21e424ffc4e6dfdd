package templates

import "wikigen/app/internal/wiki"

// LoadingImagePath is the indicator shown while a generation request is in flight.
const LoadingImagePath = "/img/loading.gif"

// ModelOption is one entry of the model selector.
type ModelOption struct {
	Value string
	Label string
}

// DashboardData holds the values rendered on the project dashboard.
type DashboardData struct {
	ProjectID string
	Pages     []wiki.PageMeta
	Models    []ModelOption
}

// RedirectData describes the page shown after a successful generation.
type RedirectData struct {
	URL          string
	DelaySeconds int
}

// WikiIndexData lists the locally stored pages of a project.
type WikiIndexData struct {
	ProjectID string
	Pages     []wiki.PageMeta
}

// WikiPageData holds one locally stored page.
type WikiPageData struct {
	ProjectID string
	Title     string
	Format    string
	Content   string
}
