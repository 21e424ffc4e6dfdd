package wiki

import "strings"

// Page is a wiki document addressed by project and slug.
type Page struct {
	ProjectID string
	Slug      string
	Title     string
	Format    string
	Content   string
}

// PageMeta is the listing entry for a wiki page.
type PageMeta struct {
	Slug  string
	Title string
}

// Slugify derives the slug a wiki assigns to a page created with the given path.
// GitLab replaces spaces with dashes and keeps everything else, including "/" for nested pages.
func Slugify(path string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	return strings.ReplaceAll(trimmed, " ", "-")
}
