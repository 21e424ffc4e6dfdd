package templates

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// LocalWikiIndex lists the pages of a project stored by the local backend.
func LocalWikiIndex(data WikiIndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		project := url.PathEscape(data.ProjectID)

		m := newMarkup(w)
		m.raw("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n<title>Wiki: ")
		m.text(data.ProjectID)
		m.raw("</title>\n</head>\n<body>\n<h2>Wiki: ")
		m.text(data.ProjectID)
		m.raw("</h2>\n")

		if len(data.Pages) == 0 {
			m.raw("<p>No pages yet.</p>\n")
		} else {
			m.raw("<ul>\n")
			for _, page := range data.Pages {
				m.raw(`<li><a href="`)
				m.url("/wiki/" + project + "/" + url.PathEscape(page.Slug))
				m.raw(`">`)
				m.text(page.Title)
				m.raw("</a></li>\n")
			}
			m.raw("</ul>\n")
		}

		m.raw(`<p><a href="`)
		m.url("/dashboard/" + project)
		m.raw("\">Dashboard</a></p>\n</body>\n</html>\n")

		return m.err
	})
}

// LocalWikiPage shows one stored page as preformatted source.
func LocalWikiPage(data WikiPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m := newMarkup(w)
		m.raw("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n<title>")
		m.text(data.Title)
		m.raw("</title>\n</head>\n<body>\n<h2>")
		m.text(data.Title)
		m.raw("</h2>\n<pre data-format=\"")
		m.text(data.Format)
		m.raw(`">`)
		m.text(data.Content)
		m.raw("</pre>\n")
		m.raw(`<p><a href="`)
		m.url("/wiki/" + url.PathEscape(data.ProjectID))
		m.raw("\">All pages</a></p>\n</body>\n</html>\n")

		return m.err
	})
}
