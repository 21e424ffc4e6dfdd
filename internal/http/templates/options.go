package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"wikigen/app/internal/wiki"
)

// PageOptions renders one <option> per page in input order, valued by slug and labelled by title.
func PageOptions(pages []wiki.PageMeta) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m := newMarkup(w)
		for _, page := range pages {
			m.raw(`<option value="`)
			m.text(page.Slug)
			m.raw(`">`)
			m.text(page.Title)
			m.raw("</option>\n")
		}
		return m.err
	})
}
