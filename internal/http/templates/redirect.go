package templates

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Redirect renders an uncached page that refreshes to data.URL after the delay.
func Redirect(data RedirectData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := data.DelaySeconds
		if delay < 0 {
			delay = 0
		}

		// the refresh target is single-quoted inside the meta content
		target := strings.ReplaceAll(string(templ.URL(data.URL)), "'", "%27")

		m := newMarkup(w)
		m.raw("<!DOCTYPE html>\n<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n")
		m.raw(noCacheMeta)
		m.raw(`<meta http-equiv="refresh" content="`)
		m.raw(strconv.Itoa(delay))
		m.raw(`;URL='`)
		m.text(target)
		m.raw("'\" />\n</head>\n<body>\n")
		m.raw(`<p>Page created. Redirecting to <a href="`)
		m.text(target)
		m.raw(`">`)
		m.text(target)
		m.raw("</a>.</p>\n</body>\n</html>\n")

		return m.err
	})
}
