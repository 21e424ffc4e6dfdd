package templates

import (
	"io"

	"github.com/a-h/templ"
)

// markup writes HTML fragments and keeps the first write error.
type markup struct {
	w   io.Writer
	err error
}

func newMarkup(w io.Writer) *markup {
	return &markup{w: w}
}

func (m *markup) raw(s string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, s)
}

// text writes s escaped for element content and quoted attribute values.
func (m *markup) text(s string) {
	m.raw(templ.EscapeString(s))
}

// url writes a sanitized, escaped URL.
func (m *markup) url(s string) {
	m.raw(templ.EscapeString(string(templ.URL(s))))
}

const noCacheMeta = `<meta http-equiv="cache-control" content="max-age=0; no-cache" />
<meta http-equiv="expires" content="0" />
<meta http-equiv="pragma" content="no-cache" />
`
