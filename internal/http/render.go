package http

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"
)

func renderComponent(ctx context.Context, component templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(4096)
	if err := component.Render(ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "rendering templ component")
	}
	return buf.Bytes(), nil
}
