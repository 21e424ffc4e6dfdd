package http

import (
	"bytes"
	"embed"
	"io/fs"
	stdhttp "net/http"
	"strings"
	"time"
)

//go:embed static/favicon.ico
var favicon []byte

//go:embed static/img
var staticFiles embed.FS

func faviconHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if len(favicon) == 0 {
		w.WriteHeader(stdhttp.StatusNotFound)
		return
	}

	reader := bytes.NewReader(favicon)
	w.Header().Set("Content-Type", "image/x-icon")
	stdhttp.ServeContent(w, r, "favicon.ico", time.Time{}, reader)
}

// imageHandler serves the embedded images under /img/. Directory listings are not exposed.
func imageHandler() stdhttp.Handler {
	images, err := fs.Sub(staticFiles, "static/img")
	if err != nil {
		panic(err)
	}

	files := stdhttp.StripPrefix("/img/", stdhttp.FileServerFS(images))
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			stdhttp.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
