// Package web provides the embedded static assets of the server: the admin
// stylesheet and the site flags backend and frontend styles, served at
// /static/.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

// Static returns the static asset tree rooted at web/static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
