// Package web embeds the dashboard's client script for serving from the Go binary.
//
// Usage in the API server:
//
//	import "github.com/tcabrera23/Apertura-Market-sub000/web"
//	fsys, err := web.StaticFS()  // io/fs.FS rooted at static/
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed static
var static embed.FS

// ScriptName is the file name of the dashboard client script.
const ScriptName = "apertura.js"

// StaticFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func StaticFS() (fs.FS, error) {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		return nil, fmt.Errorf("web.StaticFS: %w", err)
	}
	return sub, nil
}
