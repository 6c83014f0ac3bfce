// Package web embeds the HTML templates.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var files embed.FS

// Templates returns the template directory as the root of an fs.FS.
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
