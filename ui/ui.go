// Package ui embeds the dashboard page served at the gateway root.
package ui

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var content embed.FS

// FS returns the embedded dashboard filesystem with index.html at its root.
func FS() fs.FS {
	return content
}
