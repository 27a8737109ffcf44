// Package web holds the monitor page served at "/".
package web

import "embed"

// FS contains the embedded page, stylesheet and script.
//
//go:embed *.html *.css *.js
var FS embed.FS
