package http

import "embed"

//go:embed web/templates/*.html
var webFS embed.FS
