// Package web embeds the page templates and the browser assets that draw
// the chart.
package web

import "embed"

// TemplatesFS holds the page and the panel partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the script and stylesheet served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
