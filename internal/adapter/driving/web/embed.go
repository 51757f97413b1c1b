package web

import "embed"

// StaticFS holds the embedded static assets (CSS and the console scripts).
//
//go:embed static/*
var StaticFS embed.FS

// contentFS holds the markdown sections of the menu.
//
//go:embed content/*.md
var contentFS embed.FS
