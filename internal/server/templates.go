package server

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Each page is parsed together with the shared base layout so every page
// file can define its own "content" block.
var pageTemplates = buildPageTemplates()

func buildPageTemplates() map[string]*template.Template {
	pages := []string{
		"index",
		"process",
		"select_title",
		"edit_description",
		"confirm",
		"download",
	}
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		out[page] = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+page+".html"))
	}
	return out
}
