package template

import (
	"html/template"

	"github.com/bengal-ssg/bengal/internal/content"
)

// RenderContext is the data handed to every template execution as ".". It
// bundles the page with read-only views of the site and configuration.
type RenderContext struct {
	Page      *content.Page
	Site      *content.Site
	Config    map[string]any
	Content   template.HTML
	TOC       template.HTML
	TOCItems  []*content.TOCItem
	Posts     []*content.Page
	Paginator *content.Paginator
	Menus     map[string][]*content.MenuNode
	BaseURL   string
	Strict    bool
}
