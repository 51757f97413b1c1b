package web

import (
	"fmt"
	"html/template"
	"io/fs"

	vm "github.com/ericfisherdev/spaceport/internal/adapter/driving/web/viewmodel"
)

// reposSection is the menu entry backed by a mounted list view.
const reposSection = "repos"

// section is one entry of the left-hand menu. Sections other than the
// repository list are static markdown.
type section struct {
	ID    string
	Label string
	File  string
}

var sections = []section{
	{ID: reposSection, Label: "Repositories"},
	{ID: "overview", Label: "Overview", File: "content/overview.md"},
	{ID: "credentials", Label: "Credentials", File: "content/credentials.md"},
	{ID: "cli", Label: "Command line", File: "content/cli.md"},
}

// renderSections pre-renders every markdown section keyed by id.
func renderSections(fsys fs.FS) (map[string]template.HTML, error) {
	out := make(map[string]template.HTML, len(sections))
	for _, s := range sections {
		if s.File == "" {
			continue
		}
		body, err := renderMarkdownFile(fsys, s.File)
		if err != nil {
			return nil, err
		}
		out[s.ID] = body
	}
	return out, nil
}

func findSection(id string) (section, bool) {
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return section{}, false
}

// menu returns the navigation with active marked.
func menu(active string) []vm.MenuItem {
	items := make([]vm.MenuItem, 0, len(sections))
	for _, s := range sections {
		items = append(items, vm.MenuItem{
			ID:     s.ID,
			Label:  s.Label,
			Href:   fmt.Sprintf("/app/%s", s.ID),
			Active: s.ID == active,
		})
	}
	return items
}
