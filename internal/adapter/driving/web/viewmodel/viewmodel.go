// Package viewmodel defines presentation-ready structs for the console components.
// View models decouple rendering from domain model types.
package viewmodel

import "html/template"

// MenuItem is one entry of the left-hand navigation.
type MenuItem struct {
	ID     string
	Label  string
	Href   string
	Active bool
}

// PageViewModel holds the data of the full page shell.
type PageViewModel struct {
	Title   string
	Heading string
	Menu    []MenuItem
}

// SectionViewModel holds a rendered markdown section.
type SectionViewModel struct {
	Title string
	Body  template.HTML
}

// ReposPageViewModel holds the repositories section of a mounted view.
type ReposPageViewModel struct {
	ViewID          string
	EventsURL       string
	TableURL        string
	UnmountURL      string
	CredentialNames []string
	Table           TableViewModel
}

// TableViewModel holds everything the repository table fragment renders.
type TableViewModel struct {
	ViewID   string
	BasePath string // /app/views/{view}

	Loading      bool
	Errored      bool
	ErrorMessage string
	Empty        bool

	ShowActions bool
	ShowNewRow  bool
	CanAdd      bool
	ToggleLabel string

	Rows   []RowViewModel
	NewRow FormViewModel
}

// RowViewModel holds one record of the table.
type RowViewModel struct {
	ID              string
	Name            string
	URL             string
	Branch          string
	ComposeFolder   string
	CredentialsName string
	IndexedAt       string
	UpdatedAt       string
	DeletePrompt    string

	Editing     bool
	Deleting    bool
	ShowActions bool
	Form        FormViewModel

	Path      string // /app/views/{view}/repos/{id}
	DeleteURL string // Path plus the confirmation parameter
}

// FormViewModel holds the inputs of an edit row or the new row.
type FormViewModel struct {
	Name            string
	URL             string
	Branch          string
	ComposeFolder   string
	CredentialsName string

	NameError   string
	URLError    string
	BranchError string

	Submitting bool
}

// ProbeViewModel holds the outcome of a repository check.
type ProbeViewModel struct {
	Name          string
	BranchStatus  string
	BranchDetail  string
	ComposeStatus string
	ComposeDetail string
	ComposePath   string
}
