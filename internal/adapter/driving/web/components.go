package web

import (
	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/spaceport/internal/adapter/driving/web/viewmodel"
)

// Layout renders the page shell around content.
func Layout(page vm.PageViewModel, content templ.Component) templ.Component {
	return component(func(m *markup) {
		m.raw(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>`)
		m.text(page.Title)
		m.raw(`</title>
  <link rel="stylesheet" href="/static/app.css">
  <script src="https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js" defer></script>
  <script src="/static/csrf.js" defer></script>
  <script src="/static/app.js" defer></script>
</head>
<body>
  <header class="header-box">
    <p class="header-text">`)
		m.text(page.Heading)
		m.raw(`</p>
  </header>
  <div class="layout-row">
    <nav class="left-col menu" aria-label="Main navigation">`)
		for _, item := range page.Menu {
			class := "menu-button"
			if item.Active {
				class += " active"
			}
			m.raw("\n      <a")
			m.attr("class", class)
			m.attr("href", item.Href)
			if item.Active {
				m.attr("aria-current", "page")
			}
			m.raw(">")
			m.text(item.Label)
			m.raw("</a>")
		}
		m.raw(`
    </nav>
    <main class="right-col">
`)
		m.child(content)
		m.raw(`
    </main>
  </div>
</body>
</html>
`)
	})
}

// Section renders a static markdown section. Body is sanitized HTML.
func Section(data vm.SectionViewModel) templ.Component {
	return component(func(m *markup) {
		m.raw(`<section class="content-panel">
  <h2 class="content-title">`)
		m.text(data.Title)
		m.raw(`</h2>
  <div class="markdown">`)
		m.child(templ.Raw(string(data.Body)))
		m.raw(`</div>
</section>
`)
	})
}

// ReposSection renders the repository list of a mounted view.
func ReposSection(data vm.ReposPageViewModel) templ.Component {
	return component(func(m *markup) {
		m.raw(`<section class="content-panel" id="repo-view"`)
		m.attr("data-view", data.ViewID)
		m.attr("data-events-url", data.EventsURL)
		m.attr("data-table-url", data.TableURL)
		m.attr("data-unmount-url", data.UnmountURL)
		m.raw(`>
  <h2 class="content-title">Repositories</h2>
  <datalist id="credential-names">`)
		for _, name := range data.CredentialNames {
			m.raw("\n    <option")
			m.attr("value", name)
			m.raw("></option>")
		}
		m.raw(`
  </datalist>
  <div id="repo-table" hx-target="this" hx-swap="innerHTML">
`)
		m.child(Table(data.Table))
		m.raw(`
  </div>
  <div id="probe-panel" aria-live="polite"></div>
</section>
`)
	})
}

// Probe renders the check panel.
func Probe(data vm.ProbeViewModel) templ.Component {
	return component(func(m *markup) {
		m.raw(`<div class="probe-panel" role="status">
  <h3>Check: `)
		m.text(data.Name)
		m.raw("</h3>\n  <p>Branch: ")
		probeStatus(m, data.BranchStatus, data.BranchDetail)
		m.raw("</p>\n  <p>Compose file <code>")
		m.text(data.ComposePath)
		m.raw("</code>: ")
		probeStatus(m, data.ComposeStatus, data.ComposeDetail)
		m.raw("</p>\n</div>\n")
	})
}

func probeStatus(m *markup, status, detail string) {
	m.raw("<span")
	m.attr("class", "probe probe-"+status)
	m.raw(">")
	m.text(status)
	m.raw("</span>")
	if detail != "" {
		m.raw(` <span class="probe-detail">`)
		m.text(detail)
		m.raw("</span>")
	}
}

// Table renders the repository table fragment.
func Table(data vm.TableViewModel) templ.Component {
	return component(func(m *markup) {
		if data.Loading {
			m.raw(`<div class="notice">Loading repositories…</div>`)
		}
		if data.Errored {
			m.raw(`<div class="notice notice-error" role="alert">Failed to load repositories: `)
			m.text(data.ErrorMessage)
			m.raw("</div>")
		}
		if data.Empty {
			m.raw(`<div class="notice notice-empty">No repositories found.</div>`)
		}
		m.raw(`
<div class="table-wrap">
  <table class="repo-table">
    <thead>
      <tr>
        <th class="name-cell">Name</th>
        <th class="url-cell">URL</th>
        <th class="branch-cell">Branch</th>
        <th class="compose-cell">Compose Folder</th>
        <th class="credentials-cell">Credentials</th>`)
		if data.ShowActions {
			m.raw(`
        <th class="actions-cell">Actions</th>`)
		} else {
			m.raw(`
        <th class="indexed-at-cell">Indexed at</th>
        <th class="updated-at-cell">Updated at</th>`)
		}
		m.raw(`
      </tr>
    </thead>
    <tbody>`)
		for _, row := range data.Rows {
			if row.Editing {
				editRow(m, row)
			} else {
				viewRow(m, row)
			}
		}
		if data.ShowNewRow {
			newRow(m, data)
		}
		m.raw(`
    </tbody>
  </table>
</div>
<div class="action-area">`)
		if data.CanAdd {
			m.raw("\n  <button type=\"button\" class=\"action-button action-button-var01\"")
			m.attr("hx-post", data.BasePath+"/new")
			m.raw(">Add Repository</button>")
		}
		m.raw("\n  <button type=\"button\" class=\"action-button\"")
		m.attr("hx-post", data.BasePath+"/actions")
		m.raw(">")
		m.text(data.ToggleLabel)
		m.raw("</button>\n</div>\n")
	})
}

func viewRow(m *markup, row vm.RowViewModel) {
	m.raw("\n<tr")
	m.attr("id", "row-"+row.ID)
	if row.Deleting {
		m.attr("class", "row-deleting")
	}
	m.raw(">\n  <td class=\"name-cell\">")
	m.text(row.Name)
	m.raw("</td>\n  <td class=\"url-cell\"")
	m.attr("title", row.URL)
	m.raw(">")
	m.text(row.URL)
	m.raw("</td>\n  <td class=\"branch-cell\">")
	m.text(row.Branch)
	m.raw("</td>\n  <td class=\"compose-cell\">")
	m.text(row.ComposeFolder)
	m.raw("</td>\n  <td class=\"credentials-cell\">")
	m.text(row.CredentialsName)
	m.raw("</td>")

	if !row.ShowActions {
		m.raw("\n  <td>")
		m.text(row.IndexedAt)
		m.raw("</td>\n  <td>")
		m.text(row.UpdatedAt)
		m.raw("</td>\n</tr>")
		return
	}

	m.raw("\n  <td class=\"actions-cell\">\n    <div class=\"row-actions\">\n      <button type=\"button\" class=\"small-button\"")
	m.attr("hx-post", row.Path+"/edit")
	m.raw(">Edit</button>\n      <button type=\"button\" class=\"small-button\"")
	m.attr("hx-post", row.Path+"/check")
	m.raw(` hx-target="#probe-panel">Check</button>`)
	m.raw("\n      <button type=\"button\" class=\"small-button warning-button\"")
	m.attr("hx-delete", row.DeleteURL)
	m.attr("hx-confirm", row.DeletePrompt)
	m.flag("disabled", row.Deleting)
	m.raw(">")
	if row.Deleting {
		m.raw("Deleting…")
	} else {
		m.raw("Delete")
	}
	m.raw("</button>\n    </div>\n  </td>\n</tr>")
}

func editRow(m *markup, row vm.RowViewModel) {
	m.raw("\n<tr")
	m.attr("id", "row-"+row.ID)
	m.attr("class", "new-row")
	m.attr("hx-post", row.Path+"/draft")
	m.raw(` hx-trigger="input delay:300ms" hx-include="this" hx-swap="none">`)
	formCells(m, row.Form, false, row.ShowActions)
	formActions(m, row.Path+"/save", row.Path+"/cancel", "Confirm", row.Form.Submitting)
}

func newRow(m *markup, data vm.TableViewModel) {
	m.raw("\n<tr class=\"new-row\"")
	m.attr("hx-post", data.BasePath+"/new/draft")
	m.raw(` hx-trigger="input delay:300ms" hx-include="this" hx-swap="none">`)
	formCells(m, data.NewRow, true, data.ShowActions)
	formActions(m, data.BasePath+"/new/save", data.BasePath+"/new/cancel", "Save", data.NewRow.Submitting)
}

// formField describes one inline input of an edit or new row.
type formField struct {
	name, label, placeholder, value, errMsg, list string
}

func formCells(m *markup, form vm.FormViewModel, placeholders, showActions bool) {
	fields := []formField{
		{name: "name", label: "Name", placeholder: "name/repo", value: form.Name, errMsg: form.NameError},
		{name: "url", label: "URL", placeholder: "git url", value: form.URL, errMsg: form.URLError},
		{name: "branch", label: "Branch", placeholder: "branch", value: form.Branch, errMsg: form.BranchError},
		{name: "compose_folder", label: "Compose folder", placeholder: "compose folder", value: form.ComposeFolder},
		{name: "credentials_name", label: "Credentials name", placeholder: "credentials name", value: form.CredentialsName, list: "credential-names"},
	}

	for _, f := range fields {
		m.raw("\n  <td>\n    <input")
		m.attr("name", f.name)
		m.attr("value", f.value)
		if f.list != "" {
			m.attr("list", f.list)
		}
		m.raw(` class="inline-input"`)
		if placeholders {
			m.attr("placeholder", f.placeholder)
		}
		m.attr("aria-label", f.label)
		m.raw(">")
		if f.errMsg != "" {
			m.raw(`<div class="field-error">`)
			m.text(f.errMsg)
			m.raw("</div>")
		}
		m.raw("\n  </td>")
	}

	if !showActions {
		m.raw("\n  <td>—</td>")
	}
}

func formActions(m *markup, savePath, cancelPath, saveLabel string, submitting bool) {
	m.raw("\n  <td class=\"actions-cell\">\n    <div class=\"new-row-actions\">\n      <button type=\"button\" class=\"small-button\"")
	m.attr("hx-post", savePath)
	m.raw(` hx-include="closest tr" hx-target="#repo-table" hx-swap="innerHTML"`)
	m.flag("disabled", submitting)
	m.raw(">")
	if submitting {
		m.raw("Saving…")
	} else {
		m.text(saveLabel)
	}
	m.raw("</button>\n      <button type=\"button\" class=\"small-button-01\"")
	m.attr("hx-post", cancelPath)
	m.raw(` hx-target="#repo-table" hx-swap="innerHTML">Cancel</button>`)
	m.raw("\n    </div>\n  </td>\n</tr>")
}
