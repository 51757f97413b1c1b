package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vm "github.com/ericfisherdev/spaceport/internal/adapter/driving/web/viewmodel"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLayout_WrapsContentAndMarksActiveMenu(t *testing.T) {
	page := vm.PageViewModel{Title: "Spaceport · Credentials", Heading: "Spaceport", Menu: menu("credentials")}
	content := Section(vm.SectionViewModel{Title: "Credentials", Body: "<p>stored <em>encrypted</em></p>"})

	out := renderString(t, Layout(page, content))

	assert.Contains(t, out, "<title>Spaceport · Credentials</title>")
	assert.Contains(t, out, `<a class="menu-button active" href="/app/credentials" aria-current="page">`)
	assert.Contains(t, out, `<a class="menu-button" href="/app/repos">`)
	assert.Contains(t, out, `<div class="markdown"><p>stored <em>encrypted</em></p></div>`, "sanitized body is written as is")
	assert.Less(t, strings.Index(out, "<main"), strings.Index(out, "content-title"))
}

func TestComponents_EscapeUserValues(t *testing.T) {
	table := vm.TableViewModel{
		BasePath:    "/app/views/v1",
		ShowActions: true,
		ToggleLabel: "Hide modifying tools",
		Rows: []vm.RowViewModel{
			{
				ID:           "r1",
				Name:         `<script>alert("x")</script>`,
				URL:          `https://example.com/"quoted"`,
				DeletePrompt: `Delete "evil"?`,
				Path:         "/app/views/v1/repos/r1",
				DeleteURL:    "/app/views/v1/repos/r1?confirm=true",
				ShowActions:  true,
			},
			{
				ID:          "r2",
				Editing:     true,
				ShowActions: true,
				Path:        "/app/views/v1/repos/r2",
				Form:        vm.FormViewModel{Name: `a"b`, NameError: "<b>too short</b>"},
			},
		},
	}

	out := renderString(t, Table(table))

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `title="https://example.com/&#34;quoted&#34;"`)
	assert.Contains(t, out, `hx-confirm="Delete &#34;evil&#34;?"`)
	assert.Contains(t, out, `value="a&#34;b"`)
	assert.Contains(t, out, `<div class="field-error">&lt;b&gt;too short&lt;/b&gt;</div>`)
}

func TestTable_ModesAndStates(t *testing.T) {
	t.Run("view mode shows timestamps", func(t *testing.T) {
		out := renderString(t, Table(vm.TableViewModel{
			Empty:       true,
			ToggleLabel: "Modify Table",
			Rows:        []vm.RowViewModel{{ID: "r1", Name: "org/a", IndexedAt: "—", UpdatedAt: "Feb 10, 2026 07:00 EST"}},
		}))
		assert.Contains(t, out, "No repositories found.")
		assert.Contains(t, out, "Indexed at")
		assert.Contains(t, out, "<td>Feb 10, 2026 07:00 EST</td>")
		assert.NotContains(t, out, "Add Repository")
		assert.NotContains(t, out, "hx-delete")
	})

	t.Run("new row while submitting", func(t *testing.T) {
		out := renderString(t, Table(vm.TableViewModel{
			BasePath:    "/app/views/v1",
			ShowActions: true,
			ShowNewRow:  true,
			CanAdd:      true,
			NewRow:      vm.FormViewModel{Name: "org/new", Submitting: true},
		}))
		assert.Contains(t, out, `hx-post="/app/views/v1/new"`)
		assert.Contains(t, out, `placeholder="name/repo"`)
		assert.Contains(t, out, `list="credential-names"`)
		assert.Contains(t, out, `hx-post="/app/views/v1/new/save" hx-include="closest tr" hx-target="#repo-table" hx-swap="innerHTML" disabled>Saving…</button>`)
	})

	t.Run("deleting row", func(t *testing.T) {
		out := renderString(t, Table(vm.TableViewModel{
			ShowActions: true,
			Rows:        []vm.RowViewModel{{ID: "r1", Deleting: true, ShowActions: true}},
		}))
		assert.Contains(t, out, `<tr id="row-r1" class="row-deleting">`)
		assert.Contains(t, out, "disabled>Deleting…</button>")
	})
}

func TestProbe_OmitsEmptyDetail(t *testing.T) {
	out := renderString(t, Probe(vm.ProbeViewModel{
		Name:          "org/a",
		BranchStatus:  "found",
		BranchDetail:  `branch "main" exists`,
		ComposeStatus: "skipped",
		ComposePath:   "docker-compose.yml",
	}))

	assert.Contains(t, out, `<span class="probe probe-found">found</span> <span class="probe-detail">branch &#34;main&#34; exists</span>`)
	assert.Contains(t, out, `<span class="probe probe-skipped">skipped</span></p>`)
}

func TestLayout_PropagatesChildError(t *testing.T) {
	failing := templ.ComponentFunc(func(context.Context, io.Writer) error {
		return errors.New("child failed")
	})

	err := Layout(vm.PageViewModel{Title: "x"}, failing).Render(context.Background(), io.Discard)
	assert.EqualError(t, err, "child failed")
}
