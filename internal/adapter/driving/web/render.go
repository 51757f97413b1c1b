package web

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// markup writes HTML to w and keeps the first write error, so components can
// emit a run of elements and check once at the end.
type markup struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (m *markup) raw(s string) {
	if m.err == nil {
		_, m.err = io.WriteString(m.w, s)
	}
}

// text writes s escaped for element content.
func (m *markup) text(s string) { m.raw(templ.EscapeString(s)) }

// attr writes ` name="value"` with value escaped.
func (m *markup) attr(name, value string) {
	m.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// flag writes a boolean attribute when on.
func (m *markup) flag(name string, on bool) {
	if on {
		m.raw(" " + name)
	}
}

// child renders c in place.
func (m *markup) child(c templ.Component) {
	if m.err == nil {
		m.err = c.Render(m.ctx, m.w)
	}
}

// component turns a markup body into a templ.Component.
func component(body func(m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := &markup{ctx: ctx, w: w}
		body(m)
		return m.err
	})
}

// render buffers c and writes it with the given status, or a 500 when
// rendering fails.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render component", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
