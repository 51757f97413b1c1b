package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Web routes serve HTML at / and /app/* paths.
// Static assets are served from the embedded filesystem at /static/*.
// Every mutating route requires the CSRF double-submit token.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Page routes.
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /app/{section}", h.Page)
	mux.HandleFunc("GET /healthz", h.Healthz)

	// Mounted view routes.
	const view = "/app/views/{view}"
	mux.HandleFunc("GET "+view+"/events", h.Events)
	mux.HandleFunc("GET "+view+"/table", h.Table)
	mux.Handle("POST "+view+"/unmount", requireCSRF(h.Unmount))
	mux.Handle("POST "+view+"/actions", requireCSRF(h.ToggleActions))
	mux.Handle("POST "+view+"/new", requireCSRF(h.OpenNewRow))
	mux.Handle("POST "+view+"/new/draft", requireCSRF(h.UpdateNewRowDraft))
	mux.Handle("POST "+view+"/new/save", requireCSRF(h.SubmitNewRow))
	mux.Handle("POST "+view+"/new/cancel", requireCSRF(h.CancelNewRow))
	mux.Handle("POST "+view+"/repos/{id}/edit", requireCSRF(h.BeginEdit))
	mux.Handle("POST "+view+"/repos/{id}/draft", requireCSRF(h.UpdateEditDraft))
	mux.Handle("POST "+view+"/repos/{id}/save", requireCSRF(h.ConfirmEdit))
	mux.Handle("POST "+view+"/repos/{id}/cancel", requireCSRF(h.CancelEdit))
	mux.Handle("POST "+view+"/repos/{id}/check", requireCSRF(h.Check))
	mux.Handle("DELETE "+view+"/repos/{id}", requireCSRF(h.Delete))
}
