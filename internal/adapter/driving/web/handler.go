// Package web implements the HTML console driving adapter. Pages are
// server-rendered; each repository page load mounts a list view whose state
// lives in the application layer and is driven through HTMX requests.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	vm "github.com/ericfisherdev/spaceport/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/spaceport/internal/application"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

const (
	appTitle = "Spaceport"

	// credentialLookupTimeout bounds the credential name lookup of a page load.
	credentialLookupTimeout = 3 * time.Second

	defaultHeartbeat = 25 * time.Second
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	views    *application.ViewRegistry
	probe    *application.ProbeService
	creds    driven.CredentialDirectory
	loc      *time.Location
	sections map[string]template.HTML
	logger   *slog.Logger

	heartbeat time.Duration
}

// NewHandler creates a Handler. probe and creds may be nil; the check action
// and the credential suggestions are then unavailable.
func NewHandler(
	views *application.ViewRegistry,
	probe *application.ProbeService,
	creds driven.CredentialDirectory,
	loc *time.Location,
	logger *slog.Logger,
) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	rendered, err := renderSections(contentFS)
	if err != nil {
		return nil, err
	}

	return &Handler{
		views:     views,
		probe:     probe,
		creds:     creds,
		loc:       loc,
		sections:  rendered,
		logger:    logger,
		heartbeat: defaultHeartbeat,
	}, nil
}

// Root redirects to the repository list.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/app/"+reposSection, http.StatusFound)
}

// Page renders the shell with the selected menu section. Loading the
// repositories section mounts a fresh list view.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	sec, ok := findSection(r.PathValue("section"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	csrfToken(w, r)

	content := Section(vm.SectionViewModel{Title: sec.Label, Body: h.sections[sec.ID]})
	if sec.ID == reposSection {
		view, err := h.views.Mount()
		if err != nil {
			h.logger.Error("failed to mount view", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		snap, err := view.Controller.Snapshot()
		if err != nil {
			h.views.Unmount(view.ID)
			h.logger.Error("failed to read new view", "view", view.ID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		base := viewPath(view.ID)
		content = ReposSection(vm.ReposPageViewModel{
			ViewID:          view.ID,
			EventsURL:       base + "/events",
			TableURL:        base + "/table",
			UnmountURL:      base + "/unmount",
			CredentialNames: h.credentialNames(r.Context()),
			Table:           toTableViewModel(view.ID, snap, h.loc),
		})
		// Every load is a new mount; the page must not be served from cache.
		w.Header().Set("Cache-Control", "no-store")
	}

	page := Layout(vm.PageViewModel{
		Title:   appTitle + " · " + sec.Label,
		Heading: appTitle,
		Menu:    menu(sec.ID),
	}, content)

	h.render(w, r, http.StatusOK, page)
}

// Healthz reports liveness and the number of mounted views.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"views":  h.views.Len(),
	})
}

// credentialNames returns the names offered in the forms. A failed lookup
// only costs the suggestions.
func (h *Handler) credentialNames(ctx context.Context) []string {
	if h.creds == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, credentialLookupTimeout)
	defer cancel()

	names, err := h.creds.CredentialNames(ctx)
	if err != nil {
		h.logger.Warn("credential names unavailable", "error", err)
		return nil
	}
	return names
}

// setTrigger sets an HX-Trigger header raising event with detail in the browser.
func setTrigger(w http.ResponseWriter, event string, detail map[string]string) {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}

func alertDetail(message string, err error) map[string]string {
	return map[string]string{
		"message": message,
		"error":   fmt.Sprint(err),
	}
}
