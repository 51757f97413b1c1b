// Package httphandler serves the REST API of the reference indexer.
package httphandler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Indexer runs the compose file scans behind the index endpoints.
type Indexer interface {
	Rescan(ctx context.Context, force bool) ([]model.IndexOutcome, error)
	IndexRepo(ctx context.Context, id string) (model.IndexOutcome, error)
	Entries(ctx context.Context) ([]model.IndexEntry, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	repoStore driven.RepoStore
	credStore driven.CredentialStore
	indexer   Indexer
	db        Pinger
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	repoStore driven.RepoStore,
	credStore driven.CredentialStore,
	indexer Indexer,
	db Pinger,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		repoStore: repoStore,
		credStore: credStore,
		indexer:   indexer,
		db:        db,
		logger:    logger,
	}
}

// NewRouter creates an http.Handler with all routes registered and wrapped
// with request id, logging and recovery middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(func(next http.Handler) http.Handler { return loggingMiddleware(logger, next) })
	// Recovery innermost so panics are caught before logging.
	r.Use(func(next http.Handler) http.Handler { return recoveryMiddleware(logger, next) })

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/repos", func(r chi.Router) {
			r.Get("/", h.ListRepos)
			r.Post("/", h.CreateRepo)
			r.Put("/{id}", h.UpdateRepo)
			r.Delete("/{id}", h.DeleteRepo)
			r.Post("/{id}/index", h.IndexRepo)
		})
		r.Route("/credentials", func(r chi.Router) {
			r.Get("/", h.ListCredentials)
			r.Post("/", h.SaveCredential)
			r.Delete("/{name}", h.DeleteCredential)
		})
		r.Route("/index", func(r chi.Router) {
			r.Get("/", h.ListIndex)
			r.Post("/rescan", h.Rescan)
		})
	})

	return r
}

// Health reports liveness together with the store's reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, StatusResponse{
				Status:  http.StatusServiceUnavailable,
				Message: "database unavailable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: http.StatusOK})
}

// ListRepos returns all registered repositories, oldest first. The response
// carries an ETag so caching clients can revalidate instead of refetching.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repoStore.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list repos", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RepoResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, toRepoResponse(repo))
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to encode repos", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sum := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// CreateRepo registers a repository. The (url, name) pair must be unique.
func (h *Handler) CreateRepo(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRepoRequest(w, r)
	if !ok {
		return
	}

	created, err := h.repoStore.Create(r.Context(), req.toModel(""))
	if errors.Is(err, driven.ErrRepoAlreadyExists) {
		writeError(w, http.StatusConflict, "repository with this url and name already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed to create repo", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("repository created", "id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, toRepoResponse(*created))
}

// UpdateRepo replaces the editable fields of an existing repository.
func (h *Handler) UpdateRepo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := h.decodeRepoRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.repoStore.Update(r.Context(), req.toModel(id))
	switch {
	case errors.Is(err, driven.ErrRepoNotFound):
		writeError(w, http.StatusNotFound, "repository not found")
		return
	case errors.Is(err, driven.ErrRepoAlreadyExists):
		writeError(w, http.StatusConflict, "repository with this url and name already exists")
		return
	case err != nil:
		h.logger.Error("failed to update repo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toRepoResponse(*updated))
}

// DeleteRepo removes a repository.
func (h *Handler) DeleteRepo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.repoStore.Delete(r.Context(), id)
	if errors.Is(err, driven.ErrRepoNotFound) {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete repo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("repository deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListCredentials returns the stored credentials without their secrets.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credStore.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list credentials", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]CredentialResponse, 0, len(creds))
	for _, c := range creds {
		resp = append(resp, toCredentialResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SaveCredential stores or replaces a named credential. A name, a username and
// at least one of password or token are required.
func (h *Handler) SaveCredential(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if details := req.missing(); len(details) > 0 {
		writeJSON(w, http.StatusNotAcceptable, ValidationResponse{
			Error:   "missing required credential fields",
			Details: details,
		})
		return
	}

	saved, err := h.credStore.Save(r.Context(), req.toModel())
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to save credential", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("credential saved", "name", saved.Name)
	writeJSON(w, http.StatusCreated, toCredentialResponse(*saved))
}

// DeleteCredential removes a named credential. Repositories that refer to it
// fail to index until it is saved again.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := h.credStore.Delete(r.Context(), name)
	if errors.Is(err, driven.ErrCredentialNotFound) {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete credential", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("credential deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

// ListIndex returns the stored compose file index.
func (h *Handler) ListIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := h.indexer.Entries(r.Context())
	if err != nil {
		h.logger.Error("failed to list index", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]IndexEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toIndexEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Rescan indexes every registered repository. The optional force query
// parameter refetches repositories that already have an entry.
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "force must be a boolean")
			return
		}
		force = v
	}

	outcomes, err := h.indexer.Rescan(r.Context(), force)
	if err != nil {
		h.logger.Error("index rescan failed", "force", force, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := RescanResponse{Force: force, Results: make([]IndexOutcomeResponse, 0, len(outcomes))}
	for _, o := range outcomes {
		resp.Results = append(resp.Results, toIndexOutcomeResponse(o))
	}

	writeJSON(w, http.StatusOK, resp)
}

// IndexRepo refetches the compose file of one repository.
func (h *Handler) IndexRepo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	outcome, err := h.indexer.IndexRepo(r.Context(), id)
	if errors.Is(err, driven.ErrRepoNotFound) {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to index repo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toIndexOutcomeResponse(outcome))
}

// decodeRepoRequest parses and validates a repository body. It writes the
// error response itself and reports whether the handler should continue.
func (h *Handler) decodeRepoRequest(w http.ResponseWriter, r *http.Request) (RepoRequest, bool) {
	var req RepoRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	req.normalize()

	if res := model.ValidateDraft(req.Name, req.URL, req.Branch); !res.OK {
		writeJSON(w, http.StatusBadRequest, ValidationResponse{
			Error:   "invalid repository",
			Details: res.Errors,
		})
		return req, false
	}

	return req, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// etagMatches reports whether an If-None-Match header lists etag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
