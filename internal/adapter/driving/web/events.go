package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ericfisherdev/spaceport/internal/application"
)

// Events streams a "changed" server-sent event whenever the view's state
// changes. Closing the stream unmounts the view.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("view")

	changes, detach, err := h.views.Attach(id)
	switch {
	case errors.Is(err, application.ErrViewNotFound):
		http.Error(w, "view expired", http.StatusGone)
		return
	case errors.Is(err, application.ErrViewAttached):
		http.Error(w, "view already streaming", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("failed to attach view", "view", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer detach()

	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("could not clear write deadline", "view", id, "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming not supported", "view", id, "error", err)
		return
	}

	h.logger.Debug("change stream opened", "view", id)
	defer h.logger.Debug("change stream closed", "view", id)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case _, ok := <-changes:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: changed\ndata: %d\n\n", time.Now().UnixMilli()); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
