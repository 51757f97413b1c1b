package web

import (
	"errors"
	"net/http"

	"github.com/ericfisherdev/spaceport/internal/application"
	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// confirmParam carries the id of the record the user confirmed for deletion.
const confirmParam = "confirm"

// Alert messages shown when a save fails.
const (
	msgEditFailed   = "Failed to save changes — check console for details"
	msgCreateFailed = "Failed to save repository — check console for details"
	msgDeleteFailed = "Failed to delete repository — check console for details"
)

// view resolves the mounted view addressed by the request. It answers 410
// itself when the view is gone.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*application.View, bool) {
	v, err := h.views.Get(r.PathValue("view"))
	if err != nil {
		http.Error(w, "view expired", http.StatusGone)
		return nil, false
	}
	return v, true
}

// renderTable writes the current table fragment of v.
func (h *Handler) renderTable(w http.ResponseWriter, r *http.Request, v *application.View) {
	snap, err := v.Controller.Snapshot()
	if err != nil {
		http.Error(w, "view expired", http.StatusGone)
		return
	}
	h.render(w, r, http.StatusOK, Table(toTableViewModel(v.ID, snap, h.loc)))
}

// respond renders the table after a controller operation. Validation failures
// are already part of the snapshot; transport failures raise a blocking alert
// carrying alertMessage; other refusals are reported to the console only.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v *application.View, err error, alertMessage string) {
	var verr *model.ValidationError
	switch {
	case err == nil, errors.Is(err, application.ErrNotConfirmed), errors.As(err, &verr):
	case errors.Is(err, application.ErrUnmounted):
		http.Error(w, "view expired", http.StatusGone)
		return
	case isRefusal(err):
		setTrigger(w, "spaceport:error", alertDetail(err.Error(), err))
	default:
		setTrigger(w, "spaceport:alert", alertDetail(alertMessage, err))
	}

	h.renderTable(w, r, v)
}

// isRefusal reports whether err is a controller guard rather than a failed
// request.
func isRefusal(err error) bool {
	return errors.Is(err, application.ErrNotFoundLocal) ||
		errors.Is(err, application.ErrNotEditing) ||
		errors.Is(err, application.ErrSubmitting) ||
		errors.Is(err, application.ErrEditInProgress) ||
		errors.Is(err, application.ErrNewRowClosed)
}

// draftFromForm copies the posted form fields into a draft.
func draftFromForm(r *http.Request) model.Draft {
	return model.Draft{
		Name:            r.PostFormValue("name"),
		URL:             r.PostFormValue("url"),
		Branch:          r.PostFormValue("branch"),
		ComposeFolder:   r.PostFormValue("compose_folder"),
		CredentialsName: r.PostFormValue("credentials_name"),
	}
}

// Table renders the table fragment of a view.
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.renderTable(w, r, v)
}

// ToggleActions shows or hides the row action controls.
func (h *Handler) ToggleActions(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.respond(w, r, v, v.Controller.ToggleActions(), "")
}

// OpenNewRow shows the new-row form.
func (h *Handler) OpenNewRow(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.respond(w, r, v, v.Controller.OpenNewRow(), "")
}

// UpdateNewRowDraft stores what the user typed into the new row.
func (h *Handler) UpdateNewRowDraft(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	if err := v.Controller.UpdateNewRowDraft(draftFromForm(r)); errors.Is(err, application.ErrUnmounted) {
		http.Error(w, "view expired", http.StatusGone)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitNewRow validates and creates the new record.
func (h *Handler) SubmitNewRow(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	err := v.Controller.SubmitNewRow(r.Context(), draftFromForm(r))
	h.respond(w, r, v, err, msgCreateFailed)
}

// CancelNewRow closes the new-row form.
func (h *Handler) CancelNewRow(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.respond(w, r, v, v.Controller.CancelNewRow(), "")
}

// BeginEdit puts a row into edit mode.
func (h *Handler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.respond(w, r, v, v.Controller.BeginEdit(r.PathValue("id")), "")
}

// UpdateEditDraft stores what the user typed into the editing row.
func (h *Handler) UpdateEditDraft(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	err := v.Controller.UpdateEditDraft(r.PathValue("id"), draftFromForm(r))
	if errors.Is(err, application.ErrUnmounted) {
		http.Error(w, "view expired", http.StatusGone)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmEdit submits the editing row.
func (h *Handler) ConfirmEdit(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	err := v.Controller.ConfirmEdit(r.Context(), r.PathValue("id"), draftFromForm(r))
	h.respond(w, r, v, err, msgEditFailed)
}

// CancelEdit returns a row to view mode.
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.respond(w, r, v, v.Controller.CancelEdit(r.PathValue("id")), "")
}

// Delete removes a record. The request must name the record in the confirm
// parameter, which the page only sends after the user accepted the prompt.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	confirmed := r.FormValue(confirmParam)
	err := v.Controller.Delete(r.Context(), r.PathValue("id"), func(rec model.Repository) bool {
		return confirmed != "" && confirmed == rec.ID
	})
	h.respond(w, r, v, err, msgDeleteFailed)
}

// Check probes the remote of a record and renders the result panel.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	if h.probe == nil {
		http.Error(w, "repository checks are not configured", http.StatusServiceUnavailable)
		return
	}

	snap, err := v.Controller.Snapshot()
	if err != nil {
		http.Error(w, "view expired", http.StatusGone)
		return
	}
	rec, found := snap.Find(r.PathValue("id"))
	if !found {
		http.Error(w, "repository not found", http.StatusNotFound)
		return
	}

	res := h.probe.Probe(r.Context(), rec)
	h.render(w, r, http.StatusOK, Probe(toProbeViewModel(rec.Name, res)))
}

// Unmount tears a view down. The page sends it as a beacon when it is left.
func (h *Handler) Unmount(w http.ResponseWriter, r *http.Request) {
	h.views.Unmount(r.PathValue("view"))
	w.WriteHeader(http.StatusNoContent)
}
