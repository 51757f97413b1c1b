package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// BeginEdit hands the editing token to the row with the given id and seeds its
// draft from the record. A previous holder loses the token and its draft,
// unless its save is still in flight.
func (c *ListController) BeginEdit(id string) error {
	return c.exec(func() error {
		idx := c.indexOf(id)
		if idx < 0 {
			return fmt.Errorf("edit %s: %w", id, ErrNotFoundLocal)
		}
		if c.editing != nil {
			if c.editing.ID == id {
				return nil
			}
			if c.editing.Submitting {
				return fmt.Errorf("edit %s: %w", id, ErrEditInProgress)
			}
		}
		c.editing = &EditState{ID: id, Draft: model.DraftFrom(c.repos[idx])}
		c.changed()
		return nil
	})
}

// CancelEdit discards the row's draft and returns it to view mode. It does not
// touch the network.
func (c *ListController) CancelEdit(id string) error {
	return c.exec(func() error {
		if c.editing == nil || c.editing.ID != id {
			return nil
		}
		if c.editing.Submitting {
			return fmt.Errorf("cancel %s: %w", id, ErrSubmitting)
		}
		c.editing = nil
		c.changed()
		return nil
	})
}

// ConfirmEdit copies draft into the editing row and submits it. On success the
// server's record is merged over the local one and the row returns to view
// mode. On failure the row stays in edit mode with the draft intact and the
// error is returned for the caller to surface.
func (c *ListController) ConfirmEdit(ctx context.Context, id string, draft model.Draft) error {
	err := c.exec(func() error {
		if c.indexOf(id) < 0 {
			return fmt.Errorf("save %s: %w", id, ErrNotFoundLocal)
		}
		if c.editing == nil || c.editing.ID != id {
			return fmt.Errorf("save %s: %w", id, ErrNotEditing)
		}
		if c.editing.Submitting {
			return fmt.Errorf("save %s: %w", id, ErrSubmitting)
		}

		c.editing.Draft = draft
		c.editing.FieldErrors = model.FieldErrors{}
		if c.opts.ValidateEdits {
			if res := draft.Validate(); !res.OK {
				verr := &model.ValidationError{Validation: res}
				c.editing.FieldErrors = verr.Fields()
				c.changed()
				return verr
			}
		}

		c.editing.Submitting = true
		c.changed()
		return nil
	})
	if err != nil {
		return err
	}

	rec, apiErr := c.api.Update(context.WithoutCancel(ctx), id, draft)

	c.loop.call(func() {
		if c.unmounted {
			return
		}
		holdsToken := c.editing != nil && c.editing.ID == id
		if holdsToken {
			c.editing.Submitting = false
		}

		if apiErr != nil {
			c.logger.Error("updating repository failed", "id", id, "error", apiErr)
			c.changed()
			return
		}

		// A record deleted meanwhile stays deleted.
		if idx := c.indexOf(id); idx >= 0 {
			updated := draft.Apply(c.repos[idx])
			if rec != nil {
				updated = updated.Merge(*rec)
			}
			c.repos[idx] = updated
		}
		if holdsToken {
			c.editing = nil
		}
		c.changed()
	})

	return apiErr
}

// UpdateEditDraft replaces the editing row's draft without submitting it.
func (c *ListController) UpdateEditDraft(id string, draft model.Draft) error {
	return c.exec(func() error {
		if c.editing == nil || c.editing.ID != id {
			return fmt.Errorf("draft %s: %w", id, ErrNotEditing)
		}
		c.editing.Draft = draft
		return nil
	})
}

// OpenNewRow shows the new-row form with a blank draft. It is refused while a
// row holds the editing token.
func (c *ListController) OpenNewRow() error {
	return c.exec(func() error {
		if c.showNewRow {
			return nil
		}
		if c.editing != nil {
			return ErrEditInProgress
		}
		c.showNewRow = true
		c.newRow = NewRowState{Draft: model.NewDraft()}
		c.changed()
		return nil
	})
}

// CancelNewRow closes the new-row form and clears its draft and errors.
func (c *ListController) CancelNewRow() error {
	return c.exec(func() error {
		if c.newRow.Submitting {
			return ErrSubmitting
		}
		c.showNewRow = false
		c.newRow = NewRowState{Draft: model.NewDraft()}
		c.changed()
		return nil
	})
}

// UpdateNewRowDraft replaces the new row's draft without submitting it.
func (c *ListController) UpdateNewRowDraft(draft model.Draft) error {
	return c.exec(func() error {
		if !c.showNewRow {
			return ErrNewRowClosed
		}
		c.newRow.Draft = draft
		return nil
	})
}

// SubmitNewRow validates draft and, when it passes, creates the record. The
// created record is prepended; when the server does not return one a local
// placeholder is inserted instead. Validation failures are attributed to
// fields and abort the submission. On a create failure the form stays open
// with its draft so the user can retry.
func (c *ListController) SubmitNewRow(ctx context.Context, draft model.Draft) error {
	err := c.exec(func() error {
		if !c.showNewRow {
			return ErrNewRowClosed
		}
		if c.newRow.Submitting {
			return ErrSubmitting
		}

		c.newRow.Draft = draft
		if res := draft.Validate(); !res.OK {
			verr := &model.ValidationError{Validation: res}
			c.newRow.FieldErrors = verr.Fields()
			c.changed()
			return verr
		}

		c.newRow.FieldErrors = model.FieldErrors{}
		c.newRow.Submitting = true
		c.changed()
		return nil
	})
	if err != nil {
		return err
	}

	rec, apiErr := c.api.Create(context.WithoutCancel(ctx), draft)

	c.loop.call(func() {
		if c.unmounted {
			return
		}
		c.newRow.Submitting = false

		if apiErr != nil {
			c.logger.Error("creating repository failed", "name", draft.Name, "error", apiErr)
			c.changed()
			return
		}

		created := model.Placeholder(draft, c.opts.Now())
		if rec != nil && rec.ID != "" {
			created = *rec
		}
		c.repos = append([]model.Repository{created}, c.repos...)
		c.showNewRow = false
		c.newRow = NewRowState{Draft: model.NewDraft()}
		c.changed()
	})

	return apiErr
}
