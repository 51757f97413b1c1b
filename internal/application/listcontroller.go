package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Confirmation asks the user whether the given record should really be deleted.
type Confirmation func(model.Repository) bool

// ListOptions tunes a ListController.
type ListOptions struct {
	// ValidateEdits runs the draft validator on row edits as well as on new rows.
	ValidateEdits bool
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
	// OnChange is called on the controller's loop after every state change
	// until the controller is unmounted. It must not call back into the
	// controller synchronously.
	OnChange func()
}

// EditState is the row holding the editing token.
type EditState struct {
	ID          string
	Draft       model.Draft
	FieldErrors model.FieldErrors
	Submitting  bool
}

// NewRowState is the pending new-row form.
type NewRowState struct {
	Draft       model.Draft
	FieldErrors model.FieldErrors
	Submitting  bool
}

// Snapshot is an immutable copy of a controller's state for rendering.
type Snapshot struct {
	State       model.ListState
	Repos       []model.Repository
	Err         error
	ShowActions bool
	ShowNewRow  bool
	Editing     *EditState
	NewRow      NewRowState
	Deleting    map[string]bool
}

// EditingID returns the id holding the editing token, or "".
func (s Snapshot) EditingID() string {
	if s.Editing == nil {
		return ""
	}
	return s.Editing.ID
}

// RowMode returns the interaction mode of the row with the given id.
func (s Snapshot) RowMode(id string) model.RowMode {
	if s.Editing != nil && s.Editing.ID == id {
		return model.RowEdit
	}
	return model.RowView
}

// Find returns the record with the given id.
func (s Snapshot) Find(id string) (model.Repository, bool) {
	for _, r := range s.Repos {
		if r.ID == id {
			return r, true
		}
	}
	return model.Repository{}, false
}

// CanAdd reports whether the "Add Repository" control is offered.
func (s Snapshot) CanAdd() bool {
	return s.ShowActions && !s.ShowNewRow && s.Editing == nil
}

// ListController owns the in-memory collection of one mounted view together
// with its presentational state. Network calls run outside the controller's
// event loop; their completions are applied on it.
type ListController struct {
	api    driven.RepositoryAPI
	logger *slog.Logger
	opts   ListOptions

	loop   *eventLoop
	ctx    context.Context // lifetime of the mounted view
	cancel context.CancelFunc

	unmountOnce sync.Once

	// Owned by loop.
	unmounted   bool
	state       model.ListState
	repos       []model.Repository
	err         error
	showActions bool
	showNewRow  bool
	editing     *EditState
	newRow      NewRowState
	deleting    map[string]bool
}

// NewListController creates an idle controller. Call Mount to start loading.
func NewListController(api driven.RepositoryAPI, logger *slog.Logger, opts ListOptions) *ListController {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ListController{
		api:      api,
		logger:   logger,
		opts:     opts,
		loop:     newEventLoop(),
		ctx:      ctx,
		cancel:   cancel,
		state:    model.ListIdle,
		repos:    []model.Repository{},
		newRow:   NewRowState{Draft: model.NewDraft()},
		deleting: map[string]bool{},
	}
}

// Mount moves an idle controller to loading and fetches the collection in the
// background. The fetch is cancelled by Unmount. Mounting a controller that
// already left idle is a no-op.
func (c *ListController) Mount() error {
	start := false
	err := c.exec(func() error {
		if c.state != model.ListIdle {
			return nil
		}
		c.state = model.ListLoading
		c.err = nil
		start = true
		c.changed()
		return nil
	})
	if err != nil || !start {
		return err
	}

	go c.fetch()
	return nil
}

func (c *ListController) fetch() {
	started := time.Now()
	repos, err := c.api.List(c.ctx)

	c.loop.post(func() {
		if c.unmounted {
			return
		}
		if err != nil {
			c.logger.Error("loading repositories failed", "error", err)
			c.state = model.ListErrored
			c.err = err
			c.changed()
			return
		}
		if repos == nil {
			repos = []model.Repository{}
		}
		c.repos = repos
		c.state = model.ListReady
		c.logger.Debug("repositories loaded",
			"count", len(repos),
			"duration", time.Since(started).Round(time.Millisecond),
		)
		c.changed()
	})
}

// Unmount cancels the in-flight fetch, stops the event loop and drops every
// later state update. It is safe to call more than once.
func (c *ListController) Unmount() {
	c.unmountOnce.Do(func() {
		c.loop.call(func() {
			c.unmounted = true
			c.opts.OnChange = nil
		})
		c.cancel()
		c.loop.stop()
	})
}

// Snapshot returns a copy of the current state.
func (c *ListController) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := c.exec(func() error {
		snap = c.snapshot()
		return nil
	})
	return snap, err
}

// ToggleActions flips the visibility of the row action controls.
func (c *ListController) ToggleActions() error {
	return c.exec(func() error {
		c.showActions = !c.showActions
		c.changed()
		return nil
	})
}

// Delete removes the record with the given id after confirm approved it. On
// failure the collection is left unchanged and the error is logged and
// returned.
func (c *ListController) Delete(ctx context.Context, id string, confirm Confirmation) error {
	var target model.Repository
	err := c.exec(func() error {
		idx := c.indexOf(id)
		if idx < 0 {
			return fmt.Errorf("delete %s: %w", id, ErrNotFoundLocal)
		}
		if c.deleting[id] {
			return fmt.Errorf("delete %s: %w", id, ErrSubmitting)
		}
		target = c.repos[idx]
		return nil
	})
	if err != nil {
		return err
	}

	if confirm == nil || !confirm(target) {
		return ErrNotConfirmed
	}

	if err := c.exec(func() error {
		if c.deleting[id] {
			return fmt.Errorf("delete %s: %w", id, ErrSubmitting)
		}
		c.deleting[id] = true
		c.changed()
		return nil
	}); err != nil {
		return err
	}

	apiErr := c.api.Delete(context.WithoutCancel(ctx), id)

	c.loop.call(func() {
		if c.unmounted {
			return
		}
		delete(c.deleting, id)
		if apiErr != nil {
			c.logger.Error("deleting repository failed", "id", id, "error", apiErr)
			c.changed()
			return
		}
		// Already gone locally is a no-op.
		if idx := c.indexOf(id); idx >= 0 {
			c.repos = append(c.repos[:idx:idx], c.repos[idx+1:]...)
		}
		if c.editing != nil && c.editing.ID == id {
			c.editing = nil
		}
		c.changed()
	})

	return apiErr
}

// exec runs fn on the loop and returns its error, or ErrUnmounted when the
// view has been torn down.
func (c *ListController) exec(fn func() error) error {
	var err error
	ok := c.loop.call(func() {
		if c.unmounted {
			err = ErrUnmounted
			return
		}
		err = fn()
	})
	if !ok {
		return ErrUnmounted
	}
	return err
}

// changed notifies the observer. Loop only.
func (c *ListController) changed() {
	if c.unmounted || c.opts.OnChange == nil {
		return
	}
	c.opts.OnChange()
}

// indexOf returns the position of id in the collection or -1. Loop only.
func (c *ListController) indexOf(id string) int {
	for i := range c.repos {
		if c.repos[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshot copies the state. Loop only.
func (c *ListController) snapshot() Snapshot {
	repos := make([]model.Repository, len(c.repos))
	copy(repos, c.repos)

	deleting := make(map[string]bool, len(c.deleting))
	for id := range c.deleting {
		deleting[id] = true
	}

	var editing *EditState
	if c.editing != nil {
		e := *c.editing
		editing = &e
	}

	return Snapshot{
		State:       c.state,
		Repos:       repos,
		Err:         c.err,
		ShowActions: c.showActions,
		ShowNewRow:  c.showNewRow,
		Editing:     editing,
		NewRow:      c.newRow,
		Deleting:    deleting,
	}
}
