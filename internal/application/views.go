package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Sentinel errors returned by ViewRegistry.
var (
	// ErrViewNotFound indicates the view id is unknown or already unmounted.
	ErrViewNotFound = errors.New("view not found")

	// ErrViewAttached indicates a change stream is already open for the view.
	ErrViewAttached = errors.New("view already has a change stream")
)

// View is one mounted repository list, the server-side counterpart of an open
// browser page.
type View struct {
	ID         string
	Controller *ListController

	changes   chan struct{}
	createdAt time.Time
	attached  bool
}

// ViewOptions configures the views created by a ViewRegistry.
type ViewOptions struct {
	// TTL is how long a view may exist without a change stream before the
	// janitor unmounts it.
	TTL           time.Duration
	ValidateEdits bool
	Now           func() time.Time
}

// ViewRegistry tracks the mounted views by id.
type ViewRegistry struct {
	api    driven.RepositoryAPI
	logger *slog.Logger
	opts   ViewOptions

	mu    sync.Mutex
	views map[string]*View
}

// NewViewRegistry creates an empty registry.
func NewViewRegistry(api driven.RepositoryAPI, logger *slog.Logger, opts ViewOptions) *ViewRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ViewRegistry{
		api:    api,
		logger: logger,
		opts:   opts,
		views:  make(map[string]*View),
	}
}

// Mount creates a view, registers it and starts loading its collection.
func (r *ViewRegistry) Mount() (*View, error) {
	v := &View{
		ID:        uuid.NewString(),
		changes:   make(chan struct{}, 1),
		createdAt: r.opts.Now(),
	}
	v.Controller = NewListController(r.api, r.logger.With("view", v.ID), ListOptions{
		ValidateEdits: r.opts.ValidateEdits,
		Now:           r.opts.Now,
		OnChange:      v.notify,
	})

	r.mu.Lock()
	r.views[v.ID] = v
	r.mu.Unlock()

	if err := v.Controller.Mount(); err != nil {
		r.Unmount(v.ID)
		return nil, err
	}

	r.logger.Debug("view mounted", "view", v.ID)
	return v, nil
}

// notify records a pending change. Bursts coalesce into one signal.
func (v *View) notify() {
	select {
	case v.changes <- struct{}{}:
	default:
	}
}

// Get returns the mounted view with the given id.
func (r *ViewRegistry) Get(id string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	return v, nil
}

// Attach opens the change stream of a view. The returned channel receives a
// value whenever the view's state changed since the last receive. Calling
// detach unmounts the view: a page that stops listening is gone.
func (r *ViewRegistry) Attach(id string) (<-chan struct{}, func(), error) {
	r.mu.Lock()
	v, ok := r.views[id]
	if !ok {
		r.mu.Unlock()
		return nil, nil, ErrViewNotFound
	}
	if v.attached {
		r.mu.Unlock()
		return nil, nil, ErrViewAttached
	}
	v.attached = true
	r.mu.Unlock()

	// Deliver the state reached before the stream was opened.
	v.notify()

	return v.changes, func() { r.Unmount(id) }, nil
}

// Unmount tears down the view with the given id. It reports whether the view
// was mounted.
func (r *ViewRegistry) Unmount(id string) bool {
	r.mu.Lock()
	v, ok := r.views[id]
	delete(r.views, id)
	r.mu.Unlock()

	if !ok {
		return false
	}

	v.Controller.Unmount()
	r.logger.Debug("view unmounted", "view", id)
	return true
}

// Len returns the number of mounted views.
func (r *ViewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Run unmounts views that never opened a change stream within the TTL. On
// context cancellation every remaining view is unmounted. Run blocks until
// ctx is done.
func (r *ViewRegistry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.TTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.unmountAll()
			r.logger.Info("view registry stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("expired views unmounted", "count", n)
			}
		}
	}
}

// Sweep unmounts every unattached view older than the TTL and returns how many
// it removed.
func (r *ViewRegistry) Sweep() int {
	cutoff := r.opts.Now().Add(-r.opts.TTL)

	r.mu.Lock()
	var expired []string
	for id, v := range r.views {
		if !v.attached && v.createdAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	r.mu.Unlock()

	n := 0
	for _, id := range expired {
		if r.Unmount(id) {
			n++
		}
	}
	return n
}

func (r *ViewRegistry) unmountAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.views))
	for id := range r.views {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Unmount(id)
	}
}
