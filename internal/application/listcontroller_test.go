package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/spaceport/internal/application"
	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// --- Mock implementations ---

type mockRepositoryAPI struct {
	list   func(ctx context.Context) ([]model.Repository, error)
	create func(ctx context.Context, d model.Draft) (*model.Repository, error)
	update func(ctx context.Context, id string, d model.Draft) (*model.Repository, error)
	del    func(ctx context.Context, id string) error

	mu      sync.Mutex
	deletes []string
	updates []string
}

func (m *mockRepositoryAPI) List(ctx context.Context) ([]model.Repository, error) {
	if m.list == nil {
		return nil, nil
	}
	return m.list(ctx)
}

func (m *mockRepositoryAPI) Create(ctx context.Context, d model.Draft) (*model.Repository, error) {
	if m.create == nil {
		return nil, nil
	}
	return m.create(ctx, d)
}

func (m *mockRepositoryAPI) Update(ctx context.Context, id string, d model.Draft) (*model.Repository, error) {
	m.mu.Lock()
	m.updates = append(m.updates, id)
	m.mu.Unlock()
	if m.update == nil {
		return nil, nil
	}
	return m.update(ctx, id, d)
}

func (m *mockRepositoryAPI) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, id)
	m.mu.Unlock()
	if m.del == nil {
		return nil
	}
	return m.del(ctx, id)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func sampleRepos() []model.Repository {
	indexed := time.Date(2025, 9, 10, 12, 34, 56, 0, time.UTC)
	return []model.Repository{
		{ID: "r1", Name: "example/repo-frontend", URL: "https://github.com/example/repo-frontend.git", Branch: "main", ComposeFolder: strPtr("docker"), IndexedAt: &indexed},
		{ID: "r2", Name: "other/repo-backend", URL: "https://git.example.com/other/repo-backend.git", Branch: "develop", CredentialsName: strPtr("private-creds")},
	}
}

// mountReady mounts a controller over repos and waits until it is ready.
func mountReady(t *testing.T, api *mockRepositoryAPI, opts application.ListOptions) *application.ListController {
	t.Helper()

	if api.list == nil {
		repos := sampleRepos()
		api.list = func(context.Context) ([]model.Repository, error) { return repos, nil }
	}

	c := application.NewListController(api, discardLogger(), opts)
	t.Cleanup(c.Unmount)
	require.NoError(t, c.Mount())
	waitForState(t, c, model.ListReady)
	return c
}

func waitForState(t *testing.T, c *application.ListController, want model.ListState) application.Snapshot {
	t.Helper()

	var snap application.Snapshot
	require.Eventually(t, func() bool {
		s, err := c.Snapshot()
		if err != nil {
			return false
		}
		snap = s
		return s.State == want
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func ids(repos []model.Repository) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.ID)
	}
	return out
}

func confirmAll(model.Repository) bool { return true }

// --- Tests ---

func TestListController_StartsIdle(t *testing.T) {
	c := application.NewListController(&mockRepositoryAPI{}, discardLogger(), application.ListOptions{})
	t.Cleanup(c.Unmount)

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.ListIdle, snap.State)
	assert.Empty(t, snap.Repos)
	assert.False(t, snap.ShowActions)
	assert.False(t, snap.ShowNewRow)
	assert.Equal(t, "main", snap.NewRow.Draft.Branch)
}

func TestListController_MountTransitionsToLoading(t *testing.T) {
	release := make(chan struct{})
	api := &mockRepositoryAPI{list: func(ctx context.Context) ([]model.Repository, error) {
		<-release
		return nil, nil
	}}
	c := application.NewListController(api, discardLogger(), application.ListOptions{})
	t.Cleanup(c.Unmount)
	t.Cleanup(func() { close(release) })

	require.NoError(t, c.Mount())

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.ListLoading, snap.State)
}

func TestListController_ScenarioC_MountLoadsCollection(t *testing.T) {
	api := &mockRepositoryAPI{list: func(context.Context) ([]model.Repository, error) {
		return []model.Repository{{ID: "r1", Name: "a/b", URL: "https://x/a/b.git", Branch: "main"}}, nil
	}}

	c := mountReady(t, api, application.ListOptions{})

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.ListReady, snap.State)
	require.Len(t, snap.Repos, 1)
	assert.Equal(t, "r1", snap.Repos[0].ID)
	assert.NoError(t, snap.Err)
}

func TestListController_ScenarioD_FetchFailure(t *testing.T) {
	api := &mockRepositoryAPI{list: func(context.Context) ([]model.Repository, error) {
		return nil, errors.New("connection refused")
	}}
	c := application.NewListController(api, discardLogger(), application.ListOptions{})
	t.Cleanup(c.Unmount)

	require.NoError(t, c.Mount())
	snap := waitForState(t, c, model.ListErrored)

	assert.Empty(t, snap.Repos)
	assert.EqualError(t, snap.Err, "connection refused")
}

func TestListController_ScenarioE_UnmountBeforeFetchCompletes(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	finish := make(chan struct{})

	api := &mockRepositoryAPI{list: func(ctx context.Context) ([]model.Repository, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		<-finish
		// A late result must not reach the controller.
		return sampleRepos(), nil
	}}

	var unmounted atomic.Bool
	var lateCalls atomic.Int32
	c := application.NewListController(api, discardLogger(), application.ListOptions{
		OnChange: func() {
			if unmounted.Load() {
				lateCalls.Add(1)
			}
		},
	})

	require.NoError(t, c.Mount())
	<-started

	unmounted.Store(true)
	c.Unmount()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}
	close(finish)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, lateCalls.Load(), "no state change may be observed after unmount")

	_, err := c.Snapshot()
	assert.ErrorIs(t, err, application.ErrUnmounted)
}

func TestListController_OperationsAfterUnmount(t *testing.T) {
	c := mountReady(t, &mockRepositoryAPI{}, application.ListOptions{})
	c.Unmount()
	c.Unmount()

	assert.ErrorIs(t, c.Mount(), application.ErrUnmounted)
	assert.ErrorIs(t, c.ToggleActions(), application.ErrUnmounted)
	assert.ErrorIs(t, c.BeginEdit("r1"), application.ErrUnmounted)
	assert.ErrorIs(t, c.OpenNewRow(), application.ErrUnmounted)
	assert.ErrorIs(t, c.Delete(context.Background(), "r1", confirmAll), application.ErrUnmounted)
}

func TestListController_MountTwiceFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	api := &mockRepositoryAPI{list: func(context.Context) ([]model.Repository, error) {
		calls.Add(1)
		return sampleRepos(), nil
	}}
	c := mountReady(t, api, application.ListOptions{})

	require.NoError(t, c.Mount())

	assert.Equal(t, int32(1), calls.Load())
}

func TestListController_ToggleActions(t *testing.T) {
	c := mountReady(t, &mockRepositoryAPI{}, application.ListOptions{})

	require.NoError(t, c.ToggleActions())
	snap, _ := c.Snapshot()
	assert.True(t, snap.ShowActions)
	assert.True(t, snap.CanAdd())

	require.NoError(t, c.ToggleActions())
	snap, _ = c.Snapshot()
	assert.False(t, snap.ShowActions)
	assert.False(t, snap.CanAdd())
}

func TestListController_ScenarioF_DeleteSuccess(t *testing.T) {
	api := &mockRepositoryAPI{}
	c := mountReady(t, api, application.ListOptions{})

	var asked model.Repository
	err := c.Delete(context.Background(), "r2", func(r model.Repository) bool {
		asked = r
		return true
	})

	require.NoError(t, err)
	assert.Equal(t, "other/repo-backend", asked.Name)
	snap, _ := c.Snapshot()
	assert.Equal(t, []string{"r1"}, ids(snap.Repos))
	assert.Empty(t, snap.Deleting)
}

func TestListController_ScenarioF_DeleteFailure(t *testing.T) {
	api := &mockRepositoryAPI{del: func(context.Context, string) error {
		return errors.New("500 internal")
	}}
	c := mountReady(t, api, application.ListOptions{})

	err := c.Delete(context.Background(), "r2", confirmAll)

	require.Error(t, err)
	snap, _ := c.Snapshot()
	assert.Equal(t, []string{"r1", "r2"}, ids(snap.Repos), "collection is unchanged")
}

func TestListController_DeleteRequiresConfirmation(t *testing.T) {
	api := &mockRepositoryAPI{}
	c := mountReady(t, api, application.ListOptions{})

	err := c.Delete(context.Background(), "r1", func(model.Repository) bool { return false })
	assert.ErrorIs(t, err, application.ErrNotConfirmed)

	err = c.Delete(context.Background(), "r1", nil)
	assert.ErrorIs(t, err, application.ErrNotConfirmed)

	assert.Empty(t, api.deletes, "no network call without confirmation")
	snap, _ := c.Snapshot()
	assert.Len(t, snap.Repos, 2)
}

func TestListController_DeleteUnknownID(t *testing.T) {
	api := &mockRepositoryAPI{}
	c := mountReady(t, api, application.ListOptions{})

	err := c.Delete(context.Background(), "missing", confirmAll)

	assert.ErrorIs(t, err, application.ErrNotFoundLocal)
	assert.Empty(t, api.deletes)
}

func TestListController_DeleteSurvivesCallerCancellation(t *testing.T) {
	api := &mockRepositoryAPI{del: func(ctx context.Context, _ string) error {
		return ctx.Err()
	}}
	c := mountReady(t, api, application.ListOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Delete(ctx, "r1", confirmAll))
	snap, _ := c.Snapshot()
	assert.Equal(t, []string{"r2"}, ids(snap.Repos))
}

func TestListController_DeleteOfEditingRowReleasesToken(t *testing.T) {
	c := mountReady(t, &mockRepositoryAPI{}, application.ListOptions{})
	require.NoError(t, c.BeginEdit("r1"))

	require.NoError(t, c.Delete(context.Background(), "r1", confirmAll))

	snap, _ := c.Snapshot()
	assert.Nil(t, snap.Editing)
}

func TestListController_OnChangeFiresOnMutations(t *testing.T) {
	var changes atomic.Int32
	c := mountReady(t, &mockRepositoryAPI{}, application.ListOptions{
		OnChange: func() { changes.Add(1) },
	})
	before := changes.Load()

	require.NoError(t, c.ToggleActions())
	require.NoError(t, c.BeginEdit("r1"))

	assert.Equal(t, before+2, changes.Load())
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := mountReady(t, &mockRepositoryAPI{}, application.ListOptions{})

	snap, err := c.Snapshot()
	require.NoError(t, err)
	snap.Repos[0].Name = "mutated"

	again, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "example/repo-frontend", again.Repos[0].Name)
}

func TestSnapshot_Helpers(t *testing.T) {
	c := mountReady(t, &mockRepositoryAPI{}, application.ListOptions{})
	require.NoError(t, c.BeginEdit("r2"))

	snap, _ := c.Snapshot()

	assert.Equal(t, "r2", snap.EditingID())
	assert.Equal(t, model.RowEdit, snap.RowMode("r2"))
	assert.Equal(t, model.RowView, snap.RowMode("r1"))

	r, ok := snap.Find("r1")
	assert.True(t, ok)
	assert.Equal(t, "example/repo-frontend", r.Name)
	_, ok = snap.Find("nope")
	assert.False(t, ok)
}
