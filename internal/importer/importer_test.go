package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskflow/internal/backend/googletasks"
	"taskflow/internal/service"
	"taskflow/internal/state"
	"taskflow/internal/testutil"
)

type fakeSource struct {
	lists   []googletasks.List
	tasks   map[string][]googletasks.Task
	listErr error
}

func (f *fakeSource) ListLists(ctx context.Context) ([]googletasks.List, error) {
	return f.lists, f.listErr
}

func (f *fakeSource) ResolveList(ctx context.Context, name string) (googletasks.List, error) {
	for _, l := range f.lists {
		if l.Title == name {
			return l, nil
		}
	}
	return googletasks.List{}, fmt.Errorf("list not found: %s", name)
}

func (f *fakeSource) ListOpenTasks(ctx context.Context, listID string) ([]googletasks.Task, error) {
	return f.tasks[listID], nil
}

func newSource() *fakeSource {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &fakeSource{
		lists: []googletasks.List{
			{ID: "L1", Title: "My Tasks", IsDefault: true},
			{ID: "L2", Title: "Groceries"},
		},
		tasks: map[string][]googletasks.Task{
			"L1": {
				{ID: "a", Title: "Call mom", Notes: "after 6pm", Due: &due},
				{ID: "blank", Title: ""},
			},
			"L2": {
				{ID: "b", Title: "Milk"},
				{ID: "c", Title: "Eggs"},
			},
		},
	}
}

func newStore(t *testing.T) (*state.Store, *testutil.FakeStore) {
	t.Helper()
	remote := testutil.NewFakeStore()
	s := state.New(remote, "u1", zap.NewNop())
	require.NoError(t, s.LoadAll(context.Background()))
	return s, remote
}

func TestRun_AllLists(t *testing.T) {
	store, _ := newStore(t)

	res, err := New(newSource(), store, 1000, nil).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Lists: 2, Created: 3, Skipped: 1}, res)

	tasks := store.Tasks()
	require.Len(t, tasks, 3)
	call := tasks[2]
	assert.Equal(t, "Call mom", call.Title)
	assert.Equal(t, "after 6pm", *call.Description)
	assert.Equal(t, service.PriorityMedium, *call.Priority)
	assert.Equal(t, service.DefaultTaskEmoji, *call.Emoji)
	assert.Nil(t, call.ProjectID)
	require.NotNil(t, call.DueDate)
}

func TestRun_OneListIntoProjects(t *testing.T) {
	store, _ := newStore(t)

	res, err := New(newSource(), store, 1000, nil).Run(context.Background(), Options{List: "Groceries", IntoProjects: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProjectsCreated)
	assert.Equal(t, 2, res.Created)

	projects := store.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, "Groceries", projects[0].Title)
	for _, task := range store.Tasks() {
		assert.True(t, task.InProject(projects[0].ID))
	}
}

func TestRun_ReusesExistingProject(t *testing.T) {
	store, _ := newStore(t)
	existing, err := store.CreateProject(context.Background(), service.ProjectFields{Title: "groceries"})
	require.NoError(t, err)

	res, err := New(newSource(), store, 1000, nil).Run(context.Background(), Options{List: "Groceries", IntoProjects: true})
	require.NoError(t, err)
	assert.Zero(t, res.ProjectsCreated)
	assert.Len(t, store.Projects(), 1)
	assert.True(t, store.Tasks()[0].InProject(existing.ID))
}

func TestRun_InsertFailuresAreCounted(t *testing.T) {
	store, remote := newStore(t)
	remote.InsertTaskErr = errors.New("boom")

	res, err := New(newSource(), store, 1000, nil).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Failed)
	assert.Zero(t, res.Created)
}

func TestRun_UnknownList(t *testing.T) {
	store, _ := newStore(t)
	_, err := New(newSource(), store, 1000, nil).Run(context.Background(), Options{List: "Work"})
	assert.EqualError(t, err, "list not found: Work")
}

func TestRun_SourceError(t *testing.T) {
	store, _ := newStore(t)
	src := newSource()
	src.listErr = googletasks.ErrTokenRevoked

	_, err := New(src, store, 1000, nil).Run(context.Background(), Options{})
	assert.ErrorIs(t, err, googletasks.ErrTokenRevoked)
}

func TestRun_CancelledContext(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newSource(), store, 1000, nil).Run(ctx, Options{})
	assert.Error(t, err)
	assert.Empty(t, store.Tasks())
}
