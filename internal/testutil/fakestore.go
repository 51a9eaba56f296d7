// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/service"
)

// Epoch is the creation time of the first row inserted into a FakeStore.
// Each later row is one minute newer.
var Epoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// FakeStore is an in-memory implementation of service.RemoteStore for testing.
// Rows are kept oldest first and listed newest first, like the real query.
type FakeStore struct {
	mu       sync.RWMutex
	tasks    []service.Task
	projects []service.Project
	tick     int

	// Call counters
	ListTasksCalls    int
	ListProjectsCalls int

	// Error injection for testing
	ListTasksErr     error
	InsertTaskErr    error
	UpdateTaskErr    error
	DeleteTaskErr    error
	ListProjectsErr  error
	InsertProjectErr error
	UpdateProjectErr error
	DeleteProjectErr error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (f *FakeStore) now() *time.Time {
	t := Epoch.Add(time.Duration(f.tick) * time.Minute)
	f.tick++
	return &t
}

// AddTask seeds a task row. Empty ID and timestamps are filled in.
func (f *FakeStore) AddTask(task service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt == nil {
		task.CreatedAt = f.now()
		task.UpdatedAt = task.CreatedAt
	}
	f.tasks = append(f.tasks, task)
	return task
}

// AddProject seeds a project row. Empty ID and timestamps are filled in.
func (f *FakeStore) AddProject(project service.Project) service.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt == nil {
		project.CreatedAt = f.now()
		project.UpdatedAt = project.CreatedAt
	}
	f.projects = append(f.projects, project)
	return project
}

// Task returns the stored task with id.
func (f *FakeStore) Task(id string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Project returns the stored project with id.
func (f *FakeStore) Project(id string) (service.Project, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range f.projects {
		if p.ID == id {
			return p, true
		}
	}
	return service.Project{}, false
}

// TaskCount returns the number of stored tasks across all users.
func (f *FakeStore) TaskCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tasks)
}

// ListTasks implements service.RemoteStore.
func (f *FakeStore) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	f.mu.Lock()
	f.ListTasksCalls++
	f.mu.Unlock()
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []service.Task
	for i := len(f.tasks) - 1; i >= 0; i-- {
		if f.tasks[i].UserID == userID {
			result = append(result, f.tasks[i])
		}
	}
	return result, nil
}

// InsertTask implements service.RemoteStore.
func (f *FakeStore) InsertTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	if f.InsertTaskErr != nil {
		return service.Task{}, f.InsertTaskErr
	}
	return f.AddTask(service.Task{
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		Starred:     task.Starred,
		Emoji:       task.Emoji,
		ProjectID:   task.ProjectID,
	}), nil
}

// UpdateTask implements service.RemoteStore.
func (f *FakeStore) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		t := &f.tasks[i]
		apply(patch.Title, func(v *string) {
			if v != nil {
				t.Title = *v
			}
		})
		apply(patch.Description, func(v *string) { t.Description = v })
		apply(patch.Completed, func(v *bool) { t.Completed = v })
		apply(patch.Priority, func(v *service.Priority) { t.Priority = v })
		apply(patch.DueDate, func(v *time.Time) { t.DueDate = v })
		apply(patch.Starred, func(v *bool) { t.Starred = v })
		apply(patch.Emoji, func(v *string) { t.Emoji = v })
		apply(patch.ProjectID, func(v *string) { t.ProjectID = v })
		t.UpdatedAt = f.now()
		return *t, nil
	}
	return service.Task{}, service.ErrNotFound
}

// DeleteTask implements service.RemoteStore. Deleting a missing id succeeds,
// as it does against PostgREST.
func (f *FakeStore) DeleteTask(ctx context.Context, id string) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListProjects implements service.RemoteStore.
func (f *FakeStore) ListProjects(ctx context.Context, userID string) ([]service.Project, error) {
	f.mu.Lock()
	f.ListProjectsCalls++
	f.mu.Unlock()
	if f.ListProjectsErr != nil {
		return nil, f.ListProjectsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []service.Project
	for i := len(f.projects) - 1; i >= 0; i-- {
		if f.projects[i].UserID == userID {
			result = append(result, f.projects[i])
		}
	}
	return result, nil
}

// InsertProject implements service.RemoteStore.
func (f *FakeStore) InsertProject(ctx context.Context, project service.NewProject) (service.Project, error) {
	if f.InsertProjectErr != nil {
		return service.Project{}, f.InsertProjectErr
	}
	return f.AddProject(service.Project{
		UserID:      project.UserID,
		Title:       project.Title,
		Description: project.Description,
		Emoji:       project.Emoji,
		Color:       project.Color,
	}), nil
}

// UpdateProject implements service.RemoteStore.
func (f *FakeStore) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	if f.UpdateProjectErr != nil {
		return service.Project{}, f.UpdateProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.projects {
		if f.projects[i].ID != id {
			continue
		}
		p := &f.projects[i]
		apply(patch.Title, func(v *string) {
			if v != nil {
				p.Title = *v
			}
		})
		apply(patch.Description, func(v *string) { p.Description = v })
		apply(patch.Emoji, func(v *string) { p.Emoji = v })
		apply(patch.Color, func(v *string) { p.Color = v })
		apply(patch.Completed, func(v *bool) { p.Completed = v })
		p.UpdatedAt = f.now()
		return *p, nil
	}
	return service.Project{}, service.ErrNotFound
}

// DeleteProject implements service.RemoteStore. Tasks referencing the
// project get their reference cleared, like ON DELETE SET NULL.
func (f *FakeStore) DeleteProject(ctx context.Context, id string) error {
	if f.DeleteProjectErr != nil {
		return f.DeleteProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, p := range f.projects {
		if p.ID == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			break
		}
	}
	for i := range f.tasks {
		if f.tasks[i].InProject(id) {
			f.tasks[i].ProjectID = nil
		}
	}
	return nil
}

func apply[T any](f service.Field[T], set func(*T)) {
	if !f.Present() {
		return
	}
	if v, ok := f.Value(); ok {
		set(&v)
		return
	}
	set(nil)
}
