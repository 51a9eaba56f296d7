// Package state holds the signed-in user's tasks and projects and keeps
// them consistent with the remote store after every write.
//
// Every operation follows the same policy: call the remote store, and only
// on success apply the server's response to the local collections. Failures
// are logged, returned to the caller, and leave local state untouched.
// Nothing is retried and distinct calls are not ordered against each other;
// the last response applied wins.
package state

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"taskflow/internal/service"
)

// Store is the single writer of the local task and project collections.
type Store struct {
	remote service.RemoteStore
	userID string
	log    *zap.Logger

	mu       sync.RWMutex
	tasks    []service.Task
	projects []service.Project
	loading  bool
}

// New creates an empty store for userID. The store starts in the loading
// state until the first LoadAll completes.
func New(remote service.RemoteStore, userID string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		remote:  remote,
		userID:  userID,
		log:     log.Named("state").With(zap.String("user_id", userID)),
		loading: true,
	}
}

// UserID returns the owner of this store's collections.
func (s *Store) UserID() string { return s.userID }

// Tasks returns a copy of the task collection in display order.
func (s *Store) Tasks() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]service.Task(nil), s.tasks...)
}

// Projects returns a copy of the project collection in display order.
func (s *Store) Projects() []service.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]service.Project(nil), s.projects...)
}

// Loading reports whether the initial load has not finished yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LoadAll fetches tasks and projects. The two fetches are independent:
// a successful fetch replaces its collection wholesale, a failed one
// leaves its collection as it was. The loading flag clears either way.
// The returned error joins both failures, if any.
func (s *Store) LoadAll(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	var taskErr, projectErr error

	tasks, err := s.remote.ListTasks(ctx, s.userID)
	if err != nil {
		s.log.Error("error fetching tasks", zap.Error(err))
		taskErr = fmt.Errorf("fetch tasks: %w", err)
	} else {
		s.mu.Lock()
		s.tasks = tasks
		s.mu.Unlock()
	}

	projects, err := s.remote.ListProjects(ctx, s.userID)
	if err != nil {
		s.log.Error("error fetching projects", zap.Error(err))
		projectErr = fmt.Errorf("fetch projects: %w", err)
	} else {
		s.mu.Lock()
		s.projects = projects
		s.mu.Unlock()
	}

	s.log.Debug("collections loaded", zap.Int("tasks", len(tasks)), zap.Int("projects", len(projects)))

	switch {
	case taskErr != nil && projectErr != nil:
		return fmt.Errorf("%w; %w", taskErr, projectErr)
	case taskErr != nil:
		return taskErr
	default:
		return projectErr
	}
}

// CreateTask submits a new task owned by the store's user and prepends the
// server-returned row to the local collection.
func (s *Store) CreateTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	task, err := s.remote.InsertTask(ctx, service.NewTask{UserID: s.userID, TaskFields: fields})
	if err != nil {
		s.log.Error("error creating task", zap.String("title", fields.Title), zap.Error(err))
		return service.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.mu.Lock()
	s.tasks = append([]service.Task{task}, s.tasks...)
	s.mu.Unlock()
	return task, nil
}

// UpdateTask submits a partial update and replaces the matching local task
// with the server-returned row. If no local task has the id the local
// collection is left alone even though the remote write succeeded.
func (s *Store) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	task, err := s.remote.UpdateTask(ctx, id, patch)
	if err != nil {
		s.log.Error("error updating task", zap.String("task_id", id), zap.Error(err))
		return service.Task{}, fmt.Errorf("update task: %w", err)
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = task
			break
		}
	}
	s.mu.Unlock()
	return task, nil
}

// DeleteTask deletes a task remotely and then drops it locally.
// Deleting an id that is not held locally leaves the collection unchanged.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.remote.DeleteTask(ctx, id); err != nil {
		s.log.Error("error deleting task", zap.String("task_id", id), zap.Error(err))
		return fmt.Errorf("delete task: %w", err)
	}

	s.mu.Lock()
	s.tasks = removeByID(s.tasks, id, func(t service.Task) string { return t.ID })
	s.mu.Unlock()
	return nil
}

// CreateProject submits a new project and prepends the server-returned row.
func (s *Store) CreateProject(ctx context.Context, fields service.ProjectFields) (service.Project, error) {
	project, err := s.remote.InsertProject(ctx, service.NewProject{UserID: s.userID, ProjectFields: fields})
	if err != nil {
		s.log.Error("error creating project", zap.String("title", fields.Title), zap.Error(err))
		return service.Project{}, fmt.Errorf("create project: %w", err)
	}

	s.mu.Lock()
	s.projects = append([]service.Project{project}, s.projects...)
	s.mu.Unlock()
	return project, nil
}

// UpdateProject submits a partial update and replaces the matching local
// project with the server-returned row.
func (s *Store) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	project, err := s.remote.UpdateProject(ctx, id, patch)
	if err != nil {
		s.log.Error("error updating project", zap.String("project_id", id), zap.Error(err))
		return service.Project{}, fmt.Errorf("update project: %w", err)
	}

	s.mu.Lock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects[i] = project
			break
		}
	}
	s.mu.Unlock()
	return project, nil
}

// DeleteProject deletes a project remotely and then drops it locally.
// Tasks that referenced it are not touched; the remote store decides what
// happens to their project reference.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := s.remote.DeleteProject(ctx, id); err != nil {
		s.log.Error("error deleting project", zap.String("project_id", id), zap.Error(err))
		return fmt.Errorf("delete project: %w", err)
	}

	s.mu.Lock()
	s.projects = removeByID(s.projects, id, func(p service.Project) string { return p.ID })
	s.mu.Unlock()
	return nil
}

func removeByID[T any](items []T, id string, key func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if key(item) != id {
			out = append(out, item)
		}
	}
	return out
}
