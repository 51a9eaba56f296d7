package supabase

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"taskflow/internal/service"
)

// Table names in the public schema.
const (
	TasksTable    = "todos"
	ProjectsTable = "projects"
)

const (
	restPath           = "/rest/v1/"
	preferRepresent    = "return=representation"
	orderNewestFirst   = "created_at.desc"
	selectAllColumns   = "*"
	filterEqualsPrefix = "eq."
)

// Store implements service.RemoteStore over PostgREST. Row-level security
// on the server scopes every query to the token's user; the explicit
// user_id filter mirrors it.
type Store struct {
	api *client
}

// NewStore creates a Store for the project at baseURL. Every request
// carries anonKey as apikey and a bearer token from ts.
func NewStore(baseURL, anonKey string, ts oauth2.TokenSource, timeout time.Duration) *Store {
	return NewStoreWithHTTPClient(baseURL, timeout, &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   newAPIKeyTransport(anonKey, nil),
		},
	})
}

// NewStoreWithHTTPClient creates a Store with a custom HTTP client (for testing).
func NewStoreWithHTTPClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Store {
	return &Store{api: &client{baseURL: baseURL, http: httpClient, timeout: timeout}}
}

func eq(v string) string { return filterEqualsPrefix + v }

func listQuery(userID string) url.Values {
	return url.Values{
		"select":  {selectAllColumns},
		"user_id": {eq(userID)},
		"order":   {orderNewestFirst},
	}
}

func idQuery(id string) url.Values {
	return url.Values{"id": {eq(id)}}
}

// list fetches every row of table owned by userID, newest first.
func list[T any](ctx context.Context, c *client, table, userID string) ([]T, error) {
	var rows []T
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath + table,
		query:  listQuery(userID),
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// insert creates one row and returns its server representation.
func insert[T any](ctx context.Context, c *client, table string, row any) (T, error) {
	var rows []T
	var zero T
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   restPath + table,
		query:  url.Values{"select": {selectAllColumns}},
		body:   []any{row},
		prefer: preferRepresent,
	}, &rows)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, service.ErrNotFound
	}
	return rows[0], nil
}

// update patches the row with id. An empty representation means no row
// matched (or row-level security hid it).
func update[T any](ctx context.Context, c *client, table, id string, cols map[string]any) (T, error) {
	var rows []T
	var zero T
	query := idQuery(id)
	query.Set("select", selectAllColumns)
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   restPath + table,
		query:  query,
		body:   cols,
		prefer: preferRepresent,
	}, &rows)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, service.ErrNotFound
	}
	return rows[0], nil
}

func remove(ctx context.Context, c *client, table, id string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   restPath + table,
		query:  idQuery(id),
	}, nil)
}

// ListTasks implements service.RemoteStore.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	return list[service.Task](ctx, s.api, TasksTable, userID)
}

// InsertTask implements service.RemoteStore.
func (s *Store) InsertTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	return insert[service.Task](ctx, s.api, TasksTable, task)
}

// UpdateTask implements service.RemoteStore.
func (s *Store) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	return update[service.Task](ctx, s.api, TasksTable, id, patch.Columns())
}

// DeleteTask implements service.RemoteStore.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return remove(ctx, s.api, TasksTable, id)
}

// ListProjects implements service.RemoteStore.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]service.Project, error) {
	return list[service.Project](ctx, s.api, ProjectsTable, userID)
}

// InsertProject implements service.RemoteStore.
func (s *Store) InsertProject(ctx context.Context, project service.NewProject) (service.Project, error) {
	return insert[service.Project](ctx, s.api, ProjectsTable, project)
}

// UpdateProject implements service.RemoteStore.
func (s *Store) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	return update[service.Project](ctx, s.api, ProjectsTable, id, patch.Columns())
}

// DeleteProject implements service.RemoteStore.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return remove(ctx, s.api, ProjectsTable, id)
}
