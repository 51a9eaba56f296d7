// Package postgres implements service.RemoteStore directly against the
// Supabase Postgres database. It is an alternative to the PostgREST
// backend for self-hosted setups; queries filter by user_id explicitly
// because row-level security does not apply to a direct connection, so
// callers scope the store to the signed-in user with ForUser.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"taskflow/internal/service"
)

const (
	taskColumns    = "id, user_id, title, description, completed, priority, due_date, starred, emoji, project_id, created_at, updated_at"
	projectColumns = "id, user_id, title, description, emoji, color, completed, created_at, updated_at"
)

// foreignKeyViolation is the SQLSTATE for a foreign key violation.
const foreignKeyViolation = "23503"

// Store implements service.RemoteStore over database/sql.
// Updates and deletes need a store scoped with ForUser.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	userID  string
}

// Connect opens and pings the database at dsn.
func Connect(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return New(db, timeout), nil
}

// New wraps an open database handle.
func New(db *sql.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// ForUser returns a store sharing the same handle whose updates and
// deletes only touch rows owned by userID.
func (s *Store) ForUser(userID string) service.RemoteStore {
	scoped := *s
	scoped.userID = userID
	return &scoped
}

// owner returns the scoped user id, or ErrNoSession for an unscoped store.
func (s *Store) owner() (string, error) {
	if s.userID == "" {
		return "", service.ErrNoSession
	}
	return s.userID, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (service.Task, error) {
	var t service.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.Priority,
		&t.DueDate, &t.Starred, &t.Emoji, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanProject(row scanner) (service.Project, error) {
	var p service.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Emoji, &p.Color,
		&p.Completed, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListTasks implements service.RemoteStore.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM todos WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var result []service.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrapError(err)
		}
		result = append(result, t)
	}
	return result, wrapError(rows.Err())
}

// InsertTask implements service.RemoteStore.
func (s *Store) InsertTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO todos (user_id, title, description, completed, priority, due_date, starred, emoji, project_id)
		 VALUES ($1, $2, $3, COALESCE($4, false), COALESCE($5, 'medium'), $6, COALESCE($7, false), $8, $9)
		 RETURNING `+taskColumns,
		task.UserID, task.Title, task.Description, task.Completed, task.Priority,
		task.DueDate, task.Starred, task.Emoji, task.ProjectID)
	t, err := scanTask(row)
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return t, nil
}

// UpdateTask implements service.RemoteStore.
func (s *Store) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	owner, err := s.owner()
	if err != nil {
		return service.Task{}, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query, args := updateQuery("todos", id, owner, patch.Columns(), taskColumns)
	t, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return t, nil
}

// DeleteTask implements service.RemoteStore.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	owner, err := s.owner()
	if err != nil {
		return err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err = s.db.ExecContext(ctx, deleteQuery("todos"), id, owner)
	return wrapError(err)
}

// ListProjects implements service.RemoteStore.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]service.Project, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var result []service.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, wrapError(err)
		}
		result = append(result, p)
	}
	return result, wrapError(rows.Err())
}

// InsertProject implements service.RemoteStore.
func (s *Store) InsertProject(ctx context.Context, project service.NewProject) (service.Project, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO projects (user_id, title, description, emoji, color)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+projectColumns,
		project.UserID, project.Title, project.Description, project.Emoji, project.Color)
	p, err := scanProject(row)
	if err != nil {
		return service.Project{}, wrapError(err)
	}
	return p, nil
}

// UpdateProject implements service.RemoteStore.
func (s *Store) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	owner, err := s.owner()
	if err != nil {
		return service.Project{}, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query, args := updateQuery("projects", id, owner, patch.Columns(), projectColumns)
	p, err := scanProject(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return service.Project{}, wrapError(err)
	}
	return p, nil
}

// DeleteProject implements service.RemoteStore.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	owner, err := s.owner()
	if err != nil {
		return err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err = s.db.ExecContext(ctx, deleteQuery("projects"), id, owner)
	return wrapError(err)
}

// updateQuery builds an UPDATE for the given columns in a stable order.
// updated_at is always bumped, so an empty patch still returns the row.
// A row owned by another user matches nothing and surfaces as ErrNotFound.
func updateQuery(table, id, userID string, cols map[string]any, returning string) (string, []any) {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		args = append(args, cols[name])
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(name), len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id, userID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		table, strings.Join(sets, ", "), len(args)-1, len(args), returning)
	return query, args
}

// deleteQuery takes the row id and the owner as $1 and $2. Deleting a row
// that does not exist, or is not the owner's, succeeds as it does over
// PostgREST.
func deleteQuery(table string) string {
	return "DELETE FROM " + table + " WHERE id = $1 AND user_id = $2"
}

// wrapError maps database errors onto the service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return service.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return fmt.Errorf("referenced row does not exist (%s): %w", pqErr.Constraint, err)
	}
	return err
}
