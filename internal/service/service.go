package service

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist
	// (or is hidden by row-level security).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the platform rejects the credentials.
	ErrUnauthorized = errors.New("token expired or revoked (run: taskflow login)")

	// ErrNoSession is returned when no user is signed in.
	ErrNoSession = errors.New("not logged in (run: taskflow login)")

	// ErrConfirmationPending is returned by SignUp when the account was
	// created but the email address must be confirmed before signing in.
	ErrConfirmationPending = errors.New("check your email to confirm the account, then run: taskflow login")
)

// RemoteStore is the table-scoped CRUD contract of the hosted data platform.
// Commands and the state layer never import a backend package directly.
type RemoteStore interface {
	// ListTasks returns all tasks owned by userID, newest first.
	ListTasks(ctx context.Context, userID string) ([]Task, error)

	// InsertTask creates a task and returns the server-materialized row.
	InsertTask(ctx context.Context, task NewTask) (Task, error)

	// UpdateTask applies a partial update and returns the updated row.
	// Returns ErrNotFound if no row matched.
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task by id.
	DeleteTask(ctx context.Context, id string) error

	// ListProjects returns all projects owned by userID, newest first.
	ListProjects(ctx context.Context, userID string) ([]Project, error)

	// InsertProject creates a project and returns the server-materialized row.
	InsertProject(ctx context.Context, project NewProject) (Project, error)

	// UpdateProject applies a partial update and returns the updated row.
	UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error)

	// DeleteProject deletes a project by id.
	DeleteProject(ctx context.Context, id string) error
}

// UserScoper is implemented by stores without row-level security. ForUser
// returns a store that only updates or deletes rows owned by userID.
type UserScoper interface {
	ForUser(userID string) RemoteStore
}

// AuthProvider is the session contract of the hosted auth service.
type AuthProvider interface {
	// CurrentSession returns the active session, refreshing it if needed.
	// Returns nil and no error when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)

	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account. Returns ErrConfirmationPending when
	// the account needs email confirmation before a session exists.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignOut ends the session and forgets stored credentials.
	SignOut(ctx context.Context) error

	// Subscribe registers fn for session changes. The returned function
	// removes the subscription.
	Subscribe(fn func(AuthEvent)) (unsubscribe func())
}
