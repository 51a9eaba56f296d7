// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskflow/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, ambiguous).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// ForError returns the exit code for an error returned by the platform.
// A row that no longer exists counts as a bad user reference.
func ForError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrNoSession):
		return AuthError
	case errors.Is(err, service.ErrNotFound):
		return UserError
	default:
		return BackendError
	}
}
