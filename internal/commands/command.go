// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"go.uber.org/zap"

	"taskflow/internal/config"
	"taskflow/internal/importer"
	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/state"
)

// Access is what a command needs before it can run.
type Access int

const (
	// AccessNone needs only the config directory (help, version, google-login).
	AccessNone Access = iota

	// AccessBackend needs loaded settings and the platform clients, but no
	// session (login, signup, logout, tui).
	AccessBackend

	// AccessSession needs a signed-in user whose tasks and projects are loaded.
	AccessSession
)

// Env carries the collaborators of a command. Fields beyond Log, In and
// Now are only set when the command's Access asks for them.
type Env struct {
	// Auth is the platform's auth provider (AccessBackend and up).
	Auth service.AuthProvider

	// Gate tracks the session (AccessBackend and up). It is resolved for
	// AccessSession commands.
	Gate *session.Gate

	// Store holds the signed-in user's loaded collections (AccessSession).
	Store *state.Store

	// Session is the signed-in session (AccessSession).
	Session *service.Session

	// Google opens the Google Tasks import source.
	Google func(ctx context.Context) (importer.Source, error)

	Log *zap.Logger
	In  io.Reader
	Now func() time.Time
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Access returns what the dispatcher must prepare before Run.
	Access() Access

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, settings once loaded).
	// env holds the collaborators required by Access().
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
