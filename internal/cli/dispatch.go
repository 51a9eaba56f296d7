package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskflow/internal/backend/googletasks"
	"taskflow/internal/backend/postgres"
	"taskflow/internal/backend/supabase"
	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/importer"
	"taskflow/internal/logging"
	"taskflow/internal/service"
	"taskflow/internal/session"
)

// Backend is the set of platform clients a command runs against.
type Backend struct {
	Remote service.RemoteStore
	Auth   service.AuthProvider

	// Google opens the Google Tasks import source. Nil disables import.
	Google func(ctx context.Context) (importer.Source, error)

	// Close releases the clients. May be nil.
	Close func()
}

// BackendFactory creates the Backend from loaded settings.
// Used to inject fakes during dispatch.
type BackendFactory func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error)

// DefaultFactory talks to Supabase: GoTrue for auth and either PostgREST or
// a direct Postgres connection for data, depending on store.backend.
func DefaultFactory(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	auth := supabase.NewAuth(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SessionPath(), cfg.APITimeout, log)

	b := &Backend{
		Auth: auth,
		Google: func(ctx context.Context) (importer.Source, error) {
			return googletasks.New(ctx, cfg)
		},
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.APITimeout)
		if err != nil {
			return nil, err
		}
		b.Remote = db
		b.Close = func() { _ = db.Close() }
	default:
		b.Remote = supabase.NewStore(cfg.SupabaseURL, cfg.SupabaseAnonKey, auth.TokenSource(ctx), cfg.APITimeout)
	}

	log.Debug("backend ready", zap.String("store", cfg.StoreBackend))
	return b, nil
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  BackendFactory

	// In is where commands read prompted input from. Nil means os.Stdin.
	In io.Reader

	// Now is the clock used for relative due dates. Nil means time.Now.
	Now func() time.Time
}

// NewDispatcher creates a new dispatcher with the given registry and backend factory.
func NewDispatcher(registry *commands.Registry, factory BackendFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(errOut, err)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	env := &commands.Env{
		Log: zap.NewNop(),
		In:  d.In,
		Now: d.Now,
	}

	if cmd.Access() == commands.AccessNone {
		return cmd.Run(ctx, cfg, env, positionalArgs, out, errOut)
	}

	if err := cfg.Load(); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}

	log, closeLog, err := logging.New(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	defer closeLog()
	log = log.With(zap.String("command", cmd.Name()))

	backend, err := d.factory(ctx, cfg, log)
	if err != nil {
		log.Error("error creating backend", zap.Error(err))
		return reportBackendError(errOut, err)
	}
	if backend.Close != nil {
		defer backend.Close()
	}

	gate := session.NewGate(ctx, backend.Auth, backend.Remote, log)
	defer gate.Close()

	env.Auth = backend.Auth
	env.Gate = gate
	env.Google = backend.Google
	env.Log = log

	if cmd.Access() == commands.AccessSession {
		status, err := gate.Resolve(ctx)
		if err != nil {
			return reportBackendError(errOut, err)
		}
		if status != session.SignedIn {
			fmt.Fprintln(errOut, "error: not logged in (run: taskflow login)")
			return exitcode.AuthError
		}
		env.Session = gate.Session()
		env.Store = gate.Store()
	}

	return cmd.Run(ctx, cfg, env, positionalArgs, out, errOut)
}

// reportFlagError prints a flag parsing error and returns exitcode.UserError.
func reportFlagError(errOut io.Writer, err error) int {
	errStr := err.Error()

	// Check for missing flag value
	if strings.Contains(errStr, "needs a value") || strings.Contains(errStr, "flag needs an argument") {
		parts := strings.Split(errStr, ":")
		flagPart := strings.TrimSpace(parts[len(parts)-1])
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagPart)
		return exitcode.UserError
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}

// reportBackendError prints a platform error with its exit code.
func reportBackendError(errOut io.Writer, err error) int {
	code := exitcode.ForError(err)
	switch {
	case code == exitcode.BackendError:
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: %s\n", service.ErrUnauthorized)
	default:
		fmt.Fprintf(errOut, "error: %s\n", err)
	}
	return code
}
