package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskflow/internal/cli"
	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/testutil"
)

// setup points the settings at a throwaway project and config dir and
// returns the common flags for it.
func setup(t *testing.T) []string {
	t.Helper()
	for _, name := range []string{
		"TASKFLOW_STORE_BACKEND", "TASKFLOW_STORE_DATABASE_URL", "TASKFLOW_LOG_LEVEL",
		"SUPABASE_URL", "SUPABASE_ANON_KEY", "VITE_SUPABASE_URL", "VITE_SUPABASE_ANON_KEY",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Setenv("TASKFLOW_SUPABASE_URL", "https://demo.supabase.co")
	t.Setenv("TASKFLOW_SUPABASE_ANON_KEY", "anon")
	return []string{"--config", t.TempDir()}
}

// testFactory creates a backend factory that returns the given fakes.
func testFactory(remote *testutil.FakeStore, auth *testutil.FakeAuth) cli.BackendFactory {
	return func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*cli.Backend, error) {
		return &cli.Backend{Remote: remote, Auth: auth}, nil
	}
}

func newDispatcher(remote *testutil.FakeStore, auth *testutil.FakeAuth) *cli.Dispatcher {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(remote, auth))
	d.In = strings.NewReader("")
	d.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func signedInAuth() *testutil.FakeAuth {
	auth := testutil.NewFakeAuth()
	auth.AddAccount("a@example.com", "secret", "u1")
	auth.SetSession(testutil.NewSession("u1", "a@example.com"))
	return auth
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher := newDispatcher(testutil.NewFakeStore(), testutil.NewFakeAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"unknowncmd"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := newDispatcher(testutil.NewFakeStore(), testutil.NewFakeAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher := newDispatcher(testutil.NewFakeStore(), testutil.NewFakeAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr.String() != "" {
		t.Errorf("expected no stderr, got %q", stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionNeedsNoSettings(t *testing.T) {
	t.Setenv("TASKFLOW_SUPABASE_URL", "")
	os.Unsetenv("TASKFLOW_SUPABASE_URL")
	dispatcher := newDispatcher(testutil.NewFakeStore(), testutil.NewFakeAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"version", "--config", t.TempDir()}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "taskflow 0.1.0\n" {
		t.Errorf("expected 'taskflow 0.1.0\\n', got %q", stdout.String())
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher := newDispatcher(testutil.NewFakeStore(), testutil.NewFakeAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help", "--unknown"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	dispatcher := newDispatcher(testutil.NewFakeStore(), testutil.NewFakeAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"add", "--due"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -due\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_MissingSettings(t *testing.T) {
	common := setup(t)
	t.Setenv("TASKFLOW_SUPABASE_URL", "")
	os.Unsetenv("TASKFLOW_SUPABASE_URL")
	dispatcher := newDispatcher(testutil.NewFakeStore(), signedInAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), append([]string{"list"}, common...), &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: missing required configuration: supabase.url\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_NoArgsListsAllTasks(t *testing.T) {
	setup(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	remote := testutil.NewFakeStore()
	remote.AddTask(service.Task{UserID: "u1", Title: "Mine"})
	remote.AddTask(service.Task{UserID: "u2", Title: "Theirs"})
	dispatcher := newDispatcher(remote, signedInAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	expected := "------------\nAll Tasks\n------------\n   1  [ ]   Mine\n"
	if stdout.String() != expected {
		t.Errorf("expected %q, got %q", expected, stdout.String())
	}
	if remote.ListTasksCalls != 1 {
		t.Errorf("expected one task fetch, got %d", remote.ListTasksCalls)
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	common := setup(t)
	remote := testutil.NewFakeStore()
	dispatcher := newDispatcher(remote, testutil.NewFakeAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), append([]string{"list"}, common...), &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: not logged in (run: taskflow login)\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
	if remote.ListTasksCalls != 0 {
		t.Error("nothing should be fetched without a session")
	}
}

func TestDispatcher_ExpiredSession(t *testing.T) {
	common := setup(t)
	auth := testutil.NewFakeAuth()
	auth.CurrentSessionErr = service.ErrUnauthorized
	dispatcher := newDispatcher(testutil.NewFakeStore(), auth)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), append([]string{"whoami"}, common...), &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: " + service.ErrUnauthorized.Error() + "\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_LoadFailure(t *testing.T) {
	common := setup(t)
	remote := testutil.NewFakeStore()
	remote.ListTasksErr = errors.New("connection refused")
	dispatcher := newDispatcher(remote, signedInAuth())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), append([]string{"list"}, common...), &stdout, &stderr)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	expected := "error: backend error: fetch tasks: connection refused\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FactoryFailure(t *testing.T) {
	common := setup(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry,
		func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*cli.Backend, error) {
			return nil, errors.New("dial tcp: connection refused")
		})

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), append([]string{"login"}, common...), &stdout, &stderr)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	expected := "error: backend error: dial tcp: connection refused\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_BackendCommandSkipsSession(t *testing.T) {
	common := setup(t)
	remote := testutil.NewFakeStore()
	auth := testutil.NewFakeAuth()
	auth.AddAccount("a@example.com", "secret", "u1")
	dispatcher := newDispatcher(remote, auth)

	var stdout, stderr bytes.Buffer
	args := append([]string{"login", "--email", "a@example.com", "--password", "secret"}, common...)
	code := dispatcher.Run(context.Background(), args, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "logged in as a@example.com\n" {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
}

func TestDispatcher_CommandFlagsAndCommonFlags(t *testing.T) {
	common := setup(t)
	remote := testutil.NewFakeStore()
	dispatcher := newDispatcher(remote, signedInAuth())

	var stdout, stderr bytes.Buffer
	args := append([]string{"add", "--quiet", "--priority", "high"}, common...)
	args = append(args, "Call", "mom")
	code := dispatcher.Run(context.Background(), args, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "" {
		t.Errorf("expected no stdout with --quiet, got %q", stdout.String())
	}
	if remote.TaskCount() != 1 {
		t.Fatalf("expected 1 task, got %d", remote.TaskCount())
	}
}
