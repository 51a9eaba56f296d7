package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/state"
)

// Remote calls run as commands; their results come back to Update as
// messages. The state store applies the response before the message is sent.

func resolve(ctx context.Context, gate *session.Gate) tea.Cmd {
	return func() tea.Msg {
		status, err := gate.Resolve(ctx)
		return resolvedMsg{status: status, err: err}
	}
}

func authenticate(ctx context.Context, auth service.AuthProvider, signUp bool, email, password string) tea.Cmd {
	return func() tea.Msg {
		var err error
		if signUp {
			_, err = auth.SignUp(ctx, email, password)
		} else {
			_, err = auth.SignIn(ctx, email, password)
		}
		return authDoneMsg{err: err}
	}
}

func signOut(ctx context.Context, auth service.AuthProvider) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: auth.SignOut(ctx)}
	}
}

func reload(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{notice: "reloaded", err: store.LoadAll(ctx)}
	}
}

func createTask(ctx context.Context, store *state.Store, fields service.TaskFields) tea.Cmd {
	return func() tea.Msg {
		_, err := store.CreateTask(ctx, fields)
		return mutatedMsg{notice: "task created", err: err}
	}
}

func updateTask(ctx context.Context, store *state.Store, id string, patch service.TaskPatch, notice string) tea.Cmd {
	return func() tea.Msg {
		_, err := store.UpdateTask(ctx, id, patch)
		return mutatedMsg{notice: notice, err: err}
	}
}

func deleteTask(ctx context.Context, store *state.Store, id, notice string) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{notice: notice, err: store.DeleteTask(ctx, id)}
	}
}
