package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskflow/internal/output"
	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/testutil"
	"taskflow/internal/view"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	auth   *testutil.FakeAuth
	remote *testutil.FakeStore
	gate   *session.Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	auth := testutil.NewFakeAuth()
	auth.AddAccount("a@example.com", "secret", "u1")
	remote := testutil.NewFakeStore()
	gate := session.NewGate(context.Background(), auth, remote, zap.NewNop())
	t.Cleanup(gate.Close)
	return &fixture{auth: auth, remote: remote, gate: gate}
}

func (f *fixture) model() Model {
	return New(context.Background(), Options{
		Gate: f.gate,
		Auth: f.auth,
		Now:  func() time.Time { return testNow },
	})
}

// exec runs cmd and any batched commands and returns the resulting
// messages. Spinner ticks and timer commands such as cursor blinks are
// dropped.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var result tea.Msg
	select {
	case result = <-ch:
	case <-time.After(100 * time.Millisecond):
		return nil
	}

	switch msg := result.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, exec(c)...)
		}
		return out
	case spinner.TickMsg, nil:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

// send feeds msg to m and then every message its commands produce.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	for _, next := range exec(cmd) {
		if _, ok := next.(tea.QuitMsg); ok {
			continue
		}
		m = send(t, m, next)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

// signedIn returns a model past the loading screen for user u1.
func (f *fixture) signedIn(t *testing.T) Model {
	t.Helper()
	f.auth.SetSession(testutil.NewSession("u1", "a@example.com"))
	m := f.model()
	for _, msg := range exec(m.Init()) {
		m = send(t, m, msg)
	}
	require.Equal(t, screenDashboard, m.screen)
	return m
}

func TestNew_StartsLoadingWithoutFetching(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	assert.Equal(t, screenLoading, m.screen)
	assert.NotNil(t, m.Init())
	assert.Zero(t, f.remote.ListTasksCalls)
	assert.Contains(t, m.View(), "Loading...")
}

func TestInit_SignedOutShowsForm(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	for _, msg := range exec(m.Init()) {
		m = send(t, m, msg)
	}

	assert.Equal(t, screenAuth, m.screen)
	assert.True(t, m.email.Focused())
	assert.Contains(t, m.View(), "Sign in")
	assert.Zero(t, f.remote.ListTasksCalls)
}

func TestSignIn_LoadsDashboard(t *testing.T) {
	f := newFixture(t)
	f.remote.AddTask(service.Task{UserID: "u1", Title: "Buy milk"})

	m := f.model()
	m = send(t, m, resolvedMsg{status: session.SignedOut})
	m = typeText(t, m, "a@example.com")
	m = send(t, m, key("tab"))
	m = typeText(t, m, "secret")
	m = send(t, m, key("enter"))

	require.Equal(t, screenDashboard, m.screen)
	assert.Equal(t, 1, f.remote.ListTasksCalls)
	assert.Empty(t, m.password.Value())
	assert.Contains(t, m.View(), "Buy milk")
	assert.Contains(t, m.View(), view.AllTasksTitle)
}

func TestSignIn_WrongPassword(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	m = send(t, m, resolvedMsg{status: session.SignedOut})
	m.email.SetValue("a@example.com")
	m = send(t, m, key("tab"))
	m = typeText(t, m, "nope")
	m = send(t, m, key("enter"))

	assert.Equal(t, screenAuth, m.screen)
	assert.ErrorIs(t, m.err, testutil.ErrInvalidCredentials)
	assert.Contains(t, m.View(), "invalid login credentials")
}

func TestSignIn_RequiresBothFields(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	m = send(t, m, resolvedMsg{status: session.SignedOut})
	m = send(t, m, key("tab"))
	m = send(t, m, key("enter"))

	assert.EqualError(t, m.err, "email and password are required")
	assert.False(t, m.busy)
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	f := newFixture(t)
	f.auth.SignUpNeedsConfirmation = true

	m := f.model()
	m = send(t, m, resolvedMsg{status: session.SignedOut})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.True(t, m.signUp)
	m.email.SetValue("new@example.com")
	m = send(t, m, key("tab"))
	m = typeText(t, m, "secret")
	m = send(t, m, key("enter"))

	assert.Equal(t, screenAuth, m.screen)
	assert.False(t, m.signUp)
	assert.Equal(t, service.ErrConfirmationPending.Error(), m.notice)
}

func TestDashboard_ToggleCompleteAndStar(t *testing.T) {
	f := newFixture(t)
	task := f.remote.AddTask(service.Task{UserID: "u1", Title: "Buy milk", Completed: service.Ptr(false)})
	m := f.signedIn(t)

	m = send(t, m, key(" "))
	got, _ := f.remote.Task(task.ID)
	assert.True(t, got.IsCompleted())
	assert.True(t, m.store.Tasks()[0].IsCompleted())

	m = send(t, m, key("s"))
	got, _ = f.remote.Task(task.ID)
	assert.True(t, got.IsStarred())
	assert.NoError(t, m.err)
}

func TestDashboard_MutationFailureShowsError(t *testing.T) {
	f := newFixture(t)
	f.remote.AddTask(service.Task{UserID: "u1", Title: "Buy milk"})
	m := f.signedIn(t)
	f.remote.UpdateTaskErr = errors.New("boom")

	m = send(t, m, key(" "))

	assert.EqualError(t, m.err, "update task: boom")
	assert.False(t, m.store.Tasks()[0].IsCompleted())
}

func TestDashboard_Delete(t *testing.T) {
	f := newFixture(t)
	f.remote.AddTask(service.Task{UserID: "u1", Title: "Old"})
	f.remote.AddTask(service.Task{UserID: "u1", Title: "New"})
	m := f.signedIn(t)

	m = send(t, m, key("j"))
	require.Equal(t, 1, m.cursor)
	m = send(t, m, key("d"))

	require.Len(t, m.store.Tasks(), 1)
	assert.Equal(t, "New", m.store.Tasks()[0].Title)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, `deleted "Old"`, m.notice)
}

func TestDashboard_QuickAddInProjectView(t *testing.T) {
	f := newFixture(t)
	project := f.remote.AddProject(service.Project{UserID: "u1", Title: "Home"})
	m := f.signedIn(t)

	m = send(t, m, key("tab"))
	require.Equal(t, view.ForProject(project.ID), m.viewID)

	m = send(t, m, key("a"))
	require.True(t, m.adding)
	m = typeText(t, m, "Water plants")
	m = send(t, m, key("enter"))

	require.Len(t, m.store.Tasks(), 1)
	task := m.store.Tasks()[0]
	assert.Equal(t, "Water plants", task.Title)
	assert.True(t, task.InProject(project.ID))
	assert.Equal(t, service.DefaultPriority, *task.Priority)
	assert.Equal(t, service.DefaultTaskEmoji, *task.Emoji)
	assert.False(t, m.adding)
}

func TestDashboard_QuickAddEscapeCancels(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	m = send(t, m, key("a"))
	m = typeText(t, m, "Nope")
	m = send(t, m, key("esc"))

	assert.False(t, m.adding)
	assert.Empty(t, m.store.Tasks())
	assert.Zero(t, f.remote.TaskCount())
}

func TestDashboard_CycleViews(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	m = send(t, m, key("tab"))
	assert.Equal(t, view.Settings, m.viewID)
	assert.Contains(t, m.View(), "a@example.com")

	m = send(t, m, key("tab"))
	assert.Equal(t, view.Important, m.viewID)
	assert.Contains(t, m.View(), output.EmptyTasks)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, view.Settings, m.viewID)
}

func TestDashboard_SignOutReturnsToForm(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	m = send(t, m, key("L"))

	assert.Equal(t, screenAuth, m.screen)
	assert.Nil(t, m.store)
	assert.Equal(t, session.SignedOut, f.gate.Status())
}

func TestModel_Update_QuitKey(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	updated, cmd := m.Update(key("q"))

	assert.True(t, updated.(Model).quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, updated.(Model).View())
}

func TestStatus_StaleSignedInAfterSignOutShowsForm(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	for _, msg := range exec(m.Init()) {
		m = send(t, m, msg)
	}
	require.Equal(t, session.SignedOut, f.gate.Status())

	m = send(t, m, statusMsg(session.SignedIn))

	assert.Equal(t, screenAuth, m.screen)
	assert.Nil(t, m.store)
	assert.NotPanics(t, func() { _ = m.View() })
}

func TestStatus_StaleSignedOutAfterSignInKeepsDashboard(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	m = send(t, m, statusMsg(session.SignedOut))

	assert.Equal(t, screenDashboard, m.screen)
	assert.NotNil(t, m.store)
}

func TestStatus_ExpiredSessionReturnsToForm(t *testing.T) {
	f := newFixture(t)
	m := f.signedIn(t)

	f.auth.Emit(service.AuthEvent{Kind: service.SignedOut})
	m = send(t, m, statusMsg(session.SignedOut))

	assert.Equal(t, screenAuth, m.screen)
	assert.Nil(t, m.store)
	assert.True(t, m.email.Focused())
}
