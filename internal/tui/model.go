// Package tui is the interactive terminal dashboard: a session-gated
// loading screen, a sign-in form and the task dashboard with its sidebar
// of views.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/state"
	"taskflow/internal/view"
)

type screen int

const (
	screenLoading screen = iota
	screenAuth
	screenDashboard
)

// Options configures the dashboard.
type Options struct {
	Gate *session.Gate
	Auth service.AuthProvider
	Log  *zap.Logger
	Now  func() time.Time
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx  context.Context
	gate *session.Gate
	auth service.AuthProvider
	log  *zap.Logger
	now  func() time.Time

	screen  screen
	spinner spinner.Model
	busy    bool

	// Sign-in form
	email    textinput.Model
	password textinput.Model
	signUp   bool

	// Dashboard
	store    *state.Store
	viewID   string
	cursor   int
	adding   bool
	quickAdd textinput.Model

	notice   string
	err      error
	quitting bool
}

// Message types
type resolvedMsg struct {
	status session.Status
	err    error
}
type statusMsg session.Status
type authDoneMsg struct{ err error }
type mutatedMsg struct {
	notice string
	err    error
}

// New creates the dashboard model. Nothing is fetched until Init runs.
func New(ctx context.Context, opts Options) Model {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(selectedStyle))

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email:    "
	email.CharLimit = 254
	email.Width = 40

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = 40

	quick := textinput.New()
	quick.Placeholder = "What needs to be done?"
	quick.Prompt = "+ "
	quick.CharLimit = 200
	quick.Width = 50

	return Model{
		ctx:      ctx,
		gate:     opts.Gate,
		auth:     opts.Auth,
		log:      opts.Log.Named("tui"),
		now:      opts.Now,
		screen:   screenLoading,
		spinner:  sp,
		email:    email,
		password: password,
		quickAdd: quick,
		viewID:   view.AllTasks,
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, opts Options, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(ctx, opts),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	// Session changes from outside the form, such as a refresh that the
	// platform rejects, switch screens too.
	opts.Gate.OnChange(func(s session.Status) {
		go p.Send(statusMsg(s))
	})

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init resolves the session while the spinner runs.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, resolve(m.ctx, m.gate))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.screen != screenLoading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolvedMsg:
		m.err = msg.err
		return m.enter(msg.status)

	case statusMsg:
		// Notifications are delivered out of order; the gate holds the
		// current status.
		return m.enter(m.gate.Status())

	case authDoneMsg:
		m.busy = false
		if errors.Is(msg.err, service.ErrConfirmationPending) {
			m.signUp = false
			m.err = nil
			m.notice = msg.err.Error()
			return m, nil
		}
		if msg.err != nil {
			m.log.Warn("authentication failed", zap.Bool("sign_up", m.signUp), zap.Error(msg.err))
			m.err = msg.err
			return m, nil
		}
		m.password.SetValue("")
		return m.enter(m.gate.Status())

	case mutatedMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.notice = msg.notice
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenAuth:
			return m.updateAuth(msg)
		case screenDashboard:
			return m.updateDashboard(msg)
		default:
			if msg.String() == "q" {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

// enter switches to the screen matching the session status. The dashboard
// is only shown while the gate holds a store.
func (m Model) enter(status session.Status) (tea.Model, tea.Cmd) {
	store := m.gate.Store()
	if status == session.SignedIn && store == nil {
		status = session.SignedOut
	}

	switch status {
	case session.SignedIn:
		m.screen = screenDashboard
		if store != m.store {
			m.store = store
			m.viewID = view.AllTasks
			m.cursor = 0
		}
		m.clampCursor()
		return m, nil
	case session.SignedOut:
		m.screen = screenAuth
		m.store = nil
		m.adding = false
		m.password.Blur()
		cmd := m.email.Focus()
		return m, cmd
	default:
		m.screen = screenLoading
		return m, m.spinner.Tick
	}
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+t":
		m.signUp = !m.signUp
		m.err, m.notice = nil, ""
		return m, nil
	case "tab", "shift+tab", "up", "down":
		cmd := m.toggleFocus()
		return m, cmd
	case "enter":
		if m.email.Focused() {
			cmd := m.toggleFocus()
			return m, cmd
		}
		email := strings.TrimSpace(m.email.Value())
		password := m.password.Value()
		if email == "" || password == "" {
			m.err = errors.New("email and password are required")
			return m, nil
		}
		m.busy = true
		m.err, m.notice = nil, ""
		return m, tea.Batch(m.spinner.Tick, authenticate(m.ctx, m.auth, m.signUp, email, password))
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.email.Focused() {
		m.email.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.email.Focus()
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.adding {
		return m.updateQuickAdd(msg)
	}

	tasks := m.visible()

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "tab":
		m.cycleView(1)
	case "shift+tab":
		m.cycleView(-1)
	case "a":
		if m.viewID == view.Settings {
			return m, nil
		}
		m.adding = true
		m.err, m.notice = nil, ""
		cmd := m.quickAdd.Focus()
		return m, cmd
	case "r":
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, reload(m.ctx, m.store))
	case "L":
		m.busy = true
		return m, signOut(m.ctx, m.auth)
	case " ", "x":
		if task, ok := m.selected(tasks); ok {
			patch := service.TaskPatch{Completed: service.Set(!task.IsCompleted())}
			return m, updateTask(m.ctx, m.store, task.ID, patch, "")
		}
	case "s":
		if task, ok := m.selected(tasks); ok {
			patch := service.TaskPatch{Starred: service.Set(!task.IsStarred())}
			return m, updateTask(m.ctx, m.store, task.ID, patch, "")
		}
	case "d":
		if task, ok := m.selected(tasks); ok {
			return m, deleteTask(m.ctx, m.store, task.ID, fmt.Sprintf("deleted %q", task.Title))
		}
	}
	return m, nil
}

func (m Model) updateQuickAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.quickAdd.Blur()
		m.quickAdd.SetValue("")
		return m, nil
	case tea.KeyEnter:
		title := strings.TrimSpace(m.quickAdd.Value())
		if title == "" {
			m.err = errors.New("title required")
			return m, nil
		}
		m.adding = false
		m.quickAdd.Blur()
		m.quickAdd.SetValue("")
		return m, createTask(m.ctx, m.store, m.newTaskFields(title))
	}

	var cmd tea.Cmd
	m.quickAdd, cmd = m.quickAdd.Update(msg)
	return m, cmd
}

// newTaskFields applies the form defaults. A task created inside a project
// view belongs to that project; one created in the important view is starred.
func (m Model) newTaskFields(title string) service.TaskFields {
	fields := service.TaskFields{
		Title:    title,
		Priority: service.Ptr(service.DefaultPriority),
		Emoji:    service.Ptr(service.DefaultTaskEmoji),
	}
	if id, ok := view.ProjectIDOf(m.viewID); ok {
		fields.ProjectID = &id
	}
	if m.viewID == view.Important {
		fields.Starred = service.Ptr(true)
	}
	return fields
}

func (m *Model) cycleView(step int) {
	ids := view.Sidebar(m.projects())
	cur := 0
	for i, id := range ids {
		if id == m.viewID {
			cur = i
			break
		}
	}
	m.viewID = ids[(cur+step+len(ids))%len(ids)]
	m.cursor = 0
	m.err, m.notice = nil, ""
}

func (m Model) projects() []service.Project {
	if m.store == nil {
		return nil
	}
	return m.store.Projects()
}

// visible returns the tasks of the selected view.
func (m Model) visible() []service.Task {
	if m.store == nil || m.viewID == view.Settings {
		return nil
	}
	return view.Select(m.store.Tasks(), m.store.Projects(), m.viewID).Tasks
}

func (m Model) selected(tasks []service.Task) (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return service.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
