package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskflow/internal/output"
	"taskflow/internal/service"
	"taskflow/internal/view"
)

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenAuth:
		return m.renderAuth()
	case screenDashboard:
		return m.renderDashboard()
	default:
		return "\n  " + m.spinner.View() + " Loading...\n\n" + footerStyle.Render("  [q] quit") + "\n"
	}
}

func (m Model) renderAuth() string {
	title := "Sign in"
	switchHint := "[ctrl+t] create an account"
	if m.signUp {
		title = "Create an account"
		switchHint = "[ctrl+t] sign in instead"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(" taskflow ") + "\n\n")
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n")
	b.WriteString(m.statusLine())
	b.WriteString(footerStyle.Render("[enter] submit  [tab] next field  " + switchHint + "  [esc] quit"))

	return formStyle.Render(b.String()) + "\n"
}

func (m Model) renderDashboard() string {
	projects := m.projects()

	var side strings.Builder
	for _, id := range view.Sidebar(projects) {
		label := view.Title(projects, id)
		if id == m.viewID {
			side.WriteString(selectedStyle.Render("▸ "+label) + "\n")
		} else {
			side.WriteString("  " + label + "\n")
		}
	}

	content := m.renderMain(projects)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(side.String()),
		mainStyle.Render(content),
	)

	footer := "[j/k] move  [space] done  [s] star  [d] delete  [a] add  [tab] view  [r] reload  [L] sign out  [q] quit"
	return headerStyle.Render(" taskflow ") + "\n\n" + body + "\n" + m.statusLine() + footerStyle.Render(footer) + "\n"
}

func (m Model) renderMain(projects []service.Project) string {
	var b strings.Builder

	if m.viewID == view.Settings {
		b.WriteString(titleStyle.Render(view.SettingsTitle) + "\n")
		if sess := m.gate.Session(); sess != nil {
			b.WriteString(dimStyle.Render("User ID: ") + sess.UserID + "\n")
			b.WriteString(dimStyle.Render("Email:   ") + sess.Email + "\n")
		}
		return b.String()
	}

	res := view.Select(m.store.Tasks(), projects, m.viewID)
	b.WriteString(titleStyle.Render(res.Title) + "\n")

	if m.adding {
		b.WriteString(m.quickAdd.View() + "\n\n")
	}

	if m.store.Loading() {
		b.WriteString(m.spinner.View() + " Loading...\n")
		return b.String()
	}
	if len(res.Tasks) == 0 {
		b.WriteString(dimStyle.Render(output.EmptyTasks) + "\n")
		return b.String()
	}

	byID := make(map[string]service.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	now := m.now()
	for i, task := range res.Tasks {
		b.WriteString(m.renderTask(task, byID, i == m.cursor, now) + "\n")
	}
	return b.String()
}

func (m Model) renderTask(task service.Task, projects map[string]service.Project, selected bool, now time.Time) string {
	cursor := "  "
	if selected {
		cursor = selectedStyle.Render("› ")
	}

	check := "[ ]"
	if task.IsCompleted() {
		check = "[x]"
	}

	title := strings.TrimSpace(task.Title)
	if title == "" {
		title = "(untitled)"
	}
	if task.Emoji != nil && *task.Emoji != "" {
		title = *task.Emoji + " " + title
	}
	if task.IsCompleted() {
		title = doneStyle.Render(title)
	} else if selected {
		title = selectedStyle.Render(title)
	}

	star := " "
	if task.IsStarred() {
		star = starStyle.Render("★")
	}

	var meta []string
	if task.Priority != nil {
		p := string(*task.Priority)
		if style, ok := priorityStyles[p]; ok {
			p = style.Render(p)
		}
		meta = append(meta, p)
	}
	if task.DueDate != nil {
		meta = append(meta, dimStyle.Render("due "+output.RelativeDue(*task.DueDate, now)))
	}
	if task.ProjectID != nil && m.viewID != view.ForProject(*task.ProjectID) {
		if p, ok := projects[*task.ProjectID]; ok {
			meta = append(meta, dimStyle.Render(output.ProjectLabel(p)))
		}
	}

	line := fmt.Sprintf("%s%s %s %s", cursor, check, star, title)
	if len(meta) > 0 {
		line += "  " + strings.Join(meta, dimStyle.Render(" · "))
	}
	return line
}

func (m Model) statusLine() string {
	switch {
	case m.busy:
		return "\n" + m.spinner.View() + " Working...\n"
	case m.err != nil:
		return "\n" + errorStyle.Render("error: "+m.err.Error()) + "\n"
	case m.notice != "":
		return "\n" + infoStyle.Render(m.notice) + "\n"
	default:
		return "\n"
	}
}
