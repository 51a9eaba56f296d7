// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"taskflow/internal/service"
)

const (
	// ListSeparator is the separator line around view headers.
	ListSeparator = "------------"

	// EmptyTasks is shown when a view has no tasks.
	EmptyTasks = "No tasks yet. Create your first task!"

	// EmptyProjects is shown when the user has no projects.
	EmptyProjects = "No projects yet."
)

// FormatViewHeader formats the title of the selected view.
func FormatViewHeader(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, ListSeparator)
}

// FormatTask formats a task line.
// Format: "{N:>4}  [x] * {EMOJI} {TITLE}  ({PRIORITY}, due {WHEN}, {PROJECT})\n"
// followed by the description, indented, when there is one.
// project may be nil.
func FormatTask(w io.Writer, num int, task service.Task, project *service.Project, now time.Time) {
	check := "[ ]"
	if task.IsCompleted() {
		check = "[x]"
	}
	star := " "
	if task.IsStarred() {
		star = "*"
	}

	title := normalizeTitle(task.Title)
	if task.Emoji != nil && *task.Emoji != "" {
		title = *task.Emoji + " " + title
	}

	var meta []string
	if task.Priority != nil {
		meta = append(meta, string(*task.Priority))
	}
	if task.DueDate != nil {
		meta = append(meta, "due "+RelativeDue(*task.DueDate, now))
	}
	if project != nil {
		meta = append(meta, ProjectLabel(*project))
	}

	line := fmt.Sprintf("%4d  %s %s %s", num, check, star, title)
	if len(meta) > 0 {
		line += "  (" + strings.Join(meta, ", ") + ")"
	}
	fmt.Fprintln(w, line)

	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		fmt.Fprintf(w, "            %s\n", flatten(*task.Description))
	}
}

// FormatProject formats a project line with its task counts.
// Format: "{N:>4}  {EMOJI} {TITLE}  {COLOR}  {OPEN}/{TOTAL} open[ (done)]\n"
func FormatProject(w io.Writer, num int, project service.Project, open, total int) {
	line := fmt.Sprintf("%4d  %s", num, ProjectLabel(project))
	if project.Color != nil && *project.Color != "" {
		line += "  " + *project.Color
	}
	line += fmt.Sprintf("  %d/%d open", open, total)
	if project.IsCompleted() {
		line += " (done)"
	}
	fmt.Fprintln(w, line)
}

// FormatAccount formats the account information of the settings view.
func FormatAccount(w io.Writer, sess service.Session) {
	fmt.Fprintf(w, "User ID: %s\n", sess.UserID)
	fmt.Fprintf(w, "Email:   %s\n", sess.Email)
}

// ProjectLabel returns "{EMOJI} {TITLE}", or just the title without emoji.
func ProjectLabel(p service.Project) string {
	title := normalizeTitle(p.Title)
	if p.Emoji == nil || *p.Emoji == "" {
		return title
	}
	return *p.Emoji + " " + title
}

// RelativeDue describes a due date relative to now: "Today", "Tomorrow",
// "Yesterday", "N days" or "N days ago". Partial days round up.
func RelativeDue(due, now time.Time) string {
	days := int(math.Ceil(due.Sub(now).Hours() / 24))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = flatten(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
