// Package view derives the displayed task list and title from the current
// collections and the selected view id. Everything here is pure.
package view

import (
	"strings"

	"taskflow/internal/service"
)

// Built-in view ids.
const (
	Important = "important"
	AllTasks  = "all-tasks"
	Settings  = "settings"

	// ProjectPrefix prefixes project view ids: "project-<projectID>".
	ProjectPrefix = "project-"
)

// Titles shown for each view.
const (
	ImportantTitle       = "Important Tasks"
	AllTasksTitle        = "All Tasks"
	SettingsTitle        = "Settings"
	ProjectFallbackTitle = "Project"
	FallbackTitle        = "Tasks"
)

// Result is the derived view.
type Result struct {
	Tasks []service.Task
	Title string
}

// Select filters tasks for the view id and resolves its title.
// Filtering and title resolution are independent: a project view whose
// project is unknown still filters by the id.
func Select(tasks []service.Task, projects []service.Project, id string) Result {
	return Result{
		Tasks: Filter(tasks, id),
		Title: Title(projects, id),
	}
}

// Filter returns the tasks shown by the view id.
// Unfiltered views return the input slice as is.
func Filter(tasks []service.Task, id string) []service.Task {
	switch id {
	case Important:
		return keep(tasks, service.Task.IsStarred)
	case AllTasks:
		return tasks
	}
	if projectID, ok := ProjectIDOf(id); ok {
		return keep(tasks, func(t service.Task) bool { return t.InProject(projectID) })
	}
	return tasks
}

// Title returns the heading for the view id.
func Title(projects []service.Project, id string) string {
	switch id {
	case Important:
		return ImportantTitle
	case AllTasks:
		return AllTasksTitle
	case Settings:
		return SettingsTitle
	}
	if projectID, ok := ProjectIDOf(id); ok {
		for _, p := range projects {
			if p.ID == projectID {
				if p.Emoji == nil || *p.Emoji == "" {
					return p.Title
				}
				return *p.Emoji + " " + p.Title
			}
		}
		return ProjectFallbackTitle
	}
	return FallbackTitle
}

// ForProject returns the view id of a project.
func ForProject(projectID string) string {
	return ProjectPrefix + projectID
}

// ProjectIDOf extracts the project id from a project view id.
func ProjectIDOf(id string) (string, bool) {
	if !strings.HasPrefix(id, ProjectPrefix) {
		return "", false
	}
	return strings.TrimPrefix(id, ProjectPrefix), true
}

// Sidebar returns the navigable view ids in display order.
func Sidebar(projects []service.Project) []string {
	ids := make([]string, 0, len(projects)+3)
	ids = append(ids, Important, AllTasks)
	for _, p := range projects {
		ids = append(ids, ForProject(p.ID))
	}
	return append(ids, Settings)
}

func keep(tasks []service.Task, pred func(service.Task) bool) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
