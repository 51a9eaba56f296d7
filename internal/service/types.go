// Package service defines the backend-agnostic types and interfaces for tasks and projects.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority parses a priority name (case-insensitive, trimmed).
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority: %s (want low, medium or high)", s)
	}
}

// Form defaults used when creating tasks and projects.
const (
	DefaultPriority     = PriorityMedium
	DefaultTaskEmoji    = "📝"
	DefaultProjectEmoji = "📁"
	DefaultColor        = "#3b82f6"
)

// Palette is the fixed set of project colors offered by the project form.
// Colors outside the palette are stored as free text.
var Palette = []string{
	"#3b82f6", "#ef4444", "#10b981", "#f59e0b",
	"#8b5cf6", "#ec4899", "#06b6d4", "#84cc16",
}

// Task represents a single task row.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	Priority    *Priority  `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Starred     *bool      `json:"starred"`
	Emoji       *string    `json:"emoji"`
	ProjectID   *string    `json:"project_id"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// IsCompleted reports whether the task is completed. Absent means false.
func (t Task) IsCompleted() bool { return t.Completed != nil && *t.Completed }

// IsStarred reports whether the task is starred. Absent means false.
func (t Task) IsStarred() bool { return t.Starred != nil && *t.Starred }

// InProject reports whether the task references the given project.
func (t Task) InProject(projectID string) bool {
	return t.ProjectID != nil && *t.ProjectID == projectID
}

// Project represents a grouping container for tasks.
type Project struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Emoji       *string    `json:"emoji"`
	Color       *string    `json:"color"`
	Completed   *bool      `json:"completed"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// IsCompleted reports whether the project is completed. Absent means false.
func (p Project) IsCompleted() bool { return p.Completed != nil && *p.Completed }

// TaskFields are the caller-supplied fields of a new task.
type TaskFields struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Starred     *bool      `json:"starred,omitempty"`
	Emoji       *string    `json:"emoji,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
}

// NewTask is the insert payload: caller fields plus the owning user.
// Only the state layer builds it.
type NewTask struct {
	UserID string `json:"user_id"`
	TaskFields
}

// ProjectFields are the caller-supplied fields of a new project.
type ProjectFields struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Emoji       *string `json:"emoji,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// NewProject is the insert payload for projects.
type NewProject struct {
	UserID string `json:"user_id"`
	ProjectFields
}

// Session is an authenticated user session.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// AuthEventKind classifies a session change.
type AuthEventKind int

const (
	SignedIn AuthEventKind = iota + 1
	SignedOut
	TokenRefreshed
)

func (k AuthEventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	case TokenRefreshed:
		return "token_refreshed"
	default:
		return "unknown"
	}
}

// AuthEvent is delivered to subscribers whenever the session changes.
// Session is nil for SignedOut.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *Session
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
