package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

// DueLayout is the date format accepted by --due.
const DueLayout = "2006-01-02"

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	project     string
	priority    string
	due         string
	emoji       string
	description string
	star        bool
}

// SetProject sets the project name (for testing).
func (c *AddCmd) SetProject(name string) { c.project = name }

// SetPriority sets the priority (for testing).
func (c *AddCmd) SetPriority(p string) { c.priority = p }

// SetDue sets the due date (for testing).
func (c *AddCmd) SetDue(d string) { c.due = d }

// SetStar sets the star flag (for testing).
func (c *AddCmd) SetStar(star bool) { c.star = star }

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskflow add [--project <name>] [--priority low|medium|high] [--due YYYY-MM-DD] [--emoji <e>] [--desc <text>] [--star] <title...>"
}
func (c *AddCmd) Access() Access { return AccessSession }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.project, "project", "", "")
	fs.StringVar(&c.project, "p", "", "")
	fs.StringVar(&c.priority, "priority", string(service.DefaultPriority), "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.emoji, "emoji", service.DefaultTaskEmoji, "")
	fs.StringVar(&c.description, "desc", "", "")
	fs.BoolVar(&c.star, "star", false, "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	title := joinArgs(args)
	if title == "" {
		return userError(errOut, errors.New("title required"))
	}

	fields := service.TaskFields{
		Title:    title,
		Priority: service.Ptr(service.DefaultPriority),
		Emoji:    service.Ptr(firstNonBlank(c.emoji, service.DefaultTaskEmoji)),
	}

	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return userError(errOut, err)
		}
		fields.Priority = &p
	}

	if c.due != "" {
		due, err := parseDue(c.due)
		if err != nil {
			return userError(errOut, err)
		}
		fields.DueDate = &due
	}

	if d := strings.TrimSpace(c.description); d != "" {
		fields.Description = &d
	}

	if c.star {
		fields.Starred = service.Ptr(true)
	}

	if c.project != "" {
		p, err := ResolveProject(env.Store.Projects(), c.project)
		if err != nil {
			return userError(errOut, err)
		}
		fields.ProjectID = &p.ID
	}

	task, err := env.Store.CreateTask(ctx, fields)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s\n", shortID(task.ID))
	}
	return exitcode.Success
}

// parseDue parses a YYYY-MM-DD date as midnight UTC.
func parseDue(s string) (time.Time, error) {
	due, err := time.Parse(DueLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date: %s (want YYYY-MM-DD)", s)
	}
	return due, nil
}

// shortID returns the first 8 characters of an id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
