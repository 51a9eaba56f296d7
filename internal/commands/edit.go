package commands

import (
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/service"
)

// clearValue clears an optional field when passed to an edit flag.
const clearValue = "none"

func init() {
	Register(&EditCmd{})
}

// optString is a string flag that remembers whether it was given.
type optString struct {
	set   bool
	value string
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.set, o.value = true, s
	return nil
}

// cleared reports whether the flag asks for the field to be emptied.
func (o *optString) cleared() bool {
	v := strings.TrimSpace(o.value)
	return v == "" || strings.EqualFold(v, clearValue)
}

// EditCmd implements the edit command.
type EditCmd struct {
	sel         viewSelection
	title       optString
	description optString
	priority    optString
	due         optString
	emoji       optString
	project     optString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "taskflow edit [--view <id>] [--title <t>] [--desc <text>|none] [--priority <p>|none] [--due YYYY-MM-DD|none] [--emoji <e>|none] [--project <name>|none] <ref>"
}
func (c *EditCmd) Access() Access { return AccessSession }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.StringVar(&c.sel.view, "view", "", "")
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "desc", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.emoji, "emoji", "")
	fs.Var(&c.project, "project", "")
	fs.Var(&c.project, "p", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, err := lookupTask(env.Store, c.sel, args)
	if err != nil {
		return userError(errOut, err)
	}

	patch, err := c.patch(env.Store.Projects())
	if err != nil {
		return userError(errOut, err)
	}
	if patch.Empty() {
		return userError(errOut, errors.New("nothing to change"))
	}

	if _, err := env.Store.UpdateTask(ctx, task.ID, patch); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}

func (c *EditCmd) patch(projects []service.Project) (service.TaskPatch, error) {
	var patch service.TaskPatch

	if c.title.set {
		title := strings.TrimSpace(c.title.value)
		if title == "" {
			return patch, errors.New("title required")
		}
		patch.Title = service.Set(title)
	}

	if c.description.set {
		if c.description.cleared() {
			patch.Description = service.Null[string]()
		} else {
			patch.Description = service.Set(strings.TrimSpace(c.description.value))
		}
	}

	if c.priority.set {
		if c.priority.cleared() {
			patch.Priority = service.Null[service.Priority]()
		} else {
			p, err := service.ParsePriority(c.priority.value)
			if err != nil {
				return patch, err
			}
			patch.Priority = service.Set(p)
		}
	}

	if c.due.set {
		if c.due.cleared() {
			patch.DueDate = service.Null[time.Time]()
		} else {
			due, err := parseDue(c.due.value)
			if err != nil {
				return patch, err
			}
			patch.DueDate = service.Set(due)
		}
	}

	if c.emoji.set {
		if c.emoji.cleared() {
			patch.Emoji = service.Null[string]()
		} else {
			patch.Emoji = service.Set(strings.TrimSpace(c.emoji.value))
		}
	}

	if c.project.set {
		if c.project.cleared() {
			patch.ProjectID = service.Null[string]()
		} else {
			p, err := ResolveProject(projects, c.project.value)
			if err != nil {
				return patch, err
			}
			patch.ProjectID = service.Set(p.ID)
		}
	}

	return patch, nil
}
