package commands

import (
	"context"
	"errors"
	"flag"
	"io"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/service"
)

func init() {
	Register(&EditProjectCmd{})
}

// EditProjectCmd implements the editproject command.
type EditProjectCmd struct {
	title       optString
	description optString
	emoji       optString
	color       optString
	done        bool
	reopen      bool
}

func (c *EditProjectCmd) Name() string      { return "editproject" }
func (c *EditProjectCmd) Aliases() []string { return nil }
func (c *EditProjectCmd) Synopsis() string  { return "Change a project" }
func (c *EditProjectCmd) Usage() string {
	return "taskflow editproject [--title <t>] [--desc <text>|none] [--emoji <e>|none] [--color #rrggbb] [--done|--reopen] <project>"
}
func (c *EditProjectCmd) Access() Access { return AccessSession }

func (c *EditProjectCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditProjectCmd{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "desc", "")
	fs.Var(&c.emoji, "emoji", "")
	fs.Var(&c.color, "color", "")
	fs.BoolVar(&c.done, "done", false, "")
	fs.BoolVar(&c.reopen, "reopen", false, "")
}

func (c *EditProjectCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	name := joinArgs(args)
	if name == "" {
		return userError(errOut, errors.New("project name required"))
	}

	project, err := ResolveProject(env.Store.Projects(), name)
	if err != nil {
		return userError(errOut, err)
	}

	patch, err := c.patch()
	if err != nil {
		return userError(errOut, err)
	}
	if patch.Empty() {
		return userError(errOut, errors.New("nothing to change"))
	}

	if _, err := env.Store.UpdateProject(ctx, project.ID, patch); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}

func (c *EditProjectCmd) patch() (service.ProjectPatch, error) {
	var patch service.ProjectPatch

	if c.done && c.reopen {
		return patch, errors.New("cannot use both --done and --reopen")
	}

	if c.title.set {
		title := strings.TrimSpace(c.title.value)
		if title == "" {
			return patch, errors.New("project title required")
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

	if c.emoji.set {
		if c.emoji.cleared() {
			patch.Emoji = service.Null[string]()
		} else {
			patch.Emoji = service.Set(strings.TrimSpace(c.emoji.value))
		}
	}

	if c.color.set {
		color, err := parseColor(c.color.value)
		if err != nil {
			return patch, err
		}
		patch.Color = service.Set(color)
	}

	switch {
	case c.done:
		patch.Completed = service.Set(true)
	case c.reopen:
		patch.Completed = service.Set(false)
	}

	return patch, nil
}
