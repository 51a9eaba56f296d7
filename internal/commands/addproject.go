package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"regexp"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func init() {
	Register(&AddProjectCmd{})
}

// AddProjectCmd implements the addproject command.
type AddProjectCmd struct {
	emoji       string
	color       string
	description string
}

// SetColor sets the color (for testing).
func (c *AddProjectCmd) SetColor(color string) { c.color = color }

func (c *AddProjectCmd) Name() string      { return "addproject" }
func (c *AddProjectCmd) Aliases() []string { return []string{"createproject"} }
func (c *AddProjectCmd) Synopsis() string  { return "Create a project" }
func (c *AddProjectCmd) Usage() string {
	return "taskflow addproject [--emoji <e>] [--color #rrggbb] [--desc <text>] <title...>"
}
func (c *AddProjectCmd) Access() Access { return AccessSession }

func (c *AddProjectCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.emoji, "emoji", service.DefaultProjectEmoji, "")
	fs.StringVar(&c.color, "color", service.DefaultColor, "")
	fs.StringVar(&c.description, "desc", "", "")
}

func (c *AddProjectCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	title := joinArgs(args)
	if title == "" {
		return userError(errOut, errors.New("project title required"))
	}

	color, err := parseColor(firstNonBlank(c.color, service.DefaultColor))
	if err != nil {
		return userError(errOut, err)
	}

	fields := service.ProjectFields{
		Title: title,
		Emoji: service.Ptr(firstNonBlank(c.emoji, service.DefaultProjectEmoji)),
		Color: &color,
	}
	if d := strings.TrimSpace(c.description); d != "" {
		fields.Description = &d
	}

	p, err := env.Store.CreateProject(ctx, fields)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s\n", shortID(p.ID))
	}
	return exitcode.Success
}

// parseColor validates a #rrggbb color and lowercases it.
func parseColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !hexColor.MatchString(s) {
		return "", fmt.Errorf("invalid color: %s (want #rrggbb, e.g. %s)", s, strings.Join(service.Palette[:3], ", "))
	}
	return strings.ToLower(s), nil
}
