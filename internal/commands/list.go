package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/output"
	"taskflow/internal/service"
	"taskflow/internal/view"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskflow` (no args) and `taskflow list --view <id>`.
type ListCmd struct {
	sel viewSelection
}

// SetView sets the view id (for testing).
func (c *ListCmd) SetView(id string) {
	c.sel.view = id
}

// SetProject sets the project name (for testing).
func (c *ListCmd) SetProject(name string) {
	c.sel.project = name
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks in a view" }
func (c *ListCmd) Usage() string {
	return "taskflow list [--view <id>] [--project <name>]"
}
func (c *ListCmd) Access() Access { return AccessSession }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	c.sel.register(fs)
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, fmt.Errorf("unexpected argument: %s", args[0]))
	}

	projects := env.Store.Projects()
	id, err := c.sel.id(projects)
	if err != nil {
		return userError(errOut, err)
	}

	res := view.Select(env.Store.Tasks(), projects, id)
	output.FormatViewHeader(out, res.Title)

	if id == view.Settings {
		output.FormatAccount(out, *env.Session)
		return exitcode.Success
	}

	if len(res.Tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, output.EmptyTasks)
		}
		return exitcode.Success
	}

	byID := make(map[string]*service.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}

	now := env.now()
	for i, task := range res.Tasks {
		var project *service.Project
		if task.ProjectID != nil {
			project = byID[*task.ProjectID]
		}
		output.FormatTask(out, i+1, task, project, now)
	}
	return exitcode.Success
}
