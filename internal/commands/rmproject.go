package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&RmProjectCmd{})
}

// RmProjectCmd implements the rmproject command.
type RmProjectCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *RmProjectCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmProjectCmd) Name() string      { return "rmproject" }
func (c *RmProjectCmd) Aliases() []string { return nil }
func (c *RmProjectCmd) Synopsis() string  { return "Delete a project" }
func (c *RmProjectCmd) Usage() string     { return "taskflow rmproject [--force] <project>" }
func (c *RmProjectCmd) Access() Access    { return AccessSession }

func (c *RmProjectCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *RmProjectCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	name := joinArgs(args)
	if name == "" {
		return userError(errOut, errors.New("project name required"))
	}

	project, err := ResolveProject(env.Store.Projects(), name)
	if err != nil {
		return userError(errOut, err)
	}

	var attached []service.Task
	for _, t := range env.Store.Tasks() {
		if t.InProject(project.ID) {
			attached = append(attached, t)
		}
	}

	// Tasks keep living without a project once it is gone.
	if len(attached) > 0 {
		if !c.force {
			fmt.Fprintf(errOut, "error: project has %d tasks (use --force)\n", len(attached))
			return exitcode.UserError
		}
		for _, t := range attached {
			if _, err := env.Store.UpdateTask(ctx, t.ID, service.TaskPatch{ProjectID: service.Null[string]()}); err != nil {
				return reportError(errOut, err)
			}
		}
	}

	if err := env.Store.DeleteProject(ctx, project.ID); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}
