package commands

import (
	"context"
	"flag"
	"io"

	"taskflow/internal/config"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	sel viewSelection
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskflow rm [--view <id>] [--project <name>] <ref>" }
func (c *RmCmd) Access() Access    { return AccessSession }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	c.sel.register(fs)
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, err := lookupTask(env.Store, c.sel, args)
	if err != nil {
		return userError(errOut, err)
	}

	if err := env.Store.DeleteTask(ctx, task.ID); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}
