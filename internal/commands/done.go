package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/service"
)

func init() {
	Register(NewDoneCmd())
	Register(NewUndoneCmd())
	Register(NewStarCmd())
	Register(NewUnstarCmd())
}

// MarkCmd sets one boolean field of a task: completed or starred.
type MarkCmd struct {
	name     string
	synopsis string
	patch    service.TaskPatch
	sel      viewSelection
}

// NewDoneCmd returns the done command.
func NewDoneCmd() *MarkCmd {
	return &MarkCmd{name: "done", synopsis: "Mark a task completed", patch: service.TaskPatch{Completed: service.Set(true)}}
}

// NewUndoneCmd returns the undone command.
func NewUndoneCmd() *MarkCmd {
	return &MarkCmd{name: "undone", synopsis: "Mark a task not completed", patch: service.TaskPatch{Completed: service.Set(false)}}
}

// NewStarCmd returns the star command.
func NewStarCmd() *MarkCmd {
	return &MarkCmd{name: "star", synopsis: "Mark a task important", patch: service.TaskPatch{Starred: service.Set(true)}}
}

// NewUnstarCmd returns the unstar command.
func NewUnstarCmd() *MarkCmd {
	return &MarkCmd{name: "unstar", synopsis: "Remove the important mark", patch: service.TaskPatch{Starred: service.Set(false)}}
}

// SetView sets the view the task number refers to (for testing).
func (c *MarkCmd) SetView(id string) {
	c.sel.view = id
}

func (c *MarkCmd) Name() string      { return c.name }
func (c *MarkCmd) Aliases() []string { return nil }
func (c *MarkCmd) Synopsis() string  { return c.synopsis }
func (c *MarkCmd) Usage() string {
	return fmt.Sprintf("taskflow %s [--view <id>] [--project <name>] <ref>", c.name)
}
func (c *MarkCmd) Access() Access { return AccessSession }

func (c *MarkCmd) RegisterFlags(fs *flag.FlagSet) {
	c.sel.register(fs)
}

func (c *MarkCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, err := lookupTask(env.Store, c.sel, args)
	if err != nil {
		return userError(errOut, err)
	}

	if _, err := env.Store.UpdateTask(ctx, task.ID, c.patch); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}
