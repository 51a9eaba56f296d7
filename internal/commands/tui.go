package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/tui"
)

func init() {
	Register(&TuiCmd{})
}

// TuiCmd opens the interactive dashboard.
type TuiCmd struct{}

func (c *TuiCmd) Name() string      { return "tui" }
func (c *TuiCmd) Aliases() []string { return []string{"ui"} }
func (c *TuiCmd) Synopsis() string  { return "Open the interactive dashboard" }
func (c *TuiCmd) Usage() string     { return "taskflow tui [common flags]" }
func (c *TuiCmd) Access() Access    { return AccessBackend }

func (c *TuiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TuiCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	in := env.In
	if in == nil {
		in = os.Stdin
	}

	err := tui.Run(ctx, tui.Options{
		Gate: env.Gate,
		Auth: env.Auth,
		Log:  env.Log,
		Now:  env.Now,
	}, in, out)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
