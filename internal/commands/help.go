package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskflow help" }
func (c *HelpCmd) Access() Access    { return AccessNone }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskflow                                           List all tasks
  taskflow list [common flags] [--view <id>] [--project <name>]
  taskflow add [common flags] [--project <name>] [--priority low|medium|high]
               [--due YYYY-MM-DD] [--emoji <e>] [--desc <text>] [--star] <title...>
  taskflow create ...                                Alias for add
  taskflow edit [common flags] [--title <t>] [--desc <text>|none] [--priority <p>|none]
                [--due YYYY-MM-DD|none] [--emoji <e>|none] [--project <name>|none] <ref>
  taskflow done|undone [common flags] <ref>
  taskflow star|unstar [common flags] <ref>
  taskflow rm [common flags] <ref>
  taskflow projects [common flags]
  taskflow addproject [common flags] [--emoji <e>] [--color #rrggbb] [--desc <text>] <title...>
  taskflow createproject ...                         Alias for addproject
  taskflow editproject [common flags] [--title <t>] [--desc <text>|none] [--emoji <e>|none]
                       [--color #rrggbb] [--done|--reopen] <project>
  taskflow rmproject [common flags] [--force] <project>
  taskflow login [common flags] [--email <email>] [--password <password>]
  taskflow signup [common flags] [--email <email>] [--password <password>]
  taskflow logout [common flags]
  taskflow whoami [common flags]
  taskflow tui [common flags]
  taskflow google-login [common flags]
  taskflow import-google [common flags] [--list <list-name>] [--into-projects]
  taskflow help
  taskflow version [--verbose]

Views (--view):
  important, all-tasks, settings, project-<id>

Task references (<ref>):
  <n>        Number shown by list for the same --view/--project
  <id>       Full task id, or a unique prefix of at least 4 characters

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
