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
)

func init() {
	Register(&ProjectsCmd{})
}

// ProjectsCmd implements the projects command.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Name() string      { return "projects" }
func (c *ProjectsCmd) Aliases() []string { return nil }
func (c *ProjectsCmd) Synopsis() string  { return "List projects" }
func (c *ProjectsCmd) Usage() string     { return "taskflow projects" }
func (c *ProjectsCmd) Access() Access    { return AccessSession }

func (c *ProjectsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectsCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	projects := env.Store.Projects()
	if len(projects) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, output.EmptyProjects)
		}
		return exitcode.Success
	}

	tasks := env.Store.Tasks()
	for i, p := range projects {
		open, total := countTasks(tasks, p.ID)
		output.FormatProject(out, i+1, p, open, total)
	}
	return exitcode.Success
}

// countTasks returns the number of open and all tasks in a project.
func countTasks(tasks []service.Task, projectID string) (open, total int) {
	for _, t := range tasks {
		if !t.InProject(projectID) {
			continue
		}
		total++
		if !t.IsCompleted() {
			open++
		}
	}
	return open, total
}
