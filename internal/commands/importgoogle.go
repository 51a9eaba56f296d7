package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/backend/googletasks"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/importer"
)

func init() {
	Register(&ImportGoogleCmd{})
}

// ImportGoogleCmd copies open Google Tasks into taskflow.
type ImportGoogleCmd struct {
	list         string
	intoProjects bool
}

// SetList sets the list name (for testing).
func (c *ImportGoogleCmd) SetList(name string) { c.list = name }

// SetIntoProjects sets the into-projects flag (for testing).
func (c *ImportGoogleCmd) SetIntoProjects(v bool) { c.intoProjects = v }

func (c *ImportGoogleCmd) Name() string      { return "import-google" }
func (c *ImportGoogleCmd) Aliases() []string { return nil }
func (c *ImportGoogleCmd) Synopsis() string  { return "Import open tasks from Google Tasks" }
func (c *ImportGoogleCmd) Usage() string {
	return "taskflow import-google [--list <list-name>] [--into-projects]"
}
func (c *ImportGoogleCmd) Access() Access { return AccessSession }

func (c *ImportGoogleCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.list, "list", "", "")
	fs.StringVar(&c.list, "l", "", "")
	fs.BoolVar(&c.intoProjects, "into-projects", false, "")
}

func (c *ImportGoogleCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if env.Google == nil {
		fmt.Fprintln(errOut, "error: google import is not available")
		return exitcode.BackendError
	}

	src, err := env.Google(ctx)
	if err != nil {
		return reportGoogleError(errOut, err)
	}

	res, err := importer.New(src, env.Store, cfg.ImportRate, env.Log).Run(ctx, importer.Options{
		List:         strings.TrimSpace(c.list),
		IntoProjects: c.intoProjects,
	})
	if err != nil {
		return reportGoogleError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "imported %d tasks from %d lists", res.Created, res.Lists)
		if res.ProjectsCreated > 0 {
			fmt.Fprintf(out, ", %d new projects", res.ProjectsCreated)
		}
		fmt.Fprintf(out, " (%d skipped, %d failed)\n", res.Skipped, res.Failed)
	}
	if res.Failed > 0 {
		return exitcode.BackendError
	}
	return exitcode.Success
}

func reportGoogleError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, googletasks.ErrNotLinked), errors.Is(err, googletasks.ErrTokenRevoked):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case strings.Contains(err.Error(), "list not found"), strings.Contains(err.Error(), "ambiguous list name"):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case strings.Contains(err.Error(), "oauth_client.json"):
		fmt.Fprintf(errOut, "error: %v (run: taskflow google-login)\n", err)
		return exitcode.AuthError
	default:
		return reportError(errOut, err)
	}
}
