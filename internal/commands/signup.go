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
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	creds credentials
}

// SetCredentials sets email and password (for testing).
func (c *SignupCmd) SetCredentials(email, password string) {
	c.creds = credentials{email: email, password: password}
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string     { return "taskflow signup [--email <email>] [--password <password>]" }
func (c *SignupCmd) Access() Access    { return AccessBackend }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	c.creds.register(fs)
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	email, password, err := c.creds.read(env.In, errOut)
	if err != nil {
		return userError(errOut, err)
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	sess, err := env.Auth.SignUp(ctx, email, password)
	if errors.Is(err, service.ErrConfirmationPending) {
		// The account exists; there is just no session yet.
		fmt.Fprintln(out, err)
		return exitcode.Success
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", sess.Email)
	}
	return exitcode.Success
}
