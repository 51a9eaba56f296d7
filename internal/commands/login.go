package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
}

// credentials holds the --email/--password flags of login and signup.
// Missing values are prompted for on errOut and read from env.In.
type credentials struct {
	email    string
	password string
}

func (c *credentials) register(fs *flag.FlagSet) {
	c.email, c.password = "", ""
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c credentials) read(in io.Reader, errOut io.Writer) (email, password string, err error) {
	if in == nil {
		in = os.Stdin
	}
	r := bufio.NewReader(in)

	email = strings.TrimSpace(c.email)
	if email == "" {
		if email, err = prompt(r, errOut, "Email: "); err != nil {
			return "", "", err
		}
	}
	if email == "" {
		return "", "", errors.New("email required")
	}

	password = c.password
	if password == "" {
		if password, err = prompt(r, errOut, "Password: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		return "", "", errors.New("password required")
	}
	return email, password, nil
}

// LoginCmd implements the login command.
type LoginCmd struct {
	creds credentials
}

// SetCredentials sets email and password (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.creds = credentials{email: email, password: password}
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string     { return "taskflow login [--email <email>] [--password <password>]" }
func (c *LoginCmd) Access() Access    { return AccessBackend }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	c.creds.register(fs)
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	// Check if already logged in (session exists and is valid)
	if c.creds.email == "" {
		if sess, err := env.Auth.CurrentSession(ctx); err == nil && sess != nil {
			if !cfg.Quiet {
				fmt.Fprintf(out, "already logged in as %s\n", sess.Email)
			}
			return exitcode.Success
		}
	}

	email, password, err := c.creds.read(env.In, errOut)
	if err != nil {
		return userError(errOut, err)
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	sess, err := env.Auth.SignIn(ctx, email, password)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", sess.Email)
	}
	return exitcode.Success
}
