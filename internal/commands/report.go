package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/state"
	"taskflow/internal/view"
)

// reportError prints err to errOut and returns its exit code.
// Platform failures get the "backend error" prefix.
func reportError(errOut io.Writer, err error) int {
	code := exitcode.ForError(err)
	if code == exitcode.BackendError {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return code
}

// userError prints a usage problem and returns exitcode.UserError.
func userError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	return exitcode.UserError
}

// ok prints the success marker unless quiet.
func ok(out io.Writer, quiet bool) int {
	if !quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// lookupTask resolves the task reference in args against the view chosen by sel.
func lookupTask(store *state.Store, sel viewSelection, args []string) (service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, err
	}

	tasks := store.Tasks()
	if ref.ID != "" {
		return ref.Resolve(nil, tasks)
	}

	projects := store.Projects()
	id, err := sel.id(projects)
	if err != nil {
		return service.Task{}, err
	}
	return ref.Resolve(view.Filter(tasks, id), tasks)
}

// joinArgs joins positional args into one trimmed string.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// prompt writes label to errOut and reads one line from in.
func prompt(in *bufio.Reader, errOut io.Writer, label string) (string, error) {
	fmt.Fprint(errOut, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}
