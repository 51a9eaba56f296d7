package commands

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"taskflow/internal/service"
	"taskflow/internal/view"
)

// minIDPrefix is the shortest id prefix accepted as a task reference.
const minIDPrefix = 4

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based number in the selected view, 0 if ID is set
	ID  string // full id or id prefix, lowercase
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
//  1. All digits → number in the selected view
//  2. A UUID → exact task id
//  3. At least 4 hex digits or dashes → unique id prefix
//  4. Otherwise → error: invalid task reference: <ref>
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	ref := strings.TrimSpace(args[0])
	if ref == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", ref)
		}
		return TaskRef{Num: num}, nil
	}

	if id, err := uuid.Parse(ref); err == nil {
		return TaskRef{ID: id.String()}, nil
	}

	if len(ref) >= minIDPrefix && isIDPrefix(ref) {
		return TaskRef{ID: strings.ToLower(ref)}, nil
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", ref)
}

// Resolve finds the referenced task. Numbers index into shown (the tasks of
// the selected view, in display order); ids are looked up in all.
func (r TaskRef) Resolve(shown, all []service.Task) (service.Task, error) {
	if r.ID == "" {
		if r.Num < 1 || r.Num > len(shown) {
			return service.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
		}
		return shown[r.Num-1], nil
	}

	var matches []service.Task
	for _, task := range all {
		id := strings.ToLower(task.ID)
		if id == r.ID {
			return task, nil
		}
		if strings.HasPrefix(id, r.ID) {
			matches = append(matches, task)
		}
	}

	switch len(matches) {
	case 0:
		return service.Task{}, fmt.Errorf("task not found: %s", r.ID)
	case 1:
		return matches[0], nil
	default:
		return service.Task{}, fmt.Errorf("ambiguous task id: %s", r.ID)
	}
}

// ResolveProject finds a project by id or by case-insensitive title.
func ResolveProject(projects []service.Project, ref string) (service.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.Project{}, errors.New("project name required")
	}

	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
	}

	var matches []service.Project
	for _, p := range projects {
		if strings.EqualFold(strings.TrimSpace(p.Title), ref) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return service.Project{}, fmt.Errorf("project not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return service.Project{}, fmt.Errorf("ambiguous project name: %s", ref)
	}
}

// viewSelection holds the --view/--project flags shared by list and the
// commands that take a task number.
type viewSelection struct {
	view    string
	project string
}

func (v *viewSelection) register(fs *flag.FlagSet) {
	v.view, v.project = "", ""
	fs.StringVar(&v.view, "view", "", "")
	fs.StringVar(&v.project, "project", "", "")
	fs.StringVar(&v.project, "p", "", "")
}

// id returns the selected view id. All tasks is the default.
func (v viewSelection) id(projects []service.Project) (string, error) {
	if v.view != "" && v.project != "" {
		return "", errors.New("cannot use both --view and --project")
	}
	if v.project != "" {
		p, err := ResolveProject(projects, v.project)
		if err != nil {
			return "", err
		}
		return view.ForProject(p.ID), nil
	}
	if v.view == "" {
		return view.AllTasks, nil
	}
	return v.view, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isIDPrefix returns true if s could be the start of a UUID.
func isIDPrefix(s string) bool {
	for _, r := range s {
		if r != '-' && !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return false
		}
	}
	return true
}
