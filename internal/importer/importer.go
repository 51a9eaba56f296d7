// Package importer copies open Google Tasks into the signed-in user's
// tasks through the state store.
package importer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"taskflow/internal/backend/googletasks"
	"taskflow/internal/service"
)

// DefaultRate is the default number of inserts per second.
const DefaultRate = 5.0

// Source is where tasks are imported from.
type Source interface {
	ListLists(ctx context.Context) ([]googletasks.List, error)
	ResolveList(ctx context.Context, name string) (googletasks.List, error)
	ListOpenTasks(ctx context.Context, listID string) ([]googletasks.Task, error)
}

// Sink receives the imported rows. *state.Store implements it.
type Sink interface {
	Projects() []service.Project
	CreateTask(ctx context.Context, fields service.TaskFields) (service.Task, error)
	CreateProject(ctx context.Context, fields service.ProjectFields) (service.Project, error)
}

// Options selects what is imported.
type Options struct {
	// List restricts the import to one list, by name. Empty means all lists.
	List string
	// IntoProjects files each list's tasks under a project of the same
	// title, creating the project when none exists.
	IntoProjects bool
}

// Result summarises an import.
type Result struct {
	Lists           int
	Created         int
	Skipped         int
	Failed          int
	ProjectsCreated int
}

// Importer paces inserts so a large import does not hammer the API.
type Importer struct {
	src     Source
	dst     Sink
	log     *zap.Logger
	limiter *rate.Limiter
}

// New creates an Importer inserting at most perSecond rows per second.
func New(src Source, dst Sink, perSecond float64, log *zap.Logger) *Importer {
	if perSecond <= 0 {
		perSecond = DefaultRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		src:     src,
		dst:     dst,
		log:     log.Named("import"),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Run imports open tasks. A failed insert is counted and the import goes
// on; failing to read from the source or a cancelled context stops it.
func (im *Importer) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result

	lists, err := im.lists(ctx, opts.List)
	if err != nil {
		return res, err
	}

	for _, list := range lists {
		items, err := im.src.ListOpenTasks(ctx, list.ID)
		if err != nil {
			return res, fmt.Errorf("read list %q: %w", list.Title, err)
		}
		res.Lists++

		var projectID *string
		if opts.IntoProjects && len(items) > 0 {
			id, created, err := im.project(ctx, list.Title)
			if err != nil {
				return res, err
			}
			if created {
				res.ProjectsCreated++
			}
			projectID = &id
		}

		for _, item := range items {
			if item.Title == "" {
				res.Skipped++
				continue
			}
			if err := im.limiter.Wait(ctx); err != nil {
				return res, err
			}
			if _, err := im.dst.CreateTask(ctx, fields(item, projectID)); err != nil {
				im.log.Warn("error importing task", zap.String("google_id", item.ID), zap.Error(err))
				res.Failed++
				continue
			}
			res.Created++
		}
	}

	im.log.Info("import finished",
		zap.Int("lists", res.Lists),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (im *Importer) lists(ctx context.Context, name string) ([]googletasks.List, error) {
	if name == "" {
		return im.src.ListLists(ctx)
	}
	list, err := im.src.ResolveList(ctx, name)
	if err != nil {
		return nil, err
	}
	return []googletasks.List{list}, nil
}

// project returns the id of the project titled title, creating it if needed.
func (im *Importer) project(ctx context.Context, title string) (string, bool, error) {
	for _, p := range im.dst.Projects() {
		if strings.EqualFold(strings.TrimSpace(p.Title), strings.TrimSpace(title)) {
			return p.ID, false, nil
		}
	}
	if err := im.limiter.Wait(ctx); err != nil {
		return "", false, err
	}
	p, err := im.dst.CreateProject(ctx, service.ProjectFields{
		Title: title,
		Emoji: service.Ptr(service.DefaultProjectEmoji),
		Color: service.Ptr(service.DefaultColor),
	})
	if err != nil {
		return "", false, fmt.Errorf("create project %q: %w", title, err)
	}
	return p.ID, true, nil
}

func fields(item googletasks.Task, projectID *string) service.TaskFields {
	f := service.TaskFields{
		Title:     item.Title,
		Priority:  service.Ptr(service.DefaultPriority),
		Emoji:     service.Ptr(service.DefaultTaskEmoji),
		DueDate:   item.Due,
		ProjectID: projectID,
	}
	if item.Notes != "" {
		f.Description = service.Ptr(item.Notes)
	}
	return f
}
