// Package task implements the task lifecycle core: dual-shape record
// resolution, the status machine, the timer engine, the review
// workflow, and the service tying them together.
package task

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/store"
)

// Location tags which physical storage shape holds a task's
// authoritative record. Resolved fresh at the start of every operation;
// never persisted.
type Location int

const (
	// LocationStandalone is a per-task document row.
	LocationStandalone Location = iota
	// LocationEmbedded is an element of the parent project's tasks array.
	LocationEmbedded
)

func (l Location) String() string {
	if l == LocationEmbedded {
		return "embedded"
	}
	return "standalone"
}

// Resolver locates a task's durable representation and exposes a
// uniform read/patch interface over whichever shape is found. The
// indirection exists because the system evolved two physical layouts
// for tasks; business logic above stays layout-agnostic.
type Resolver struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewResolver creates a resolver over the given store.
func NewResolver(s *store.Store, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:  s,
		logger: logger.With().Str("component", "task.resolver").Logger(),
	}
}

// Resolve locates a task by trying the standalone document row first,
// then falling back to a linear scan of the parent project's embedded
// task array. A task present in both shapes is a storage conflict and
// is surfaced rather than silently picked.
func (r *Resolver) Resolve(ctx context.Context, projectID, taskID string) (Location, *model.Task, error) {
	standalone, err := r.store.GetTaskDoc(projectID, taskID)
	if err != nil {
		return LocationStandalone, nil, err
	}

	embedded, hasArray, err := r.store.GetEmbeddedTasks(projectID)
	if err != nil {
		return LocationStandalone, nil, err
	}

	var embeddedMatch *model.Task
	if hasArray {
		for i := range embedded {
			if embedded[i].ID == taskID {
				embeddedMatch = &embedded[i]
				break
			}
		}
	}

	if standalone != nil && embeddedMatch != nil {
		r.logger.Error().
			Str("project_id", projectID).
			Str("task_id", taskID).
			Msg("task found in both storage shapes")
		return LocationStandalone, nil, terrors.ErrStorageConflict
	}

	if standalone != nil {
		return LocationStandalone, standalone, nil
	}
	if embeddedMatch != nil {
		return LocationEmbedded, embeddedMatch, nil
	}

	// Neither shape matched; distinguish a missing project from a
	// missing task.
	project, err := r.store.GetProject(projectID)
	if err != nil {
		return LocationStandalone, nil, err
	}
	if project == nil {
		return LocationStandalone, nil, terrors.ErrProjectNotFound
	}
	return LocationStandalone, nil, terrors.ErrNotFound
}

// Patch writes the task back to the location it was resolved from.
// Standalone records are replaced as a single document row. Embedded
// records require reconstructing the parent's entire array with the
// modified element and writing the whole array back; there is no
// isolation between concurrent read-modify-write cycles on that path
// (last writer wins).
func (r *Resolver) Patch(ctx context.Context, loc Location, projectID string, t *model.Task) (*model.Task, error) {
	t.UpdatedAt = time.Now().UnixMilli()

	switch loc {
	case LocationEmbedded:
		tasks, hasArray, err := r.store.GetEmbeddedTasks(projectID)
		if err != nil {
			return nil, err
		}
		if !hasArray {
			return nil, terrors.ErrNotFound
		}
		found := false
		for i := range tasks {
			if tasks[i].ID == t.ID {
				tasks[i] = *t
				found = true
				break
			}
		}
		if !found {
			return nil, terrors.ErrNotFound
		}
		if err := r.store.PutEmbeddedTasks(projectID, tasks); err != nil {
			return nil, err
		}
	default:
		if err := r.store.PutTaskDoc(projectID, t); err != nil {
			return nil, err
		}
	}

	return t, nil
}
