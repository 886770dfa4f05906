package task

import (
	"context"

	"github.com/taskline/taskline/internal/model"
)

// EventKind identifies a task lifecycle event emitted after a
// successful state write.
type EventKind string

const (
	EventStatusChanged EventKind = "status_changed"
	EventReviewed      EventKind = "reviewed"
	EventAssigned      EventKind = "assigned"
)

// Event describes a committed task mutation for post-commit hooks.
type Event struct {
	Kind       EventKind
	ProjectID  string
	Task       *model.Task
	OldStatus  model.Status
	NewStatus  model.Status
	ActorID    string
	AssigneeID string // set for EventAssigned
}

// Hook is a post-commit observer. Hooks run only after the
// authoritative state write succeeds; a hook failure is logged and
// never rolls back or taints the committed operation.
type Hook interface {
	Name() string
	OnEvent(ctx context.Context, ev Event) error
}
