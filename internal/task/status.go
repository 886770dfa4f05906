package task

import (
	"time"

	"github.com/rs/zerolog"

	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/model"
)

// allowedTransitions is the canonical status transition table. Every
// status write goes through it; direct unchecked writes are not
// permitted anywhere.
var allowedTransitions = map[model.Status][]model.Status{
	model.StatusToDo:       {model.StatusInProgress},
	model.StatusInProgress: {model.StatusOnHold, model.StatusDone},
	model.StatusOnHold:     {model.StatusInProgress},
	model.StatusDone:       {model.StatusToDo, model.StatusReviewed}, // ToDo = reopen
	model.StatusReviewed:   {model.StatusVerified},
	model.StatusVerified:   {},
}

// CanTransition returns true if from -> to is an allowed edge.
func CanTransition(from, to model.Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusMachine validates and applies status transitions and appends
// history entries. Timer side effects and notification fanout are
// delegated to the service, not embedded here.
type StatusMachine struct {
	logger zerolog.Logger
}

// NewStatusMachine creates a status machine.
func NewStatusMachine(logger zerolog.Logger) *StatusMachine {
	return &StatusMachine{
		logger: logger.With().Str("component", "task.status").Logger(),
	}
}

// Transition applies newStatus to the task in memory, appending a
// status history entry. Fails with ErrInvalidTransition if the edge is
// not in the canonical table. The caller persists the task afterwards.
func (m *StatusMachine) Transition(t *model.Task, newStatus model.Status, actingUserID string) error {
	if !newStatus.Valid() {
		return terrors.ErrInvalidTransition
	}
	if !CanTransition(t.Status, newStatus) {
		m.logger.Debug().
			Str("task_id", t.ID).
			Str("from", string(t.Status)).
			Str("to", string(newStatus)).
			Msg("rejected status transition")
		return terrors.ErrInvalidTransition
	}

	t.StatusHistory = append(t.StatusHistory, model.StatusChange{
		From:      t.Status,
		To:        newStatus,
		UpdatedBy: actingUserID,
		Timestamp: time.Now().UnixMilli(),
	})
	t.Status = newStatus
	return nil
}
