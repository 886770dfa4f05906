package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/model"
)

// TimerEngine starts and stops per-task active timers, accumulates
// total time spent, and records time entries. All mutations are
// in-memory; the service persists the task afterwards.
type TimerEngine struct {
	logger zerolog.Logger
}

// NewTimerEngine creates a timer engine.
func NewTimerEngine(logger zerolog.Logger) *TimerEngine {
	return &TimerEngine{
		logger: logger.With().Str("component", "task.timer").Logger(),
	}
}

// Start begins an active timer for userID. Fails with ErrTimerRunning
// if a timer is already running. The check is check-then-act: two
// callers racing before the first write lands can both pass it.
func (e *TimerEngine) Start(t *model.Task, userID string) error {
	if t.TimerRunning() {
		return terrors.ErrTimerRunning
	}
	t.ActiveTimer = &model.ActiveTimer{
		UserID:    userID,
		StartTime: time.Now().UnixMilli(),
		IsRunning: true,
	}
	return nil
}

// Stop closes the active timer, records a time entry, and adds the
// elapsed duration to the stored total. Fails with ErrNoActiveTimer if
// nothing is running.
func (e *TimerEngine) Stop(t *model.Task, userID string) (*model.TimeEntry, error) {
	if !t.TimerRunning() {
		return nil, terrors.ErrNoActiveTimer
	}

	now := time.Now().UnixMilli()
	duration := now - t.ActiveTimer.StartTime
	if duration < 0 {
		duration = 0
	}

	entry := model.TimeEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		StartTime: t.ActiveTimer.StartTime,
		EndTime:   now,
		Duration:  duration,
		Manual:    false,
	}
	t.TimeEntries = append(t.TimeEntries, entry)
	t.TotalTimeSpent += duration
	t.ActiveTimer.IsRunning = false

	return &entry, nil
}

// AddManual records a retroactive time entry of durationMs ending now.
// Does not touch the active timer or the task status.
func (e *TimerEngine) AddManual(t *model.Task, userID string, durationMs int64) (*model.TimeEntry, error) {
	if durationMs <= 0 {
		return nil, terrors.ErrInvalidDuration
	}

	now := time.Now().UnixMilli()
	entry := model.TimeEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		StartTime: now - durationMs,
		EndTime:   now,
		Duration:  durationMs,
		Manual:    true,
	}
	t.TimeEntries = append(t.TimeEntries, entry)
	t.TotalTimeSpent += durationMs

	return &entry, nil
}

// FormatDuration renders a millisecond duration as "HH:MM:SS" with
// zero-padded fields, truncating below one second.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
