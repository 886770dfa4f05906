package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/metrics"
	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/store"
)

// UserLookup resolves user records for display fields (reviewer name).
type UserLookup interface {
	GetUser(id string) (*model.User, error)
}

// Service orchestrates the task lifecycle operations over the resolver
// and runs post-commit hooks after every successful state write.
type Service struct {
	store    *store.Store
	resolver *Resolver
	status   *StatusMachine
	timer    *TimerEngine
	users    UserLookup
	metrics  *metrics.Metrics
	hooks    []Hook
	logger   zerolog.Logger
}

// NewService creates the task service. users and m may be nil.
func NewService(s *store.Store, users UserLookup, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:    s,
		resolver: NewResolver(s, logger),
		status:   NewStatusMachine(logger),
		timer:    NewTimerEngine(logger),
		users:    users,
		metrics:  m,
		logger:   logger.With().Str("component", "task.service").Logger(),
	}
}

// AddHook registers a post-commit hook. Not safe for concurrent use
// with running operations; register hooks during startup.
func (s *Service) AddHook(h Hook) {
	s.hooks = append(s.hooks, h)
}

// Resolver exposes the underlying resolver (for read paths and tests).
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// StopResult carries the outcome of a StopTimer call.
type StopResult struct {
	Task             *model.Task
	TimeSpentMs      int64
	TotalTimeSpentMs int64
}

// CreateTaskInput holds the fields for a new task.
type CreateTaskInput struct {
	Name        string
	Description string
	Priority    model.Priority
	Assignee    string
	CreatedBy   string
}

// CreateTask creates a task in the standalone shape with initial
// status ToDo. New records never use the legacy embedded shape.
func (s *Service) CreateTask(ctx context.Context, projectID string, in CreateTaskInput) (*model.Task, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, terrors.ErrProjectNotFound
	}

	now := time.Now().UnixMilli()
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	t := &model.Task{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Status:      model.StatusToDo,
		Priority:    priority,
		Assignee:    in.Assignee,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.PutTaskDoc(projectID, t); err != nil {
		return nil, err
	}
	_ = s.store.TouchProject(projectID)

	if t.Assignee != "" && t.Assignee != in.CreatedBy {
		s.runHooks(ctx, Event{
			Kind:       EventAssigned,
			ProjectID:  projectID,
			Task:       t,
			ActorID:    in.CreatedBy,
			AssigneeID: t.Assignee,
		})
	}

	return t, nil
}

// GetTask resolves and returns a task from whichever shape holds it.
func (s *Service) GetTask(ctx context.Context, projectID, taskID string) (*model.Task, error) {
	_, t, err := s.resolver.Resolve(ctx, projectID, taskID)
	return t, err
}

// StartTimer starts the task's active timer for userID and implicitly
// moves the task to InProgress when the transition table allows it.
func (s *Service) StartTimer(ctx context.Context, projectID, taskID, userID string) (*model.Task, error) {
	start := time.Now()
	defer s.observe("start_timer", start)

	loc, t, err := s.resolver.Resolve(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.timer.Start(t, userID); err != nil {
		s.recordTimerOp("start", "rejected")
		return nil, err
	}

	oldStatus := t.Status
	if t.Status != model.StatusInProgress {
		if CanTransition(t.Status, model.StatusInProgress) {
			// Transition cannot fail here; the edge was just checked.
			_ = s.status.Transition(t, model.StatusInProgress, userID)
		} else {
			s.logger.Debug().
				Str("task_id", taskID).
				Str("status", string(t.Status)).
				Msg("timer started without implicit transition")
		}
	}

	if _, err := s.resolver.Patch(ctx, loc, projectID, t); err != nil {
		return nil, err
	}

	s.recordTimerOp("start", "ok")
	if s.metrics != nil {
		s.metrics.TimersRunning.Inc()
	}
	if t.Status != oldStatus {
		s.recordTransition(oldStatus, t.Status)
		s.runHooks(ctx, Event{
			Kind:      EventStatusChanged,
			ProjectID: projectID,
			Task:      t,
			OldStatus: oldStatus,
			NewStatus: t.Status,
			ActorID:   userID,
		})
	}
	return t, nil
}

// StopTimer stops the active timer, records the elapsed time entry,
// and optionally applies newStatus through the status machine. An
// invalid newStatus rejects the whole call before the timer is touched.
func (s *Service) StopTimer(ctx context.Context, projectID, taskID, userID string, newStatus *model.Status) (*StopResult, error) {
	start := time.Now()
	defer s.observe("stop_timer", start)

	loc, t, err := s.resolver.Resolve(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if !t.TimerRunning() {
		s.recordTimerOp("stop", "rejected")
		return nil, terrors.ErrNoActiveTimer
	}

	if newStatus != nil && *newStatus != t.Status && !CanTransition(t.Status, *newStatus) {
		return nil, terrors.ErrInvalidTransition
	}

	entry, err := s.timer.Stop(t, userID)
	if err != nil {
		s.recordTimerOp("stop", "rejected")
		return nil, err
	}

	oldStatus := t.Status
	if newStatus != nil && *newStatus != t.Status {
		// Validated above; cannot fail.
		_ = s.status.Transition(t, *newStatus, userID)
	}

	if _, err := s.resolver.Patch(ctx, loc, projectID, t); err != nil {
		return nil, err
	}

	s.recordTimerOp("stop", "ok")
	if s.metrics != nil {
		s.metrics.TimersRunning.Dec()
	}
	if t.Status != oldStatus {
		s.recordTransition(oldStatus, t.Status)
		s.runHooks(ctx, Event{
			Kind:      EventStatusChanged,
			ProjectID: projectID,
			Task:      t,
			OldStatus: oldStatus,
			NewStatus: t.Status,
			ActorID:   userID,
		})
	}

	return &StopResult{
		Task:             t,
		TimeSpentMs:      entry.Duration,
		TotalTimeSpentMs: t.TotalTimeSpent,
	}, nil
}

// AddManualTime records a retroactive time entry. Neither the task
// status nor the active timer is touched, and no notifications fire.
func (s *Service) AddManualTime(ctx context.Context, projectID, taskID, userID string, durationMs int64) (*model.Task, error) {
	start := time.Now()
	defer s.observe("add_manual_time", start)

	loc, t, err := s.resolver.Resolve(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.timer.AddManual(t, userID, durationMs); err != nil {
		s.recordTimerOp("manual", "rejected")
		return nil, err
	}

	if _, err := s.resolver.Patch(ctx, loc, projectID, t); err != nil {
		return nil, err
	}

	s.recordTimerOp("manual", "ok")
	return t, nil
}

// ChangeStatus applies a status transition. Entering InProgress starts
// the timer and leaving it stops the timer, both best-effort: a timer
// failure is logged but does not block the status write.
func (s *Service) ChangeStatus(ctx context.Context, projectID, taskID, userID string, newStatus model.Status) (*model.Task, error) {
	start := time.Now()
	defer s.observe("change_status", start)

	loc, t, err := s.resolver.Resolve(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	oldStatus := t.Status
	if err := s.status.Transition(t, newStatus, userID); err != nil {
		return nil, err
	}

	if oldStatus != model.StatusInProgress && newStatus == model.StatusInProgress {
		if err := s.timer.Start(t, userID); err != nil {
			s.logger.Warn().Err(err).Str("task_id", taskID).Msg("auto-start timer failed")
		} else if s.metrics != nil {
			s.metrics.TimersRunning.Inc()
		}
	}
	if oldStatus == model.StatusInProgress && newStatus != model.StatusInProgress {
		if _, err := s.timer.Stop(t, userID); err != nil {
			if !errors.Is(err, terrors.ErrNoActiveTimer) {
				s.logger.Warn().Err(err).Str("task_id", taskID).Msg("auto-stop timer failed")
			}
		} else if s.metrics != nil {
			s.metrics.TimersRunning.Dec()
		}
	}

	if _, err := s.resolver.Patch(ctx, loc, projectID, t); err != nil {
		return nil, err
	}

	s.recordTransition(oldStatus, newStatus)
	s.runHooks(ctx, Event{
		Kind:      EventStatusChanged,
		ProjectID: projectID,
		Task:      t,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorID:   userID,
	})
	return t, nil
}

// ReviewTask rates and comments a completed task, moving it to
// Reviewed. The generic admin fanout for this transition is suppressed
// in favor of the assignee-targeted review event.
func (s *Service) ReviewTask(ctx context.Context, projectID, taskID, reviewerID string, rating float64, comment string) (*model.Task, error) {
	start := time.Now()
	defer s.observe("review_task", start)

	loc, t, err := s.resolver.Resolve(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if err := validateReview(t, rating); err != nil {
		return nil, err
	}

	review := &model.Review{
		ReviewerID: reviewerID,
		Rating:     rating,
		Comment:    comment,
		ReviewedAt: time.Now().UnixMilli(),
	}
	if s.users != nil {
		if u, err := s.users.GetUser(reviewerID); err == nil && u != nil {
			review.ReviewerName = u.Name
		}
	}

	oldStatus := t.Status
	t.Review = review
	if err := s.status.Transition(t, model.StatusReviewed, reviewerID); err != nil {
		return nil, err
	}

	if _, err := s.resolver.Patch(ctx, loc, projectID, t); err != nil {
		return nil, err
	}

	s.recordTransition(oldStatus, model.StatusReviewed)
	if s.metrics != nil {
		s.metrics.ReviewsTotal.Inc()
	}
	s.runHooks(ctx, Event{
		Kind:      EventReviewed,
		ProjectID: projectID,
		Task:      t,
		OldStatus: oldStatus,
		NewStatus: model.StatusReviewed,
		ActorID:   reviewerID,
	})
	return t, nil
}

// AssignTask sets the task assignee and notifies the new assignee.
func (s *Service) AssignTask(ctx context.Context, projectID, taskID, assigneeID, actorID string) (*model.Task, error) {
	loc, t, err := s.resolver.Resolve(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if t.Assignee == assigneeID {
		return t, nil
	}
	t.Assignee = assigneeID

	if _, err := s.resolver.Patch(ctx, loc, projectID, t); err != nil {
		return nil, err
	}

	if assigneeID != "" && assigneeID != actorID {
		s.runHooks(ctx, Event{
			Kind:       EventAssigned,
			ProjectID:  projectID,
			Task:       t,
			ActorID:    actorID,
			AssigneeID: assigneeID,
		})
	}
	return t, nil
}

// runHooks invokes every registered hook, isolating failures and
// panics per hook. Runs strictly after the state write committed.
func (s *Service) runHooks(ctx context.Context, ev Event) {
	for _, h := range s.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().
						Str("hook", h.Name()).
						Interface("panic", r).
						Msg("post-commit hook panicked")
				}
			}()
			if err := h.OnEvent(ctx, ev); err != nil {
				s.logger.Warn().
					Err(err).
					Str("hook", h.Name()).
					Str("event", string(ev.Kind)).
					Str("task_id", ev.Task.ID).
					Msg("post-commit hook failed")
				if s.metrics != nil {
					s.metrics.RecordError("hooks", h.Name())
				}
			}
		}()
	}
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDuration(op, time.Since(start).Seconds())
	}
}

func (s *Service) recordTimerOp(op, result string) {
	if s.metrics != nil {
		s.metrics.RecordTimerOp(op, result)
	}
}

func (s *Service) recordTransition(from, to model.Status) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(from), string(to))
	}
}
