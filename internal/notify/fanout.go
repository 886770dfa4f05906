package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taskline/taskline/internal/metrics"
	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/store"
	"github.com/taskline/taskline/internal/task"
)

// Sink mirrors a notification to an external destination (e.g. Slack).
// Delivery failures never propagate to the triggering operation.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n *model.Notification) error
}

// Fanout computes the audience for a task event and emits one
// notification record per recipient. Registered on the task service as
// a post-commit hook.
type Fanout struct {
	store   *store.Store
	dir     RoleDirectory
	sinks   []Sink
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewFanout creates a notification fanout. m may be nil.
func NewFanout(s *store.Store, dir RoleDirectory, m *metrics.Metrics, logger zerolog.Logger) *Fanout {
	return &Fanout{
		store:   s,
		dir:     dir,
		metrics: m,
		logger:  logger.With().Str("component", "notify.fanout").Logger(),
	}
}

// AddSink registers an external delivery sink. Register during startup.
func (f *Fanout) AddSink(s Sink) {
	f.sinks = append(f.sinks, s)
}

// Name implements task.Hook.
func (f *Fanout) Name() string { return "notification_fanout" }

// OnEvent implements task.Hook, dispatching by event kind. The
// returned error only reports total failure of audience computation;
// per-recipient failures are swallowed and logged.
func (f *Fanout) OnEvent(ctx context.Context, ev task.Event) error {
	switch ev.Kind {
	case task.EventStatusChanged:
		return f.onStatusChange(ctx, ev)
	case task.EventReviewed:
		return f.onReview(ctx, ev)
	case task.EventAssigned:
		return f.onAssign(ctx, ev)
	}
	return nil
}

// onStatusChange notifies the project creator plus the org's admins
// and project managers, excluding the actor, deduplicated.
func (f *Fanout) onStatusChange(ctx context.Context, ev task.Event) error {
	notifType, message := f.statusMessage(ev)

	recipients, err := f.audience(ev.ProjectID, ev.ActorID)
	if err != nil {
		return fmt.Errorf("failed to compute audience: %w", err)
	}

	for _, recipientID := range recipients {
		f.emit(ctx, &model.Notification{
			RecipientID: recipientID,
			Type:        notifType,
			Message:     message,
			TaskID:      ev.Task.ID,
			ProjectID:   ev.ProjectID,
			ActorID:     ev.ActorID,
		})
	}
	return nil
}

// onReview notifies only the task's assignee, carrying the rating and
// comment. The general admin audience is deliberately not used here.
func (f *Fanout) onReview(ctx context.Context, ev task.Event) error {
	assignee := ev.Task.Assignee
	if assignee == "" || assignee == ev.ActorID {
		return nil
	}
	review := ev.Task.Review
	if review == nil {
		return nil
	}

	message := fmt.Sprintf("%s reviewed %q: %.1f/5", f.dir.UserName(ev.ActorID), ev.Task.Name, review.Rating)
	if review.Comment != "" {
		message += " - " + review.Comment
	}

	f.emit(ctx, &model.Notification{
		RecipientID: assignee,
		Type:        model.NotificationTaskReviewed,
		Message:     message,
		TaskID:      ev.Task.ID,
		ProjectID:   ev.ProjectID,
		ActorID:     ev.ActorID,
	})
	return nil
}

func (f *Fanout) onAssign(ctx context.Context, ev task.Event) error {
	if ev.AssigneeID == "" || ev.AssigneeID == ev.ActorID {
		return nil
	}
	f.emit(ctx, &model.Notification{
		RecipientID: ev.AssigneeID,
		Type:        model.NotificationTaskAssigned,
		Message:     fmt.Sprintf("%s assigned %q to you", f.dir.UserName(ev.ActorID), ev.Task.Name),
		TaskID:      ev.Task.ID,
		ProjectID:   ev.ProjectID,
		ActorID:     ev.ActorID,
	})
	return nil
}

// statusMessage picks the transition-specific template.
func (f *Fanout) statusMessage(ev task.Event) (model.NotificationType, string) {
	actor := f.dir.UserName(ev.ActorID)
	switch {
	case ev.OldStatus == model.StatusToDo && ev.NewStatus == model.StatusInProgress:
		return model.NotificationWorkStarted,
			fmt.Sprintf("%s started working on %q", actor, ev.Task.Name)
	case ev.NewStatus == model.StatusDone:
		return model.NotificationTaskCompleted,
			fmt.Sprintf("%s completed %q", actor, ev.Task.Name)
	default:
		return model.NotificationStatusUpdate,
			fmt.Sprintf("%s changed status of %q from %s to %s", actor, ev.Task.Name, ev.OldStatus, ev.NewStatus)
	}
}

// audience returns the deduplicated recipient set for a status event:
// project creator plus org admins plus project managers, minus the actor.
func (f *Fanout) audience(projectID, actorID string) ([]string, error) {
	seen := make(map[string]bool)
	var recipients []string

	add := func(id string) {
		if id == "" || id == actorID || seen[id] {
			return
		}
		seen[id] = true
		recipients = append(recipients, id)
	}

	creator, err := f.dir.ProjectCreator(projectID)
	if err != nil {
		return nil, err
	}
	add(creator)

	staff, err := f.dir.OrgStaff(projectID)
	if err != nil {
		return nil, err
	}
	for _, u := range staff {
		add(u.ID)
	}

	return recipients, nil
}

// emit writes the durable notification record and mirrors it to the
// sinks. Each recipient is isolated: one failure never prevents
// delivery to the others or fails the triggering operation.
func (f *Fanout) emit(ctx context.Context, n *model.Notification) {
	if err := f.store.AddNotification(n); err != nil {
		f.logger.Error().
			Err(err).
			Str("recipient_id", n.RecipientID).
			Str("task_id", n.TaskID).
			Str("type", string(n.Type)).
			Msg("failed to create notification")
		f.record(string(n.Type), "error")
		return
	}
	f.record(string(n.Type), "ok")

	for _, sink := range f.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			f.logger.Warn().
				Err(err).
				Str("sink", sink.Name()).
				Str("recipient_id", n.RecipientID).
				Msg("sink delivery failed")
			f.record(string(n.Type), "sink_error")
		}
	}
}

func (f *Fanout) record(notifType, result string) {
	if f.metrics != nil {
		f.metrics.RecordNotification(notifType, result)
	}
}
