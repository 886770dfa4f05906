package task

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/store"
)

type captureHook struct {
	events []Event
	fail   error
}

func (h *captureHook) Name() string { return "capture" }

func (h *captureHook) OnEvent(_ context.Context, ev Event) error {
	h.events = append(h.events, ev)
	return h.fail
}

type panicHook struct{}

func (panicHook) Name() string                         { return "panic" }
func (panicHook) OnEvent(context.Context, Event) error { panic("boom") }

func newServiceForTest(t *testing.T) (*Service, *store.Store, *captureHook) {
	t.Helper()
	s := newStoreForTest(t)
	seedProject(t, s)
	require.NoError(t, s.UpsertUser(&model.User{
		ID: "reviewer-1", Name: "Rita Reviewer", OrgID: "org-1", Role: model.RoleAdmin,
	}))

	svc := NewService(s, s, nil, zerolog.Nop())
	hook := &captureHook{}
	svc.AddHook(hook)
	return svc, s, hook
}

func createTask(t *testing.T, svc *Service) *model.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), "proj-1", CreateTaskInput{
		Name:      "Implement login",
		Assignee:  "assignee-1",
		CreatedBy: "creator-1",
	})
	require.NoError(t, err)
	return task
}

func TestService_CreateTask(t *testing.T) {
	svc, s, hook := newServiceForTest(t)

	task := createTask(t, svc)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.StatusToDo, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Greater(t, task.CreatedAt, int64(0))

	// New tasks always land in the standalone shape.
	doc, err := s.GetTaskDoc("proj-1", task.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)

	// Assignee differs from creator, so an assignment event fired.
	require.Len(t, hook.events, 1)
	assert.Equal(t, EventAssigned, hook.events[0].Kind)
	assert.Equal(t, "assignee-1", hook.events[0].AssigneeID)
}

func TestService_CreateTask_ProjectNotFound(t *testing.T) {
	svc, _, _ := newServiceForTest(t)

	_, err := svc.CreateTask(context.Background(), "nope", CreateTaskInput{Name: "x", CreatedBy: "u"})
	assert.ErrorIs(t, err, terrors.ErrProjectNotFound)
}

func TestService_StartTimer_ImplicitTransition(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	task := createTask(t, svc)
	hook.events = nil

	got, err := svc.StartTimer(context.Background(), "proj-1", task.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, got.TimerRunning())
	assert.Equal(t, model.StatusInProgress, got.Status)
	require.Len(t, got.StatusHistory, 1)

	require.Len(t, hook.events, 1)
	assert.Equal(t, EventStatusChanged, hook.events[0].Kind)
	assert.Equal(t, model.StatusToDo, hook.events[0].OldStatus)
	assert.Equal(t, model.StatusInProgress, hook.events[0].NewStatus)

	// The write is visible on a fresh read.
	again, err := svc.GetTask(context.Background(), "proj-1", task.ID)
	require.NoError(t, err)
	assert.True(t, again.TimerRunning())
}

func TestService_StartTimer_NoImplicitTransitionFromDone(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusInProgress)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusDone)
	require.NoError(t, err)
	hook.events = nil

	// Done -> InProgress is not a legal edge, so the timer starts with
	// the status left untouched and no status event fires.
	got, err := svc.StartTimer(ctx, "proj-1", task.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, got.TimerRunning())
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Empty(t, hook.events)
}

func TestService_StartTimer_AlreadyRunning(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.StartTimer(ctx, "proj-1", task.ID, "user-1")
	require.NoError(t, err)
	_, err = svc.StartTimer(ctx, "proj-1", task.ID, "user-2")
	assert.ErrorIs(t, err, terrors.ErrTimerRunning)
}

func TestService_StopTimer(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.StartTimer(ctx, "proj-1", task.ID, "user-1")
	require.NoError(t, err)

	res, err := svc.StopTimer(ctx, "proj-1", task.ID, "user-1", nil)
	require.NoError(t, err)
	assert.False(t, res.Task.TimerRunning())
	assert.GreaterOrEqual(t, res.TimeSpentMs, int64(0))
	assert.Equal(t, res.Task.TotalTimeSpent, res.TotalTimeSpentMs)
	require.Len(t, res.Task.TimeEntries, 1)
	// Status stays InProgress without an explicit newStatus.
	assert.Equal(t, model.StatusInProgress, res.Task.Status)
}

func TestService_StopTimer_WithNewStatus(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.StartTimer(ctx, "proj-1", task.ID, "user-1")
	require.NoError(t, err)
	hook.events = nil

	done := model.StatusDone
	res, err := svc.StopTimer(ctx, "proj-1", task.ID, "user-1", &done)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, res.Task.Status)

	require.Len(t, hook.events, 1)
	assert.Equal(t, EventStatusChanged, hook.events[0].Kind)
	assert.Equal(t, model.StatusDone, hook.events[0].NewStatus)
}

func TestService_StopTimer_InvalidNewStatusLeavesTimerRunning(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.StartTimer(ctx, "proj-1", task.ID, "user-1")
	require.NoError(t, err)

	reviewed := model.StatusReviewed
	_, err = svc.StopTimer(ctx, "proj-1", task.ID, "user-1", &reviewed)
	assert.ErrorIs(t, err, terrors.ErrInvalidTransition)

	// The invalid target rejected the whole call before the stop.
	got, err := svc.GetTask(ctx, "proj-1", task.ID)
	require.NoError(t, err)
	assert.True(t, got.TimerRunning())
	assert.Empty(t, got.TimeEntries)
}

func TestService_StopTimer_NoActiveTimer(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)

	_, err := svc.StopTimer(context.Background(), "proj-1", task.ID, "user-1", nil)
	assert.ErrorIs(t, err, terrors.ErrNoActiveTimer)
}

func TestService_AddManualTime(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	task := createTask(t, svc)
	hook.events = nil

	got, err := svc.AddManualTime(context.Background(), "proj-1", task.ID, "user-1", 1800000)
	require.NoError(t, err)
	assert.Equal(t, int64(1800000), got.TotalTimeSpent)
	assert.Equal(t, model.StatusToDo, got.Status)
	assert.False(t, got.TimerRunning())
	// Manual time is silent.
	assert.Empty(t, hook.events)
}

func TestService_AddManualTime_InvalidDuration(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)

	_, err := svc.AddManualTime(context.Background(), "proj-1", task.ID, "user-1", 0)
	assert.ErrorIs(t, err, terrors.ErrInvalidDuration)
}

func TestService_ChangeStatus_AutoTimer(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	// Entering InProgress starts the timer.
	got, err := svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusInProgress)
	require.NoError(t, err)
	assert.True(t, got.TimerRunning())

	// Leaving InProgress stops it and banks the entry.
	got, err = svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusOnHold)
	require.NoError(t, err)
	assert.False(t, got.TimerRunning())
	require.Len(t, got.TimeEntries, 1)
}

func TestService_ChangeStatus_Invalid(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	task := createTask(t, svc)
	hook.events = nil

	_, err := svc.ChangeStatus(context.Background(), "proj-1", task.ID, "user-1", model.StatusDone)
	assert.ErrorIs(t, err, terrors.ErrInvalidTransition)
	assert.Empty(t, hook.events)

	// Nothing was written.
	got, err := svc.GetTask(context.Background(), "proj-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusToDo, got.Status)
}

func TestService_ChangeStatus_EmbeddedShape(t *testing.T) {
	svc, s, hook := newServiceForTest(t)
	_ = hook

	p := &model.Project{ID: "proj-legacy", OrgID: "org-1", Name: "Legacy board", CreatedBy: "creator-1"}
	require.NoError(t, s.SeedEmbeddedProject(p, []model.Task{
		{ID: "task-a", Name: "First", Status: model.StatusToDo},
	}))

	got, err := svc.ChangeStatus(context.Background(), "proj-legacy", "task-a", "user-1", model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	after, hasArray, err := s.GetEmbeddedTasks("proj-legacy")
	require.NoError(t, err)
	require.True(t, hasArray)
	assert.Equal(t, model.StatusInProgress, after[0].Status)
	require.Len(t, after[0].StatusHistory, 1)
}

func TestService_ReviewTask(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusInProgress)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusDone)
	require.NoError(t, err)
	hook.events = nil

	got, err := svc.ReviewTask(ctx, "proj-1", task.ID, "reviewer-1", 4.5, "solid work")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewed, got.Status)
	require.NotNil(t, got.Review)
	assert.Equal(t, 4.5, got.Review.Rating)
	assert.Equal(t, "solid work", got.Review.Comment)
	assert.Equal(t, "Rita Reviewer", got.Review.ReviewerName)
	assert.Greater(t, got.Review.ReviewedAt, int64(0))

	// Only the targeted review event fires, no generic status fanout.
	require.Len(t, hook.events, 1)
	assert.Equal(t, EventReviewed, hook.events[0].Kind)
}

func TestService_ReviewTask_NotDone(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)

	_, err := svc.ReviewTask(context.Background(), "proj-1", task.ID, "reviewer-1", 4, "")
	assert.ErrorIs(t, err, terrors.ErrInvalidReviewState)
}

func TestService_ReviewTask_InvalidRating(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusInProgress)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusDone)
	require.NoError(t, err)

	for _, rating := range []float64{0, 0.9, 5.1, -1} {
		_, err := svc.ReviewTask(ctx, "proj-1", task.ID, "reviewer-1", rating, "")
		assert.ErrorIs(t, err, terrors.ErrInvalidRating, "rating %v", rating)
	}
}

func TestService_ReviewTask_AlreadyReviewed(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	task := createTask(t, svc)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusInProgress)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, "proj-1", task.ID, "user-1", model.StatusDone)
	require.NoError(t, err)
	_, err = svc.ReviewTask(ctx, "proj-1", task.ID, "reviewer-1", 5, "")
	require.NoError(t, err)

	_, err = svc.ReviewTask(ctx, "proj-1", task.ID, "reviewer-1", 3, "")
	assert.ErrorIs(t, err, terrors.ErrAlreadyReviewed)
}

func TestService_AssignTask(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	task := createTask(t, svc)
	hook.events = nil

	got, err := svc.AssignTask(context.Background(), "proj-1", task.ID, "assignee-2", "creator-1")
	require.NoError(t, err)
	assert.Equal(t, "assignee-2", got.Assignee)

	require.Len(t, hook.events, 1)
	assert.Equal(t, EventAssigned, hook.events[0].Kind)
	assert.Equal(t, "assignee-2", hook.events[0].AssigneeID)

	// Re-assigning to the same user is a no-op.
	hook.events = nil
	_, err = svc.AssignTask(context.Background(), "proj-1", task.ID, "assignee-2", "creator-1")
	require.NoError(t, err)
	assert.Empty(t, hook.events)
}

func TestService_HookFailureDoesNotTaintOperation(t *testing.T) {
	svc, _, hook := newServiceForTest(t)
	hook.fail = errors.New("sink down")
	svc.AddHook(panicHook{})
	task := createTask(t, svc)

	got, err := svc.ChangeStatus(context.Background(), "proj-1", task.ID, "user-1", model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	// The failing hook still observed the event.
	assert.NotEmpty(t, hook.events)
}
