package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/store"
	"github.com/taskline/taskline/internal/task"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	service *task.Service
	store   *store.Store
	logger  zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *task.Service, s *store.Store, logger zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		store:   s,
		logger:  logger.With().Str("component", "handlers").Logger(),
	}
}

// CreateTask handles POST /api/v1/projects/:projectID/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request",
			"Task name is required")
	}
	if req.CreatedBy == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_created_by", "Bad Request",
			"created_by is required")
	}

	t, err := h.service.CreateTask(c.Context(), c.Params("projectID"), task.CreateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.taskResponse(t))
}

// GetTask handles GET /api/v1/projects/:projectID/tasks/:taskID.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	t, err := h.service.GetTask(c.Context(), c.Params("projectID"), c.Params("taskID"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(h.taskResponse(t))
}

// StartTimer handles POST .../timer/start.
func (h *Handlers) StartTimer(c *fiber.Ctx) error {
	var req StartTimerRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.UserID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_user_id", "Bad Request",
			"user_id is required")
	}

	t, err := h.service.StartTimer(c.Context(), c.Params("projectID"), c.Params("taskID"), req.UserID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(h.taskResponse(t))
}

// StopTimer handles POST .../timer/stop.
func (h *Handlers) StopTimer(c *fiber.Ctx) error {
	var req StopTimerRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.UserID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_user_id", "Bad Request",
			"user_id is required")
	}

	result, err := h.service.StopTimer(c.Context(), c.Params("projectID"), c.Params("taskID"), req.UserID, req.NewStatus)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(StopTimerResponse{
		Task:             result.Task,
		TimeSpentMs:      result.TimeSpentMs,
		TotalTimeSpentMs: result.TotalTimeSpentMs,
	})
}

// AddManualTime handles POST .../time.
func (h *Handlers) AddManualTime(c *fiber.Ctx) error {
	var req ManualTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.UserID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_user_id", "Bad Request",
			"user_id is required")
	}

	t, err := h.service.AddManualTime(c.Context(), c.Params("projectID"), c.Params("taskID"), req.UserID, req.DurationMs)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(h.taskResponse(t))
}

// ChangeStatus handles POST .../status.
func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	var req ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.UserID == "" || req.Status == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_fields", "Bad Request",
			"user_id and status are required")
	}

	t, err := h.service.ChangeStatus(c.Context(), c.Params("projectID"), c.Params("taskID"), req.UserID, req.Status)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(h.taskResponse(t))
}

// ReviewTask handles POST .../review.
func (h *Handlers) ReviewTask(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.ReviewerID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_reviewer_id", "Bad Request",
			"reviewer_id is required")
	}

	t, err := h.service.ReviewTask(c.Context(), c.Params("projectID"), c.Params("taskID"), req.ReviewerID, req.Rating, req.Comment)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(h.taskResponse(t))
}

// AssignTask handles POST .../assign.
func (h *Handlers) AssignTask(c *fiber.Ctx) error {
	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.ActorID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_actor_id", "Bad Request",
			"actor_id is required")
	}

	t, err := h.service.AssignTask(c.Context(), c.Params("projectID"), c.Params("taskID"), req.AssigneeID, req.ActorID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(h.taskResponse(t))
}

// ListNotifications handles GET /api/v1/notifications.
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_user_id", "Bad Request",
			"user_id query parameter is required")
	}

	notifications, err := h.store.ListNotifications(userID, c.QueryBool("unread"), c.QueryInt("limit", 50))
	if err != nil {
		return h.errorResponse(c, err)
	}
	unread, err := h.store.CountUnread(userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	if notifications == nil {
		notifications = []*model.Notification{}
	}
	return c.JSON(NotificationListResponse{
		Notifications: notifications,
		Unread:        unread,
	})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read.
func (h *Handlers) MarkNotificationRead(c *fiber.Ctx) error {
	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.UserID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_user_id", "Bad Request",
			"user_id is required")
	}

	ok, err := h.store.MarkNotificationRead(c.Params("id"), req.UserID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	if !ok {
		return problemResponse(c, fiber.StatusNotFound,
			"notification_not_found", "Not Found",
			"Notification not found: "+c.Params("id"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) taskResponse(t *model.Task) TaskResponse {
	now := time.Now().UnixMilli()
	effective := t.EffectiveTimeSpent(now)
	return TaskResponse{
		Task:               t,
		EffectiveTimeSpent: effective,
		FormattedTimeSpent: task.FormatDuration(effective),
	}
}

// errorResponse maps domain errors to problem responses.
func (h *Handlers) errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, terrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"task_not_found", "Not Found", err.Error())
	case errors.Is(err, terrors.ErrProjectNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found", err.Error())
	case errors.Is(err, terrors.ErrInvalidTransition):
		return problemResponse(c, fiber.StatusConflict,
			"invalid_transition", "Conflict", err.Error())
	case errors.Is(err, terrors.ErrTimerRunning):
		return problemResponse(c, fiber.StatusConflict,
			"timer_already_running", "Conflict", err.Error())
	case errors.Is(err, terrors.ErrNoActiveTimer):
		return problemResponse(c, fiber.StatusConflict,
			"no_active_timer", "Conflict", err.Error())
	case errors.Is(err, terrors.ErrInvalidReviewState):
		return problemResponse(c, fiber.StatusConflict,
			"invalid_review_state", "Conflict", err.Error())
	case errors.Is(err, terrors.ErrAlreadyReviewed):
		return problemResponse(c, fiber.StatusConflict,
			"already_reviewed", "Conflict", err.Error())
	case errors.Is(err, terrors.ErrInvalidDuration):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_duration", "Bad Request", err.Error())
	case errors.Is(err, terrors.ErrInvalidRating):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_rating", "Bad Request", err.Error())
	case errors.Is(err, terrors.ErrStorageConflict):
		h.logger.Error().
			Err(err).
			Str("path", c.Path()).
			Msg("storage shape conflict")
		return problemResponse(c, fiber.StatusInternalServerError,
			"storage_conflict", "Internal Server Error", err.Error())
	default:
		h.logger.Error().
			Err(err).
			Str("path", c.Path()).
			Msg("operation failed")
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error",
			"An unexpected error occurred")
	}
}
