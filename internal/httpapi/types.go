package httpapi

import (
	"github.com/taskline/taskline/internal/model"
)

// ProblemDetail is an RFC 7807 error response body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// CreateTaskRequest is the body of POST /projects/:projectID/tasks.
type CreateTaskRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Priority    model.Priority `json:"priority,omitempty"`
	Assignee    string         `json:"assignee,omitempty"`
	CreatedBy   string         `json:"created_by"`
}

// StartTimerRequest is the body of POST .../timer/start.
type StartTimerRequest struct {
	UserID string `json:"user_id"`
}

// StopTimerRequest is the body of POST .../timer/stop.
type StopTimerRequest struct {
	UserID    string        `json:"user_id"`
	NewStatus *model.Status `json:"new_status,omitempty"`
}

// ManualTimeRequest is the body of POST .../time.
type ManualTimeRequest struct {
	UserID     string `json:"user_id"`
	DurationMs int64  `json:"duration_ms"`
}

// ChangeStatusRequest is the body of POST .../status.
type ChangeStatusRequest struct {
	UserID string       `json:"user_id"`
	Status model.Status `json:"status"`
}

// ReviewRequest is the body of POST .../review.
type ReviewRequest struct {
	ReviewerID string  `json:"reviewer_id"`
	Rating     float64 `json:"rating"`
	Comment    string  `json:"comment,omitempty"`
}

// AssignRequest is the body of POST .../assign.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
	ActorID    string `json:"actor_id"`
}

// TaskResponse wraps a task with display fields.
type TaskResponse struct {
	Task               *model.Task `json:"task"`
	EffectiveTimeSpent int64       `json:"effective_time_spent_ms"`
	FormattedTimeSpent string      `json:"formatted_time_spent"`
}

// StopTimerResponse is the response of POST .../timer/stop.
type StopTimerResponse struct {
	Task             *model.Task `json:"task"`
	TimeSpentMs      int64       `json:"time_spent_ms"`
	TotalTimeSpentMs int64       `json:"total_time_spent_ms"`
}

// NotificationListResponse is the response of GET /notifications.
type NotificationListResponse struct {
	Notifications []*model.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// MarkReadRequest is the body of POST /notifications/:id/read.
type MarkReadRequest struct {
	UserID string `json:"user_id"`
}
