// Package model defines the core domain types for taskline: tasks,
// their lifecycle metadata, users, and notifications. Tasks are
// persisted as JSON documents, so every field carries a json tag.
package model

// Status is the lifecycle state of a task.
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusDone       Status = "done"
	StatusReviewed   Status = "reviewed"
	StatusVerified   Status = "verified"
)

// Valid returns true if s is a known task status.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusOnHold, StatusDone, StatusReviewed, StatusVerified:
		return true
	}
	return false
}

// Terminal returns true if no worker-initiated transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusReviewed || s == StatusVerified
}

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Role is an organization-level access role.
type Role string

const (
	RoleMember         Role = "member"
	RoleProjectManager Role = "project_manager"
	RoleAdmin          Role = "admin"
)

// StatusChange is a single entry in a task's append-only status history.
type StatusChange struct {
	From      Status `json:"from"`
	To        Status `json:"to"`
	UpdatedBy string `json:"updated_by"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// ActiveTimer is the single in-progress time-tracking session on a task.
type ActiveTimer struct {
	UserID    string `json:"user_id"`
	StartTime int64  `json:"start_time"` // unix ms
	IsRunning bool   `json:"is_running"`
}

// TimeEntry is a closed, recorded interval of work on a task.
type TimeEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	StartTime int64  `json:"start_time"` // unix ms
	EndTime   int64  `json:"end_time"`   // unix ms
	Duration  int64  `json:"duration"`   // ms
	Manual    bool   `json:"manual"`
}

// Review is the reviewer's rating and comment on a completed task.
type Review struct {
	ReviewerID   string  `json:"reviewer_id"`
	ReviewerName string  `json:"reviewer_name,omitempty"`
	Rating       float64 `json:"rating"`
	Comment      string  `json:"comment"`
	ReviewedAt   int64   `json:"reviewed_at"` // unix ms
}

// Task is a unit of work tracked through a status lifecycle.
type Task struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Status         Status         `json:"status"`
	Priority       Priority       `json:"priority"`
	Assignee       string         `json:"assignee,omitempty"`
	StatusHistory  []StatusChange `json:"status_history,omitempty"`
	ActiveTimer    *ActiveTimer   `json:"active_timer,omitempty"`
	TimeEntries    []TimeEntry    `json:"time_entries,omitempty"`
	TotalTimeSpent int64          `json:"total_time_spent"` // ms
	Review         *Review        `json:"review,omitempty"`
	Progress       int            `json:"progress"` // 0-100, subtask completion ratio
	CreatedBy      string         `json:"created_by,omitempty"`
	CreatedAt      int64          `json:"created_at"` // unix ms
	UpdatedAt      int64          `json:"updated_at"` // unix ms
}

// TimerRunning returns true if the task has a running active timer.
func (t *Task) TimerRunning() bool {
	return t.ActiveTimer != nil && t.ActiveTimer.IsRunning
}

// EffectiveTimeSpent returns the total time to display at instant now:
// the stored total plus the elapsed portion of a running timer. The
// stored total is only updated on stop.
func (t *Task) EffectiveTimeSpent(now int64) int64 {
	total := t.TotalTimeSpent
	if t.TimerRunning() && now > t.ActiveTimer.StartTime {
		total += now - t.ActiveTimer.StartTime
	}
	return total
}

// Project is the parent container for tasks.
type Project struct {
	ID          string `json:"id"`
	OrgID       string `json:"org_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"` // unix ms
	UpdatedAt   int64  `json:"updated_at"` // unix ms
}

// User is an organization member.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	OrgID string `json:"org_id"`
	Role  Role   `json:"role"`
}

// NotificationType categorizes task event notifications.
type NotificationType string

const (
	NotificationWorkStarted   NotificationType = "work_started"
	NotificationTaskCompleted NotificationType = "task_completed"
	NotificationStatusUpdate  NotificationType = "status_update"
	NotificationTaskReviewed  NotificationType = "task_reviewed"
	NotificationTaskAssigned  NotificationType = "task_assigned"
)

// Notification is a per-recipient record of a task event. Immutable
// after creation except for the Read flag.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	TaskID      string           `json:"task_id"`
	ProjectID   string           `json:"project_id"`
	ActorID     string           `json:"actor_id"`
	Read        bool             `json:"read"`
	CreatedAt   int64            `json:"created_at"` // unix ms
}
