package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskline/taskline/internal/model"
)

// AddNotification inserts a notification record for one recipient.
func (s *Store) AddNotification(n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().UnixMilli()
	}

	query := `INSERT INTO notifications (id, recipient_id, type, message, task_id, project_id, actor_id, read, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, n.ID, n.RecipientID, string(n.Type), n.Message,
		n.TaskID, n.ProjectID, n.ActorID, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}

// ListNotifications returns a recipient's notifications, newest first.
func (s *Store) ListNotifications(recipientID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, recipient_id, type, message, task_id, project_id, actor_id, read, created_at
	          FROM notifications WHERE recipient_id = ?`
	args := []interface{}{recipientID}
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Message,
			&n.TaskID, &n.ProjectID, &n.ActorID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flips the read flag on a recipient's notification.
// Returns false if no matching notification exists.
func (s *Store) MarkNotificationRead(id, recipientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CountUnread returns the number of unread notifications for a recipient.
func (s *Store) CountUnread(recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND read = 0`, recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
