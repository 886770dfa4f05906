package store

import (
	"context"
	"fmt"
	"time"
)

// RunRetention cleans up old data according to retention policies.
// Invoked on a cron schedule from main.
func (s *Store) RunRetention(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	// Read notifications older than 30 days
	thirtyDaysAgo := now - (30 * 24 * 60 * 60 * 1000)
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE read = 1 AND created_at < ?",
		thirtyDaysAgo,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old read notifications: %w", err)
	}

	// Unread notifications older than 90 days
	ninetyDaysAgo := now - (90 * 24 * 60 * 60 * 1000)
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE created_at < ?",
		ninetyDaysAgo,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expired notifications: %w", err)
	}

	return nil
}
