package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskline/taskline/internal/model"
)

// PutTaskDoc inserts or replaces a standalone task document. The
// document row is replaced whole; concurrent writers to the same task
// are serialized by SQLite but not merged.
func (s *Store) PutTaskDoc(projectID string, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode task document: %w", err)
	}

	query := `INSERT OR REPLACE INTO task_docs (task_id, project_id, doc, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.Exec(query, t.ID, projectID, string(doc), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to put task document: %w", err)
	}
	return nil
}

// GetTaskDoc retrieves a standalone task document. Returns nil if the
// task has no standalone row (it may still exist in the embedded shape).
func (s *Store) GetTaskDoc(projectID, taskID string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	query := `SELECT doc FROM task_docs WHERE task_id = ? AND project_id = ?`
	err := s.db.QueryRow(query, taskID, projectID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task document: %w", err)
	}

	t := &model.Task{}
	if err := json.Unmarshal([]byte(doc), t); err != nil {
		return nil, fmt.Errorf("failed to decode task document: %w", err)
	}
	return t, nil
}

// ListTaskDocs returns all standalone task documents of a project.
func (s *Store) ListTaskDocs(projectID string) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT doc FROM task_docs WHERE project_id = ? ORDER BY updated_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task documents: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan task document: %w", err)
		}
		t := &model.Task{}
		if err := json.Unmarshal([]byte(doc), t); err != nil {
			return nil, fmt.Errorf("failed to decode task document: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteTaskDoc removes a standalone task document.
func (s *Store) DeleteTaskDoc(projectID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM task_docs WHERE task_id = ? AND project_id = ?`, taskID, projectID); err != nil {
		return fmt.Errorf("failed to delete task document: %w", err)
	}
	return nil
}
