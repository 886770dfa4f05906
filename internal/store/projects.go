package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskline/taskline/internal/model"
)

// CreateProject inserts a new project. New projects carry no embedded
// task array; their tasks live as standalone documents.
func (s *Store) CreateProject(p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UnixMilli()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = now
	}

	query := `INSERT INTO projects (id, org_id, name, description, created_by, tasks, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, NULL, ?, ?)`
	_, err := s.db.Exec(query, p.ID, p.OrgID, p.Name,
		sql.NullString{String: p.Description, Valid: p.Description != ""},
		p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID. Returns nil if absent.
func (s *Store) GetProject(id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := &model.Project{}
	var description sql.NullString

	query := `SELECT id, org_id, name, description, created_by, created_at, updated_at
	          FROM projects WHERE id = ?`
	err := s.db.QueryRow(query, id).Scan(
		&p.ID, &p.OrgID, &p.Name, &description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if description.Valid {
		p.Description = description.String
	}
	return p, nil
}

// GetEmbeddedTasks returns the legacy embedded task array of a project.
// The second return is false when the project has no embedded array
// (migrated projects store tasks as standalone documents).
func (s *Store) GetEmbeddedTasks(projectID string) ([]model.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw sql.NullString
	err := s.db.QueryRow(`SELECT tasks FROM projects WHERE id = ?`, projectID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get embedded tasks: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, false, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw.String), &tasks); err != nil {
		return nil, false, fmt.Errorf("failed to decode embedded tasks: %w", err)
	}
	return tasks, true, nil
}

// PutEmbeddedTasks rewrites the whole embedded task array of a project.
// The array is written back in a single UPDATE, so readers never see a
// torn array, but there is no isolation between concurrent
// read-modify-write cycles: last writer wins.
func (s *Store) PutEmbeddedTasks(projectID string, tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode embedded tasks: %w", err)
	}

	now := time.Now().UnixMilli()
	result, err := s.db.Exec(`UPDATE projects SET tasks = ?, updated_at = ? WHERE id = ?`,
		string(raw), now, projectID)
	if err != nil {
		return fmt.Errorf("failed to put embedded tasks: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", projectID)
	}
	return nil
}

// SeedEmbeddedProject creates a project already carrying an embedded
// task array. Only legacy data (and tests) produce this shape.
func (s *Store) SeedEmbeddedProject(p *model.Project, tasks []model.Task) error {
	if err := s.CreateProject(p); err != nil {
		return err
	}
	return s.PutEmbeddedTasks(p.ID, tasks)
}

// TouchProject updates the project's updated_at timestamp to now.
func (s *Store) TouchProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	_, err := s.db.Exec(`UPDATE projects SET updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}
	return nil
}
