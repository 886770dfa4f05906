package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskline/taskline/internal/model"
)

// UpsertUser inserts or updates an organization member.
func (s *Store) UpsertUser(u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Role == "" {
		u.Role = model.RoleMember
	}

	query := `INSERT OR REPLACE INTO users (id, name, email, org_id, role) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, u.ID, u.Name,
		sql.NullString{String: u.Email, Valid: u.Email != ""},
		u.OrgID, string(u.Role))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID. Returns nil if absent.
func (s *Store) GetUser(id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := &model.User{}
	var email sql.NullString

	err := s.db.QueryRow(`SELECT id, name, email, org_id, role FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.Name, &email, &u.OrgID, &u.Role,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if email.Valid {
		u.Email = email.String
	}
	return u, nil
}

// ListOrgUsersByRole returns all members of an organization holding one
// of the given roles.
func (s *Store) ListOrgUsersByRole(orgID string, roles ...model.Role) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(roles) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roles)), ",")
	query := `SELECT id, name, email, org_id, role FROM users WHERE org_id = ? AND role IN (` + placeholders + `) ORDER BY id`

	args := make([]interface{}, 0, len(roles)+1)
	args = append(args, orgID)
	for _, r := range roles {
		args = append(args, string(r))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u := &model.User{}
		var email sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &email, &u.OrgID, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if email.Valid {
			u.Email = email.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
