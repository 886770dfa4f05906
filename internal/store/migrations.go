package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		org_id      TEXT NOT NULL,
		name        TEXT NOT NULL,
		description TEXT,
		created_by  TEXT NOT NULL,
		tasks       TEXT,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_org ON projects(org_id);

	CREATE TABLE IF NOT EXISTS task_docs (
		task_id    TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		doc        TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_task_docs_project ON task_docs(project_id);

	CREATE TABLE IF NOT EXISTS users (
		id     TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		email  TEXT,
		org_id TEXT NOT NULL,
		role   TEXT NOT NULL DEFAULT 'member'
	);

	CREATE INDEX IF NOT EXISTS idx_users_org_role ON users(org_id, role);

	CREATE TABLE IF NOT EXISTS notifications (
		id           TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL,
		type         TEXT NOT NULL,
		message      TEXT NOT NULL,
		task_id      TEXT NOT NULL,
		project_id   TEXT NOT NULL,
		actor_id     TEXT NOT NULL,
		read         INTEGER NOT NULL DEFAULT 0,
		created_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(recipient_id, read);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}
	return nil
}

func (s *Store) migrateV2() error {
	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil || version >= "2" {
		return nil // already at v2+
	}

	// Per-task updated_at on the embedded shape never existed; standalone
	// rows get an index usable by retention sweeps.
	schema := `
	CREATE INDEX IF NOT EXISTS idx_task_docs_updated ON task_docs(updated_at);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}
	return nil
}
