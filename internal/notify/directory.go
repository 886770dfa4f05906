// Package notify computes notification audiences for task events and
// emits one notification record per recipient, optionally mirroring
// events to external sinks.
package notify

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/store"
	"github.com/taskline/taskline/lru"
)

// RoleDirectory is a read-only capability for resolving the people
// interested in a project's task events. Injected into the fanout so
// role queries are not scattered through business logic.
type RoleDirectory interface {
	// ProjectCreator returns the user ID that created the project.
	ProjectCreator(projectID string) (string, error)
	// OrgStaff returns the organization's admins and project managers
	// for the project's org.
	OrgStaff(projectID string) ([]*model.User, error)
	// UserName returns a display name for the user, falling back to
	// the raw ID when unknown.
	UserName(userID string) string
}

type staffEntry struct {
	creator string
	staff   []*model.User
	expires int64 // unix ms
}

// StoreDirectory is a RoleDirectory backed by the store with a small
// LRU cache in front; role changes surface within the cache TTL.
type StoreDirectory struct {
	store  *store.Store
	cache  *lru.Cache[string, staffEntry]
	names  *lru.Cache[string, string]
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStoreDirectory creates a store-backed directory. cacheSize and
// ttl bound the staleness of role lookups.
func NewStoreDirectory(s *store.Store, cacheSize int, ttl time.Duration, logger zerolog.Logger) *StoreDirectory {
	if cacheSize < 1 {
		cacheSize = 128
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StoreDirectory{
		store:  s,
		cache:  lru.New[string, staffEntry](cacheSize),
		names:  lru.New[string, string](cacheSize * 4),
		ttl:    ttl,
		logger: logger.With().Str("component", "notify.directory").Logger(),
	}
}

func (d *StoreDirectory) lookup(projectID string) (staffEntry, error) {
	now := time.Now().UnixMilli()
	if e, ok := d.cache.Get(projectID); ok && e.expires > now {
		return e, nil
	}

	project, err := d.store.GetProject(projectID)
	if err != nil {
		return staffEntry{}, err
	}
	if project == nil {
		return staffEntry{}, nil
	}

	staff, err := d.store.ListOrgUsersByRole(project.OrgID, model.RoleAdmin, model.RoleProjectManager)
	if err != nil {
		return staffEntry{}, err
	}

	e := staffEntry{
		creator: project.CreatedBy,
		staff:   staff,
		expires: now + d.ttl.Milliseconds(),
	}
	d.cache.Put(projectID, e)
	return e, nil
}

// ProjectCreator implements RoleDirectory.
func (d *StoreDirectory) ProjectCreator(projectID string) (string, error) {
	e, err := d.lookup(projectID)
	if err != nil {
		return "", err
	}
	return e.creator, nil
}

// OrgStaff implements RoleDirectory.
func (d *StoreDirectory) OrgStaff(projectID string) ([]*model.User, error) {
	e, err := d.lookup(projectID)
	if err != nil {
		return nil, err
	}
	return e.staff, nil
}

// UserName implements RoleDirectory.
func (d *StoreDirectory) UserName(userID string) string {
	if name, ok := d.names.Get(userID); ok {
		return name
	}
	u, err := d.store.GetUser(userID)
	if err != nil || u == nil {
		return userID
	}
	d.names.Put(userID, u.Name)
	return u.Name
}

// Invalidate drops cached entries for a project (after role changes).
func (d *StoreDirectory) Invalidate(projectID string) {
	d.cache.Delete(projectID)
}
