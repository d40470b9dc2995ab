package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.sr.ht/~aondrejcak/wellness-api/models"
)

// MemoryStore keeps records in process memory. It is used by tests and by
// local tooling that has no database at hand.
type MemoryStore struct {
	mu          sync.Mutex
	admins      map[string]models.Admin
	permissions map[string]models.Permission
	writes      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		admins:      make(map[string]models.Admin),
		permissions: make(map[string]models.Permission),
	}
}

func (s *MemoryStore) FindAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.admins[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) CreateAdmin(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[admin.Email]; ok {
		return ErrDuplicate
	}
	stampAdmin(admin)
	s.admins[admin.Email] = *admin
	s.writes++
	return nil
}

func (s *MemoryStore) FindPermissionByKey(_ context.Context, key string) (*models.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.permissions[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) CreatePermission(_ context.Context, permission *models.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.permissions[permission.Key]; ok {
		return ErrDuplicate
	}
	stampPermission(permission)
	s.permissions[permission.Key] = *permission
	s.writes++
	return nil
}

func (s *MemoryStore) ListPermissions(_ context.Context) ([]models.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) EnsureIndexes(context.Context) error { return nil }

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

// Admins returns a snapshot of every stored admin.
func (s *MemoryStore) Admins() []models.Admin {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// Writes counts successful inserts since the store was created.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func stampAdmin(a *models.Admin) {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Permissions == nil {
		a.Permissions = []string{}
	}
}

func stampPermission(p *models.Permission) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}
