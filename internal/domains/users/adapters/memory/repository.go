package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

type userRecord struct {
	user      domain.User
	createdAt time.Time
	updatedAt time.Time
}

// Repository keeps users in process memory.
type Repository struct {
	mu     sync.RWMutex
	users  map[int64]userRecord
	nextID int64
	now    func() time.Time
}

// NewRepository returns an empty user repository.
func NewRepository() *Repository {
	return &Repository{users: map[int64]userRecord{}, now: time.Now}
}

// Insert stores a new user, enforcing unique email and phone number.
func (r *Repository) Insert(_ context.Context, user *domain.User) (*usertypes.UserProjection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.users {
		if rec.user.Email == user.Email {
			return nil, ports.ErrDuplicateEmail
		}
		if rec.user.PhoneNumber == user.PhoneNumber {
			return nil, ports.ErrDuplicatePhone
		}
	}
	r.nextID++
	now := r.now().UTC()
	rec := userRecord{user: *user, createdAt: now, updatedAt: now}
	rec.user.ID = r.nextID
	r.users[rec.user.ID] = rec
	return rec.project(), nil
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(_ context.Context, id int64) (*usertypes.UserProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return rec.project(), nil
}

// GetByEmail fetches a user by normalized email.
func (r *Repository) GetByEmail(_ context.Context, email string) (*usertypes.UserProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.users {
		if rec.user.Email == email {
			return rec.project(), nil
		}
	}
	return nil, ports.ErrNotFound
}

// List returns every user ordered by id.
func (r *Repository) List(_ context.Context) ([]*usertypes.UserProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*usertypes.UserProjection, 0, len(r.users))
	for _, rec := range r.users {
		out = append(out, rec.project())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity.ID < out[j].Entity.ID })
	return out, nil
}

// UpdateRole changes a user's role.
func (r *Repository) UpdateRole(_ context.Context, id int64, role authz.Role) (*usertypes.UserProjection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	rec.user.AssignRole(role)
	rec.updatedAt = r.now().UTC()
	r.users[id] = rec
	return rec.project(), nil
}

// Delete removes a user.
func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (rec userRecord) project() *usertypes.UserProjection {
	user := rec.user
	return usertypes.NewUserProjection(&user, rec.createdAt, rec.updatedAt)
}

var _ ports.Repository = (*Repository)(nil)
