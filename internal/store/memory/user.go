package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

type userRow struct {
	user.User
}

// UserRepo implements user.Repository.
type UserRepo struct {
	s *Store
}

var _ user.Repository = (*UserRepo)(nil)

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, row := range r.s.users {
		if row.Email == email {
			u := row.User
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u := row.User
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, row := range r.s.users {
		if row.Email == u.Email {
			return user.ErrEmailAlreadyUsed
		}
	}

	u.ID = uuid.NewString()
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = &userRow{User: *u}
	return nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	row.LastLoginAt = &t
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	row.DisplayName = u.DisplayName
	row.IsActive = u.IsActive
	row.IsSystemAdmin = u.IsSystemAdmin
	return nil
}
