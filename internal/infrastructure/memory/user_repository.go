// Package memory provides an in-process credential store used when
// STORE_DRIVER=memory and as the backing store in service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/staff-auth/internal/domain/entity"
	"github.com/oksasatya/staff-auth/internal/domain/repository"
)

type UserRepository struct {
	mu        sync.Mutex
	bootMu    sync.Mutex
	nextID    int64
	nextEmpNo int64
	rows      map[int64]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{rows: make(map[int64]*entity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(0, u); err != nil {
		return err
	}
	r.nextID++
	u.ID = r.nextID
	row := u.Clone()
	row.Email = strings.ToLower(row.Email)
	r.rows[row.ID] = row
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.rows[id]; ok {
		return u.Clone(), nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.rows {
		if strings.ToLower(u.Email) == email {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByEmployeeID(_ context.Context, employeeID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.EmployeeID == employeeID {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *UserRepository) ListNewestFirst(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*entity.User, 0, len(r.rows))
	for _, u := range r.rows {
		list = append(list, u.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User, prevUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !cur.UpdatedAt.Equal(prevUpdatedAt) {
		return repository.ErrStale
	}
	if err := r.checkUnique(u.ID, u); err != nil {
		return err
	}
	row := u.Clone()
	row.Email = strings.ToLower(row.Email)
	r.rows[row.ID] = row
	return nil
}

func (r *UserRepository) RecordLogin(_ context.Context, id int64, at time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !row.IsActive() {
		return nil, repository.ErrNotFound
	}
	at = at.UTC().Truncate(time.Microsecond)
	row.LastLogin = &at
	row.Touch(at)
	return row.Clone(), nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *UserRepository) NextEmployeeNumber(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextEmpNo++
	return r.nextEmpNo, nil
}

// Bootstrap serializes fn against other Bootstrap calls. Writes made by fn are
// applied immediately; fn is expected to fail before writing, as it does in
// the registration flow.
func (r *UserRepository) Bootstrap(_ context.Context, fn func(tx repository.UserRepository) error) error {
	r.bootMu.Lock()
	defer r.bootMu.Unlock()
	return fn(r)
}

// checkUnique must be called with r.mu held. self is excluded from the check.
func (r *UserRepository) checkUnique(self int64, u *entity.User) error {
	email := strings.ToLower(u.Email)
	for id, row := range r.rows {
		if id == self {
			continue
		}
		if strings.ToLower(row.Email) == email {
			return fmt.Errorf("%w: users_email_lower_key", repository.ErrDuplicate)
		}
		if row.EmployeeID == u.EmployeeID {
			return fmt.Errorf("%w: users_employee_id_key", repository.ErrDuplicate)
		}
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
