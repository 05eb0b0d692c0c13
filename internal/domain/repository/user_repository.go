package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/staff-auth/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates the email or employee id uniqueness.
	ErrDuplicate = errors.New("duplicate")
	// ErrStale is returned when a row changed between read and write.
	ErrStale = errors.New("stale write")
)

// UserRepository defines the interface for user-related database operations.
// Email lookups are case-insensitive; implementations store emails lowercased.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*entity.User, error)
	Count(ctx context.Context) (int64, error)
	// ListNewestFirst returns every user ordered by created_at descending.
	ListNewestFirst(ctx context.Context) ([]*entity.User, error)
	// Update writes u only if the stored updated_at still equals prevUpdatedAt,
	// otherwise it returns ErrStale.
	Update(ctx context.Context, u *entity.User, prevUpdatedAt time.Time) error
	// RecordLogin sets last_login on an active account and returns the fresh row.
	// It returns ErrNotFound when the account is gone or no longer active.
	RecordLogin(ctx context.Context, id int64, at time.Time) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
	// NextEmployeeNumber draws a value from a monotonically increasing sequence
	// used for placeholder employee ids.
	NextEmployeeNumber(ctx context.Context) (int64, error)
	// Bootstrap runs fn with a repository bound to a single transaction that holds
	// an exclusive bootstrap lock, so concurrent first-user registrations serialize.
	// The transaction commits only if fn returns nil.
	Bootstrap(ctx context.Context, fn func(tx UserRepository) error) error
}
