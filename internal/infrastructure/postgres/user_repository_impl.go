package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/staff-auth/internal/domain/entity"
	"github.com/oksasatya/staff-auth/internal/domain/repository"
)

// bootstrapLockKey identifies the advisory lock guarding first-user registration.
const bootstrapLockKey int64 = 0x75736572626f6f74

const userColumns = `id, name, email, department, employee_id, role, status, password_hash, created_at, updated_at, last_login`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool, db: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, department, employee_id, role, status, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, u.Name, strings.ToLower(u.Email), u.Department, u.EmployeeID, string(u.Role), string(u.Status),
		u.PasswordHash, u.CreatedAt, u.UpdatedAt, u.LastLogin)

	if err := row.Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, constraintName(err))
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, strings.TrimSpace(email))
}

func (r *UserRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE employee_id = $1`, employeeID)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) ListNewestFirst(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User, prevUpdatedAt time.Time) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, department = $4, employee_id = $5, role = $6, status = $7,
		    password_hash = $8, updated_at = $9, last_login = $10
		WHERE id = $1 AND updated_at = $11
	`, u.ID, u.Name, strings.ToLower(u.Email), u.Department, u.EmployeeID, string(u.Role), string(u.Status),
		u.PasswordHash, u.UpdatedAt, u.LastLogin, prevUpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, constraintName(err))
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, u.ID).Scan(&exists); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if exists {
		return repository.ErrStale
	}
	return repository.ErrNotFound
}

// RecordLogin only touches last_login and updated_at, so concurrent edits to
// other columns are never overwritten.
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users
		SET last_login = $2, updated_at = GREATEST(updated_at + interval '1 microsecond', $2)
		WHERE id = $1 AND status = 'active'
		RETURNING `+userColumns, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("record login: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) NextEmployeeNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('users_employee_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next employee number: %w", err)
	}
	return n, nil
}

// Bootstrap runs fn inside a transaction holding a transaction-scoped advisory
// lock. A repository already bound to a transaction reuses it.
func (r *UserRepository) Bootstrap(ctx context.Context, fn func(tx repository.UserRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockKey); err != nil {
			return fmt.Errorf("acquire bootstrap lock: %w", err)
		}
		return fn(&UserRepository{pool: r.pool, db: tx, inTx: true})
	})
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u         entity.User
		role      string
		status    string
		lastLogin *time.Time
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Department, &u.EmployeeID, &role, &status,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &lastLogin); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	u.Status = entity.Status(status)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if lastLogin != nil {
		t := lastLogin.UTC()
		u.LastLogin = &t
	}
	return &u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
