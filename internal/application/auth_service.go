package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oksasatya/staff-auth/internal/domain/entity"
	repo "github.com/oksasatya/staff-auth/internal/domain/repository"
	"github.com/oksasatya/staff-auth/pkg/helpers"
)

// MinPasswordLength applies to every password chosen by a person.
const MinPasswordLength = 8

type AuthService struct {
	Repo repo.UserRepository
	JWT  *helpers.JWTManager
	dir  directory
}

func NewAuthService(d Deps) *AuthService {
	return &AuthService{Repo: d.Repo, JWT: d.JWT, dir: newDirectory(d)}
}

type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Department      string `json:"department"`
	EmployeeID      string `json:"employee_id"`
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkPassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return validationError("Password must be at least %d characters long", MinPasswordLength)
	}
	if password != confirm {
		return validationError("Passwords do not match")
	}
	return nil
}

// Column limits of the users table.
const (
	MaxNameLength       = 100
	MaxEmailLength      = 100
	MaxDepartmentLength = 50
	MaxEmployeeIDLength = 50
)

func tooLong(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return validationError("%s must be at most %d characters", field, max)
	}
	return nil
}

// checkLengths validates the stored attributes; empty values are skipped.
func checkLengths(name, email, department, employeeID string) error {
	for _, err := range []error{
		tooLong("Name", name, MaxNameLength),
		tooLong("Email", email, MaxEmailLength),
		tooLong("Department", department, MaxDepartmentLength),
		tooLong("Employee ID", employeeID, MaxEmployeeIDLength),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Register creates a pending account. The very first account ever created
// becomes an active admin; the check and the insert share one serialized
// transaction so two concurrent registrations cannot both bootstrap.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	employeeID := strings.TrimSpace(in.EmployeeID)
	department := strings.TrimSpace(in.Department)
	if name == "" || email == "" || in.Password == "" || in.ConfirmPassword == "" || department == "" || employeeID == "" {
		return nil, validationError("All fields are required")
	}
	if err := checkLengths(name, email, department, employeeID); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Name:         name,
		Email:        email,
		Department:   department,
		EmployeeID:   employeeID,
		Role:         entity.RoleUser,
		Status:       entity.StatusPending,
		PasswordHash: hash,
	}

	err = s.Repo.Bootstrap(ctx, func(tx repo.UserRepository) error {
		if err := ensureEmailFree(ctx, tx, email, 0); err != nil {
			return err
		}
		if err := ensureEmployeeIDFree(ctx, tx, employeeID, 0); err != nil {
			return err
		}
		n, err := tx.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			u.Role = entity.RoleAdmin
			u.Status = entity.StatusActive
		}
		now := s.dir.now().UTC().Truncate(time.Microsecond)
		u.CreatedAt = now
		u.UpdatedAt = now
		return tx.Create(ctx, u)
	})
	if err != nil {
		return nil, translateWriteError(err)
	}

	s.dir.logger.WithField("user_id", u.ID).WithField("role", u.Role).Info("user registered")
	s.dir.changed(ctx, u)
	s.dir.notify(ctx, EventAccountRegistered, u)
	return u, nil
}

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var (
	dummyHashOnce sync.Once
	dummyHash     string
)

func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = helpers.HashPassword("not-a-real-password")
	})
	helpers.CompareHashAndPassword(dummyHash, password)
}

// Login verifies credentials and returns a signed token. Unknown email and
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password are required")
	}

	u, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		equalizeTiming(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, newError(ErrAccountNotActive, "Your account is pending approval by administrator")
	}

	// The account may have been deactivated while the password was checked.
	u, err = s.Repo.RecordLogin(ctx, u.ID, s.dir.now().UTC().Truncate(time.Microsecond))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(ErrAccountNotActive, "Your account is pending approval by administrator")
	}
	if err != nil {
		return nil, err
	}

	token, exp, err := s.JWT.Issue(u.ID, u.Email)
	if err != nil {
		s.dir.logger.WithError(err).WithField("user_id", u.ID).Error("issue token failed")
		return nil, err
	}

	s.dir.logger.WithField("user_id", u.ID).Info("user logged in")
	s.dir.invalidate(ctx)
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Authenticate resolves a bearer token to a current, active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, newError(ErrMalformedToken, "Token is missing")
	}
	claims, err := s.JWT.Decode(token)
	switch {
	case errors.Is(err, helpers.ErrExpiredToken):
		return nil, newError(ErrExpiredToken, "Token has expired")
	case err != nil:
		return nil, newError(ErrMalformedToken, "Invalid token")
	}

	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(ErrUserNotFound, "User not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, newError(ErrAccountNotActive, "Account is not active. Please wait for administrator approval.")
	}
	return u, nil
}

func ensureEmailFree(ctx context.Context, r repo.UserRepository, email string, selfID int64) error {
	other, err := r.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return conflictError("Email already in use")
	}
	return nil
}

func ensureEmployeeIDFree(ctx context.Context, r repo.UserRepository, employeeID string, selfID int64) error {
	other, err := r.GetByEmployeeID(ctx, employeeID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return conflictError("Employee ID already in use")
	}
	return nil
}

// translateWriteError maps uniqueness violations and lost races caught by the
// store to Conflict.
func translateWriteError(err error) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return conflictError("Email or employee ID already in use")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newError(ErrNotFound, "User not found")
	}
	if errors.Is(err, repo.ErrStale) {
		return conflictError("User was modified by another request, please retry")
	}
	return err
}
