package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/internal/domain/entity"
	repo "github.com/oksasatya/staff-auth/internal/domain/repository"
	"github.com/oksasatya/staff-auth/pkg/helpers"
)

// Listing sources reported to clients.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
	SourceIndex    = "index"
	SourceDisabled = "disabled"
)

const (
	DefaultDepartment = "general"
	defaultSearchSize = 20
	maxSearchSize     = 100
)

type UserService struct {
	Repo repo.UserRepository
	dir  directory
}

func NewUserService(d Deps) *UserService {
	return &UserService{Repo: d.Repo, dir: newDirectory(d)}
}

type ListResult struct {
	Users  []UserView
	Source string
}

// CreateUserInput carries an administrative create. Empty strings mean omitted.
type CreateUserInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Department      string `json:"department"`
	EmployeeID      string `json:"employee_id"`
	Role            string `json:"role"`
	Status          string `json:"status"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type CreateUserResult struct {
	User *entity.User
	// TempPassword is set only when the server generated the password.
	TempPassword string
}

// UpdateUserInput carries a partial update. Nil fields are left untouched.
type UpdateUserInput struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Department      *string `json:"department"`
	EmployeeID      *string `json:"employee_id"`
	Role            *string `json:"role"`
	Status          *string `json:"status"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirm_password"`
}

// ListUsers returns every user, newest first, for admins and managers, and
// only the caller otherwise. Results are cached per caller.
func (s *UserService) ListUsers(ctx context.Context, caller *entity.User) (*ListResult, error) {
	if d := Authorize(caller); !d.Authorized() {
		return nil, d.Reason
	}

	key := listCacheKey(caller.ID)
	if s.dir.cache != nil {
		var cached []UserView
		hit, err := s.dir.cache.Get(ctx, key, &cached)
		if err != nil {
			s.dir.logger.WithError(err).WithField("key", key).Warn("directory cache read failed")
		}
		if hit {
			return &ListResult{Users: cached, Source: SourceCache}, nil
		}
	}

	var views []UserView
	if caller.Role.IsPrivileged() {
		users, err := s.Repo.ListNewestFirst(ctx)
		if err != nil {
			return nil, err
		}
		views = toViews(users)
	} else {
		views = []UserView{ToView(caller)}
	}

	if s.dir.cache != nil {
		if err := s.dir.cache.Set(ctx, key, views, s.dir.cacheTTL); err != nil {
			s.dir.logger.WithError(err).WithField("key", key).Warn("directory cache write failed")
		}
	}
	return &ListResult{Users: views, Source: SourceDatabase}, nil
}

// CreateUser provisions an account on behalf of an admin or manager. When no
// password is supplied a temporary one is generated and returned exactly once.
func (s *UserService) CreateUser(ctx context.Context, caller *entity.User, in CreateUserInput) (*CreateUserResult, error) {
	if d := Authorize(caller, RequirePrivileged()); !d.Authorized() {
		return nil, d.Reason
	}

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, validationError("Name and email are required")
	}

	role := entity.RoleUser
	if r := strings.TrimSpace(in.Role); r != "" {
		parsed, ok := entity.ParseRole(r)
		if !ok {
			return nil, validationError("Invalid role")
		}
		role = parsed
	}
	if role != entity.RoleUser && !caller.Role.IsAdmin() {
		return nil, newError(ErrForbidden, "Only administrators can assign roles")
	}

	status := entity.StatusActive
	if st := strings.TrimSpace(in.Status); st != "" {
		parsed, ok := entity.ParseStatus(st)
		if !ok {
			return nil, validationError("Invalid status")
		}
		status = parsed
	}

	department := strings.TrimSpace(in.Department)
	if department == "" {
		department = DefaultDepartment
	}
	if err := checkLengths(name, email, department, strings.TrimSpace(in.EmployeeID)); err != nil {
		return nil, err
	}

	var (
		password string
		temp     string
	)
	if in.Password != "" {
		if err := checkPassword(in.Password, in.ConfirmPassword); err != nil {
			return nil, err
		}
		password = in.Password
	} else {
		generated, err := helpers.GenTempPassword()
		if err != nil {
			return nil, err
		}
		password, temp = generated, generated
	}

	if err := ensureEmailFree(ctx, s.Repo, email, 0); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, conflictError("User with this email already exists")
		}
		return nil, err
	}

	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		n, err := s.Repo.NextEmployeeNumber(ctx)
		if err != nil {
			return nil, err
		}
		employeeID = helpers.EmployeePlaceholder(n)
	}
	if err := ensureEmployeeIDFree(ctx, s.Repo, employeeID, 0); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.dir.now().UTC().Truncate(time.Microsecond)
	u := &entity.User{
		Name:         name,
		Email:        email,
		Department:   department,
		EmployeeID:   employeeID,
		Role:         role,
		Status:       status,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, translateWriteError(err)
	}

	s.dir.logger.WithFields(logrus.Fields{"user_id": u.ID, "created_by": caller.ID, "role": u.Role}).Info("user created")
	s.dir.changed(ctx, u)
	s.dir.notify(ctx, EventAccountCreated, u)
	return &CreateUserResult{User: u, TempPassword: temp}, nil
}

// UpdateUser applies a partial update. Callers may edit themselves; admins and
// managers may edit anyone. Department, employee id and status are applied
// only for admins and managers, role only for admins. Privileged fields sent by
// anyone else are ignored.
func (s *UserService) UpdateUser(ctx context.Context, caller *entity.User, id int64, in UpdateUserInput) (*entity.User, error) {
	if d := Authorize(caller, RequireSelfOrPrivileged(id)); !d.Authorized() {
		return nil, d.Reason
	}

	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := u.IsActive()
	prev := u.UpdatedAt

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationError("Name cannot be empty")
		}
		u.Name = name
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, validationError("Email cannot be empty")
		}
		if email != u.Email {
			if err := ensureEmailFree(ctx, s.Repo, email, u.ID); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}

	if caller.Role.IsPrivileged() {
		if in.Department != nil {
			if dep := strings.TrimSpace(*in.Department); dep != "" {
				u.Department = dep
			}
		}
		if in.EmployeeID != nil {
			emp := strings.TrimSpace(*in.EmployeeID)
			if emp == "" {
				return nil, validationError("Employee ID cannot be empty")
			}
			if emp != u.EmployeeID {
				if err := ensureEmployeeIDFree(ctx, s.Repo, emp, u.ID); err != nil {
					return nil, err
				}
				u.EmployeeID = emp
			}
		}
		if in.Status != nil {
			st, ok := entity.ParseStatus(strings.TrimSpace(*in.Status))
			if !ok {
				return nil, validationError("Invalid status")
			}
			u.Status = st
		}
	}

	if in.Role != nil && caller.Role.IsAdmin() {
		r, ok := entity.ParseRole(strings.TrimSpace(*in.Role))
		if !ok {
			return nil, validationError("Invalid role")
		}
		u.Role = r
	}

	if in.Password != nil && *in.Password != "" {
		confirm := ""
		if in.ConfirmPassword != nil {
			confirm = *in.ConfirmPassword
		}
		if err := checkPassword(*in.Password, confirm); err != nil {
			return nil, err
		}
		hash, err := helpers.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := checkLengths(u.Name, u.Email, u.Department, u.EmployeeID); err != nil {
		return nil, err
	}

	u.Touch(s.dir.now())
	if err := s.Repo.Update(ctx, u, prev); err != nil {
		return nil, translateWriteError(err)
	}

	s.dir.logger.WithFields(logrus.Fields{"user_id": u.ID, "updated_by": caller.ID}).Info("user updated")
	s.dir.changed(ctx, u)
	if !wasActive && u.IsActive() {
		s.dir.notify(ctx, EventAccountApproved, u)
	}
	return u, nil
}

// UpdateStatus sets the account status. Admins only.
func (s *UserService) UpdateStatus(ctx context.Context, caller *entity.User, id int64, status string) (*entity.User, error) {
	if d := Authorize(caller, RequireAdmin()); !d.Authorized() {
		return nil, d.Reason
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, validationError("Status is required")
	}
	st, ok := entity.ParseStatus(status)
	if !ok {
		return nil, validationError("Invalid status")
	}

	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := u.IsActive()
	prev := u.UpdatedAt
	u.Status = st
	u.Touch(s.dir.now())
	if err := s.Repo.Update(ctx, u, prev); err != nil {
		return nil, translateWriteError(err)
	}

	s.dir.logger.WithFields(logrus.Fields{"user_id": u.ID, "status": st, "updated_by": caller.ID}).Info("user status updated")
	s.dir.changed(ctx, u)
	if !wasActive && u.IsActive() {
		s.dir.notify(ctx, EventAccountApproved, u)
	}
	return u, nil
}

// DeleteUser removes an account. Admins only, and never their own account.
func (s *UserService) DeleteUser(ctx context.Context, caller *entity.User, id int64) error {
	if d := Authorize(caller, RequireAdmin()); !d.Authorized() {
		return d.Reason
	}
	if caller.ID == id {
		return validationError("Cannot delete your own account")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return translateWriteError(err)
	}

	s.dir.logger.WithFields(logrus.Fields{"user_id": id, "deleted_by": caller.ID}).Info("user deleted")
	s.dir.invalidate(ctx)
	s.dir.unindex(ctx, id)
	return nil
}

// SearchUsers runs a full-text query over the directory index. Without an
// index it returns no results and reports the source as disabled.
func (s *UserService) SearchUsers(ctx context.Context, caller *entity.User, query string, size int) (*ListResult, error) {
	if d := Authorize(caller, RequirePrivileged()); !d.Authorized() {
		return nil, d.Reason
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("Query is required")
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	if s.dir.index == nil {
		return &ListResult{Users: []UserView{}, Source: SourceDisabled}, nil
	}
	views, err := s.dir.index.Search(ctx, query, size)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []UserView{}
	}
	return &ListResult{Users: views, Source: SourceIndex}, nil
}

func (s *UserService) getUser(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(ErrNotFound, "User not found")
	}
	return u, err
}
