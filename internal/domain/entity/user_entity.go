package entity

import (
	"time"
)

// Account statuses.
const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Status is the lifecycle state of an account. Only active accounts
// may pass authentication.
type Status string

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusActive, StatusInactive:
		return st, true
	}
	return "", false
}

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in PasswordHash and never leave the service layer.
type User struct {
	ID           int64
	Name         string
	Email        string
	Department   string
	EmployeeID   string
	Role         Role
	Status       Status
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

// IsActive reports whether the account may be authenticated.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Touch advances UpdatedAt to now, keeping it strictly increasing even when
// the clock does not move between two mutations.
func (u *User) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(u.UpdatedAt) {
		now = u.UpdatedAt.Add(time.Microsecond)
	}
	u.UpdatedAt = now
}

// Clone returns a deep copy so callers can mutate without aliasing stored records.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
