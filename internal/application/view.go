package application

import (
	"time"

	"github.com/oksasatya/staff-auth/internal/domain/entity"
)

// UserView is the serialized form of a user. It never includes the password hash.
// Timestamps are UTC and marshal as RFC 3339 (ISO-8601).
type UserView struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Department string        `json:"department"`
	EmployeeID string        `json:"employee_id"`
	Role       entity.Role   `json:"role"`
	Status     entity.Status `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	LastLogin  *time.Time    `json:"last_login"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func ToView(u *entity.User) UserView {
	v := UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Department: u.Department,
		EmployeeID: u.EmployeeID,
		Role:       u.Role,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt.UTC(),
		UpdatedAt:  u.UpdatedAt.UTC(),
	}
	if u.LastLogin != nil {
		t := u.LastLogin.UTC()
		v.LastLogin = &t
	}
	return v
}

func toViews(users []*entity.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, ToView(u))
	}
	return out
}
