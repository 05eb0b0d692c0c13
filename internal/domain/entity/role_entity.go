package entity

// Role tiers: user < manager < admin.
// Managers share the administrative privileges of admins except role
// reassignment, status transitions through the status endpoint, and deletion.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// ParseRole validates s against the known roles.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleManager, RoleAdmin:
		return r, true
	}
	return "", false
}

// IsPrivileged reports whether the role may administer other accounts.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleManager
}

// IsAdmin reports whether the role is the top tier.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
