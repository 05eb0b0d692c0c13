package application

import (
	"github.com/oksasatya/staff-auth/internal/domain/entity"
)

// Decision is the outcome of a guard: either Authorized with the caller, or
// Denied with a reason.
type Decision struct {
	Caller *entity.User
	Reason error
}

func (d Decision) Authorized() bool { return d.Reason == nil }

// Guard evaluates an authenticated caller.
type Guard func(caller *entity.User) Decision

func allow(caller *entity.User) Decision { return Decision{Caller: caller} }

func deny(caller *entity.User, msg string) Decision {
	return Decision{Caller: caller, Reason: newError(ErrForbidden, "%s", msg)}
}

// RequirePrivileged admits admins and managers.
func RequirePrivileged() Guard {
	return func(caller *entity.User) Decision {
		if caller.Role.IsPrivileged() {
			return allow(caller)
		}
		return deny(caller, "Admin privileges required")
	}
}

// RequireAdmin admits admins only.
func RequireAdmin() Guard {
	return func(caller *entity.User) Decision {
		if caller.Role.IsAdmin() {
			return allow(caller)
		}
		return deny(caller, "Administrator role required")
	}
}

// RequireSelfOrPrivileged admits the owner of targetID, admins and managers.
func RequireSelfOrPrivileged(targetID int64) Guard {
	return func(caller *entity.User) Decision {
		if caller.ID == targetID || caller.Role.IsPrivileged() {
			return allow(caller)
		}
		return deny(caller, "Access denied")
	}
}

// Authorize runs guards in order and returns the first denial. A nil caller is
// always denied.
func Authorize(caller *entity.User, guards ...Guard) Decision {
	if caller == nil {
		return Decision{Reason: newError(ErrForbidden, "Access denied")}
	}
	for _, g := range guards {
		if d := g(caller); !d.Authorized() {
			return d
		}
	}
	return allow(caller)
}
