package identity

import "context"

// Role names carried in session tokens.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RoleStaff   = "staff"
	RolePatient = "patient"
)

// User is the resolved identity of the current request.
type User struct {
	ID    string
	Email string
	Role  string
}

// IsClinician reports whether the user can act on appointments and payments
// on behalf of the clinic.
func (u User) IsClinician() bool {
	return u.Role == RoleAdmin || u.Role == RoleDoctor || u.Role == RoleStaff
}

type ctxKey string

const userKey ctxKey = "portal.user"

// WithUser stores the resolved user in context.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext extracts the resolved user if present.
func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	u, ok := val.(User)
	return u, ok && u.ID != ""
}

// ValidRole reports whether role is one of the portal roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RoleStaff, RolePatient:
		return true
	}
	return false
}
