package domain

import "fmt"

// Role of the acting user, taken from request headers set by the gateway
type Role string

const (
	RoleUser         Role = "user"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
)

// ParseRole parses a role name
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleProfessional, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor the identity on whose behalf an operation runs
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin returns true for the moderation role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsProfessional returns true for professionals
func (a Actor) IsProfessional() bool {
	return a.Role == RoleProfessional
}

// CanManageProfessional returns true if the actor may act for the professional
func (a Actor) CanManageProfessional(professionalID int64) bool {
	return a.IsAdmin() || (a.IsProfessional() && a.UserID == professionalID)
}

// CanActForUser returns true if the actor may act for the user
func (a Actor) CanActForUser(userID int64) bool {
	return a.IsAdmin() || a.UserID == userID
}

// SystemActor is used for transitions triggered by the payment gateway or the expiry sweep
var SystemActor = Actor{UserID: 0, Role: RoleAdmin}
