package models

import (
	"fmt"
	"strings"
)

// Role is the platform role of an authenticated user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleLearner Role = "learner"
)

// IsAdmin reports whether r is the admin role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Identity is the user reported by the identity check endpoint.
type Identity struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id"`
	Username  string `json:"username"`
}

// Validate checks the fields the client depends on.
func (i *Identity) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("identity id is required")
	}
	if strings.TrimSpace(string(i.Role)) == "" {
		return fmt.Errorf("identity role is required")
	}
	return nil
}

// AuthRequirement records whether the deployment enforces authentication.
type AuthRequirement int

const (
	AuthUnknown AuthRequirement = iota
	AuthRequired
	AuthNotRequired
)

func (a AuthRequirement) String() string {
	switch a {
	case AuthRequired:
		return "required"
	case AuthNotRequired:
		return "not-required"
	default:
		return "unknown"
	}
}
