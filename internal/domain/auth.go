package domain

import "time"

// Caller is the resolved identity attached to every authenticated request.
type Caller struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller acts with admin rights.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Credential is a signed bearer token handed to clients.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}
