package domain

import (
	"context"
	"time"
)

// Role codes carried in access tokens.
const (
	RoleAdmin = "admin"
	RoleBuyer = "buyer"
)

// User is the contact record of a buyer. Accounts are managed elsewhere; this
// service only reads them to notify winners.
// swagger:model User
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// NewUser returns a new User with the given fields.
func NewUser(id, email, username string) *User {
	return &User{ID: id, Email: email, Username: username}
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenIssuer issues tokens (e.g. JWT) for a user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// UserDirectory resolves contact details for a user id.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*User, error)
}
