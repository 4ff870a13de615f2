package auth

import (
	"time"

	"github.com/folio-studio/folio/internal/shared"
)

// Account is the sign-in view of a member row.
type Account struct {
	ID           int64
	Email        string
	Name         string
	AccessRole   string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal converts the account into the session identity.
func (a *Account) Principal() *shared.Principal {
	return &shared.Principal{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.AccessRole}
}

const (
	// SignInPath is the admin sign-in page.
	SignInPath = "/admin/auth/signin"
	// CallbackParam carries the page to return to after signing in.
	CallbackParam = "callbackUrl"
)
