package members

import (
	"time"

	"github.com/folio-studio/folio/internal/rbac"
)

// Member is a team member. Active members with a password can sign in to
// the admin area with their access role.
type Member struct {
	ID         int64
	Email      string
	Name       string
	Title      string
	Bio        string
	AvatarURL  string
	RoleID     *int64
	RoleName   string
	AccessRole rbac.Role
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Input carries the editable fields of a member form. Password is
// required on create and optional on update.
type Input struct {
	Email      string `validate:"required,email,max=254"`
	Name       string `validate:"required,max=120"`
	Title      string `validate:"max=120"`
	Bio        string `validate:"max=4000"`
	AvatarURL  string `validate:"omitempty,url,startswith=http"`
	RoleID     *int64 `validate:"omitempty,gt=0"`
	AccessRole string `validate:"required,oneof=ADMIN MEMBER VIEWER"`
	Password   string `validate:"omitempty,min=8,max=72"`
	IsActive   bool
}

// TeamGroup is one section of the public team page.
type TeamGroup struct {
	Role        string
	Description string
	Members     []Member
}
