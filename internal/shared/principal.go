package shared

import "strconv"

// Principal is the authenticated actor carried by a session or bearer token.
type Principal struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IDString renders the principal ID for audit and session storage.
func (p *Principal) IDString() string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(p.ID, 10)
}

// Valid reports whether the principal identifies a member.
func (p *Principal) Valid() bool {
	return p != nil && p.ID > 0 && p.Role != ""
}
