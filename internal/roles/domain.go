package roles

import "time"

// Role is a team position shown on the public team page. It is unrelated
// to the access role that gates the admin area.
type Role struct {
	ID          int64
	Name        string
	Description string
	SortOrder   int
	MemberCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Input carries the editable fields of a role form.
type Input struct {
	Name        string
	Description string
	SortOrder   int
}
