package projects

import (
	"time"

	"github.com/folio-studio/folio/internal/shared"
)

// Status is the publication state of a project.
type Status string

// Publication states.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Project is a portfolio entry.
type Project struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TechStack   []string  `json:"tech_stack"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	Featured    bool      `json:"featured"`
	ImageURL    string    `json:"image_url"`
	DemoURL     string    `json:"demo_url"`
	RepoURL     string    `json:"repo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Published reports whether the project is visible on the public site.
func (p Project) Published() bool { return p.Status == StatusPublished }

// Input carries the editable fields of a project form.
type Input struct {
	Title       string
	Slug        string
	Description string
	TechStack   []string
	Category    string
	Status      string
	Featured    bool
	DemoURL     string
	RepoURL     string
}

// ListFilters narrows project listings.
type ListFilters struct {
	shared.ListFilters
	Status   Status
	Category string
	Featured *bool
}

// Counts summarises projects by status.
type Counts struct {
	Total     int
	Published int
	Draft     int
}
