package contact

import (
	"errors"
	"time"
)

// ErrMissingFields is returned when name, email or message is blank.
var ErrMissingFields = errors.New("missing required fields")

// Submission is a stored contact form entry. Submissions are append-only.
type Submission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Flagged   bool      `json:"flagged"`
	IP        string    `json:"-"`
	UserAgent string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Input is a visitor's contact request.
type Input struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,max=254"`
	Subject string `json:"subject" validate:"max=300"`
	Message string `json:"message" validate:"required,max=10000"`

	IP             string `json:"-"`
	UserAgent      string `json:"-"`
	IdempotencyKey string `json:"-"`
}

// Result reports the outcome of a submission.
type Result struct {
	ID        int64
	Duplicate bool
}

// Counts summarises stored submissions.
type Counts struct {
	Total   int
	Flagged int
}
