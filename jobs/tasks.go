package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskContactNotify mails the site owner about a new contact submission.
	TaskContactNotify = "contact:notify"
	// TaskContactDigest mails a summary of the last day's submissions.
	TaskContactDigest = "contact:digest"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ContactNotifyPayload identifies the submission to announce.
type ContactNotifyPayload struct {
	SubmissionID int64 `json:"submission_id"`
}

// ContactDigestPayload configures the digest window.
type ContactDigestPayload struct {
	WindowHours int `json:"window_hours"`
}

// NewContactNotifyTask constructs an Asynq task.
func NewContactNotifyTask(submissionID int64) (*asynq.Task, error) {
	data, err := json.Marshal(ContactNotifyPayload{SubmissionID: submissionID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContactNotify, data), nil
}

// NewContactDigestTask constructs the scheduled digest task.
func NewContactDigestTask(windowHours int) (*asynq.Task, error) {
	data, err := json.Marshal(ContactDigestPayload{WindowHours: windowHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContactDigest, data), nil
}
