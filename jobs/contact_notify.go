package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/folio-studio/folio/internal/contact"
	jobmetrics "github.com/folio-studio/folio/internal/jobs"
	"github.com/folio-studio/folio/internal/shared"
)

// SubmissionSource loads stored submissions.
type SubmissionSource interface {
	Get(ctx context.Context, id int64) (contact.Submission, error)
	Latest(ctx context.Context, limit int) ([]contact.Submission, error)
}

// ContactNotifyJob mails the site owner about contact submissions.
type ContactNotifyJob struct {
	Source    SubmissionSource
	Mailer    Mailer
	Recipient string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewContactNotifyJob initialises the notification handlers.
func NewContactNotifyJob(source SubmissionSource, mailer Mailer, recipient string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ContactNotifyJob {
	return &ContactNotifyJob{
		Source:    source,
		Mailer:    mailer,
		Recipient: recipient,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle sends one notification. Missing submissions are not retried.
func (j *ContactNotifyJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil || j.Mailer == nil {
		return errors.New("contact notify: handler not configured")
	}
	var payload ContactNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.SubmissionID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskContactNotify)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.Int64("submission_id", payload.SubmissionID))
	submission, err := j.Source.Get(ctx, payload.SubmissionID)
	if errors.Is(err, shared.ErrNotFound) {
		logger.Warn("submission vanished before notification")
		return fmt.Errorf("contact notify: %w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("contact notify: load: %w", err)
	}

	if err := j.Mailer.Send(ctx, notificationMessage(j.Recipient, submission)); err != nil {
		logger.Error("send notification", slog.Any("error", err))
		return err
	}
	logger.Info("contact notification sent", slog.Bool("flagged", submission.Flagged))
	return nil
}

// HandleDigest mails a summary of submissions received inside the window.
// Nothing is sent for an empty window.
func (j *ContactNotifyJob) HandleDigest(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil || j.Mailer == nil {
		return errors.New("contact digest: handler not configured")
	}
	var payload ContactDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 24
	}

	tracker := j.Metrics.Track(TaskContactDigest)
	defer func() {
		err = tracker.End(err)
	}()

	latest, err := j.Source.Latest(ctx, 100)
	if err != nil {
		return fmt.Errorf("contact digest: load: %w", err)
	}
	since := j.now().Add(-time.Duration(payload.WindowHours) * time.Hour)
	var recent []contact.Submission
	for _, s := range latest {
		if s.CreatedAt.After(since) {
			recent = append(recent, s)
		}
	}
	if len(recent) == 0 {
		j.logger().Info("contact digest skipped, no submissions", slog.Int("window_hours", payload.WindowHours))
		return nil
	}
	return j.Mailer.Send(ctx, digestMessage(j.Recipient, payload.WindowHours, recent))
}

func (j *ContactNotifyJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *ContactNotifyJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func notificationMessage(to string, s contact.Submission) Message {
	subject := s.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	prefix := "New contact"
	if s.Flagged {
		prefix = "[flagged] New contact"
	}
	var body strings.Builder
	fmt.Fprintf(&body, "From: %s <%s>\n", s.Name, s.Email)
	fmt.Fprintf(&body, "Received: %s\n\n", s.CreatedAt.UTC().Format(time.RFC3339))
	body.WriteString(s.Message)
	body.WriteString("\n")
	return Message{To: to, Subject: fmt.Sprintf("%s: %s", prefix, subject), Body: body.String()}
}

func digestMessage(to string, hours int, submissions []contact.Submission) Message {
	var body strings.Builder
	flagged := 0
	for _, s := range submissions {
		marker := ""
		if s.Flagged {
			flagged++
			marker = " [flagged]"
		}
		fmt.Fprintf(&body, "#%d %s <%s>%s: %s\n", s.ID, s.Name, s.Email, marker, s.Subject)
	}
	subject := fmt.Sprintf("Contact digest: %d new in %dh (%d flagged)", len(submissions), hours, flagged)
	return Message{To: to, Subject: subject, Body: body.String()}
}
