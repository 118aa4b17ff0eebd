package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"research-review-api/models"
)

// Notice is one workflow notification addressed to a single user.
type Notice struct {
	RecipientID int
	PaperID     string
	Kind        string
	Title       string
	Message     string
}

// Notifier delivers a single notice.
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

// Dispatcher fans notices out without blocking the caller. Delivery failures
// are the dispatcher's concern and never reach the workflow.
type Dispatcher interface {
	Dispatch(ctx context.Context, notices []Notice)
}

// AsyncDispatcher delivers each batch on its own goroutine.
type AsyncDispatcher struct {
	notifier Notifier
	logger   zerolog.Logger
	metrics  *WorkflowMetrics
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewAsyncDispatcher builds a dispatcher; timeout bounds one batch.
func NewAsyncDispatcher(notifier Notifier, logger zerolog.Logger, metrics *WorkflowMetrics, timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncDispatcher{
		notifier: notifier,
		logger:   logger.With().Str("component", "notification_dispatcher").Logger(),
		metrics:  metrics,
		timeout:  timeout,
	}
}

func (d *AsyncDispatcher) Dispatch(ctx context.Context, notices []Notice) {
	if len(notices) == 0 {
		return
	}
	batch := append([]Notice(nil), notices...)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(persistentContext(ctx), d.timeout)
		defer cancel()
		for _, n := range batch {
			if err := d.notifier.Notify(ctx, n); err != nil {
				d.metrics.effectFailed("notify")
				d.logger.Warn().Err(err).
					Str("paper_id", n.PaperID).
					Str("kind", n.Kind).
					Int("recipient_id", n.RecipientID).
					Msg("notification delivery failed")
				continue
			}
			d.metrics.notificationSent(n.Kind)
		}
	}()
}

// Wait blocks until every dispatched batch has finished.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// MultiNotifier delivers to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, notice Notice) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MailSender sends one HTML email.
type MailSender func(to []string, subject, html string) error

// UserLookup resolves a user row by id.
type UserLookup interface {
	GetUser(ctx context.Context, userID int) (*models.User, error)
}

// MailNotifier emails the recipient using the address on their user row.
type MailNotifier struct {
	users UserLookup
	send  MailSender
}

func NewMailNotifier(users UserLookup, send MailSender) *MailNotifier {
	return &MailNotifier{users: users, send: send}
}

func (n *MailNotifier) Notify(ctx context.Context, notice Notice) error {
	user, err := n.users.GetUser(ctx, notice.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve recipient %d: %w", notice.RecipientID, err)
	}
	if strings.TrimSpace(user.Email) == "" {
		return nil
	}
	html := buildNoticeEmailHTML(notice.Title, user.DisplayName(), notice.Message)
	if err := n.send([]string{user.Email}, notice.Title, html); err != nil {
		return fmt.Errorf("send mail to %s: %w", user.Email, err)
	}
	return nil
}

func buildNoticeEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "colleague"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
