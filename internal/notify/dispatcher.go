package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	From     string
	Username string
	Password string
}

// Attachment is a rendered report file ready to be mailed.
type Attachment struct {
	ArtifactID uint
	Title      string
	Path       string
	FileName   string
}

// Dispatcher mails rendered reports and records every attempt.
type Dispatcher struct {
	sender Sender
	from   string
	db     *gorm.DB
	logger *slog.Logger
}

func NewDispatcher(cfg EmailConfig, db *gorm.DB, logger *slog.Logger) *Dispatcher {
	username := cfg.Username
	if username == "" {
		username = cfg.From
	}
	return NewDispatcherWithSender(gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, username, cfg.Password), cfg.From, db, logger)
}

func NewDispatcherWithSender(sender Sender, from string, db *gorm.DB, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender: sender,
		from:   from,
		db:     db,
		logger: logger.With("component", "dispatcher"),
	}
}

// MergeRecipients trims, drops blanks and removes case-insensitive
// duplicates while keeping first-seen order.
func MergeRecipients(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, r := range list {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			key := strings.ToLower(r)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// Dispatch sends one message carrying the artifact to all recipients.
// No transport call is made when the recipient list is empty.
func (d *Dispatcher) Dispatch(ctx context.Context, a Attachment, recipients []string) error {
	recipients = MergeRecipients(recipients)
	if len(recipients) == 0 {
		return &errs.NoRecipientsError{}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	title := a.Title
	if title == "" {
		title = a.FileName
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", "Rapor: "+title)
	m.SetBody("text/plain", fmt.Sprintf("Merhaba,\n\n%s raporu ektedir.\n\nDeliveryDesk", title))
	m.Attach(a.Path, gomail.Rename(a.FileName))

	sendErr := d.sender.DialAndSend(m)
	d.record(ctx, a, recipients, sendErr)

	if sendErr != nil {
		d.logger.Error("report dispatch failed",
			"file", a.FileName,
			"recipients", len(recipients),
			"error", sendErr)
		return &errs.DispatchError{Err: sendErr}
	}

	d.logger.Info("report dispatched",
		"file", a.FileName,
		"recipients", len(recipients))
	return nil
}

func (d *Dispatcher) record(ctx context.Context, a Attachment, recipients []string, sendErr error) {
	if d.db == nil || a.ArtifactID == 0 {
		return
	}
	entry := models.ReportDeliveryLog{
		ArtifactID: a.ArtifactID,
		Recipients: recipients,
		Status:     models.DispatchStatusSent,
	}
	if sendErr != nil {
		entry.Status = models.DispatchStatusFailed
		entry.ErrorMessage = sendErr.Error()
	}
	if err := d.db.WithContext(ctx).Create(&entry).Error; err != nil {
		d.logger.Warn("failed to record dispatch", "artifact_id", a.ArtifactID, "error", err)
	}
}
