package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/deliverydesk/internal/database"
	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

type fakeSender struct {
	messages []*gomail.Message
	err      error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return f.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func artifactFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daily-1.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0644))
	return path
}

func TestMergeRecipients(t *testing.T) {
	got := MergeRecipients(
		[]string{" ops@example.com ", "", "Finance@Example.com"},
		[]string{"finance@example.com", "owner@example.com", "OPS@example.com"},
	)
	assert.Equal(t, []string{"ops@example.com", "Finance@Example.com", "owner@example.com"}, got)
	assert.Empty(t, MergeRecipients(nil, []string{"  "}))
}

func TestDispatchWithoutRecipientsSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcherWithSender(sender, "reports@example.com", nil, nil)

	err := d.Dispatch(context.Background(), Attachment{Path: artifactFile(t), FileName: "daily-1.csv"}, []string{" "})
	var nerr *errs.NoRecipientsError
	assert.ErrorAs(t, err, &nerr)
	assert.Empty(t, sender.messages)
}

func TestDispatchSendsOneMessageAndLogs(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{}
	d := NewDispatcherWithSender(sender, "reports@example.com", db, nil)

	err := d.Dispatch(context.Background(), Attachment{
		ArtifactID: 7,
		Title:      "Daily",
		Path:       artifactFile(t),
		FileName:   "daily-1.csv",
	}, []string{"a@example.com", "A@example.com", "b@example.com"})
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	m := sender.messages[0]
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Rapor: Daily"}, m.GetHeader("Subject"))

	var logs []models.ReportDeliveryLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, uint(7), logs[0].ArtifactID)
	assert.Equal(t, models.DispatchStatusSent, logs[0].Status)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, logs[0].Recipients)
}

func TestDispatchTransportFailure(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{err: errors.New("connection refused")}
	d := NewDispatcherWithSender(sender, "reports@example.com", db, nil)

	err := d.Dispatch(context.Background(), Attachment{ArtifactID: 3, Path: artifactFile(t), FileName: "daily-1.csv"}, []string{"a@example.com"})
	var derr *errs.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, err.Error(), "connection refused")

	var entry models.ReportDeliveryLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.DispatchStatusFailed, entry.Status)
	assert.Equal(t, "connection refused", entry.ErrorMessage)
}

type fakePoster struct {
	channel string
	calls   int
	err     error
}

func (f *fakePoster) PostMessageContext(_ context.Context, channel string, _ ...slack.MsgOption) (string, string, error) {
	f.calls++
	f.channel = channel
	return channel, "1", f.err
}

func TestSlackNotifier(t *testing.T) {
	assert.Nil(t, NewSlackNotifier("", "#reports"))

	var nilNotifier *SlackNotifier
	assert.NoError(t, nilNotifier.NotifyRun(context.Background(), RunDigest{ReportsRun: 1}))

	poster := &fakePoster{}
	s := &SlackNotifier{client: poster, channel: "#reports"}

	require.NoError(t, s.NotifyRun(context.Background(), RunDigest{}))
	assert.Equal(t, 0, poster.calls)

	require.NoError(t, s.NotifyRun(context.Background(), RunDigest{ReportsRun: 2, SuccessCount: 1, ErrorCount: 1, Failures: []string{"#4: boom"}}))
	assert.Equal(t, 1, poster.calls)
	assert.Equal(t, "#reports", poster.channel)

	poster.err = errors.New("channel_not_found")
	assert.Error(t, s.NotifyRun(context.Background(), RunDigest{ReportsRun: 1, SuccessCount: 1}))
}

func TestRunColor(t *testing.T) {
	assert.Equal(t, "#36a64f", runColor(RunDigest{ReportsRun: 1, SuccessCount: 1}))
	assert.Equal(t, "#ffcc00", runColor(RunDigest{ReportsRun: 2, SuccessCount: 1, ErrorCount: 1}))
	assert.Equal(t, "#ff0000", runColor(RunDigest{ReportsRun: 1, ErrorCount: 1}))
}
