package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annweb/mailroom"
)

type recordingMailer struct {
	sent []*mailroom.Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, m *mailroom.Message) error {
	r.sent = append(r.sent, m)
	return r.err
}

func newTestService(mailer mailroom.MailService) mailroom.NotificationService {
	config := &mailroom.Config{}
	config.Mail.From = "hello@example.com"
	config.Mail.Operator = "owner@example.com"
	config.Newsletter.Product.Name = "Ann"
	config.Newsletter.Product.Link = "https://example.com"
	return NewNotificationService(mailer, config, zerolog.Nop())
}

func TestSendWelcome(t *testing.T) {
	mailer := &recordingMailer{}
	ns := newTestService(mailer)

	sub := mailroom.NewSubscriber("a@x.io", "5b1c6d39-76a4-4f0b-9d2e-2c37c3e64a4f", "/about/", time.Now())
	require.NoError(t, ns.SendWelcome(context.Background(), sub, "https://example.com/"))

	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, "hello@example.com", m.From)
	assert.Equal(t, []string{"a@x.io"}, m.To)
	assert.Empty(t, m.Bcc)
	assert.Contains(t, m.Subject, "Welcome to Ann")
	assert.Contains(t, m.Text, "https://example.com/unsubscribe/5b1c6d39-76a4-4f0b-9d2e-2c37c3e64a4f/")
	assert.Contains(t, m.HTML, "https://example.com/unsubscribe/5b1c6d39-76a4-4f0b-9d2e-2c37c3e64a4f/")
}

func TestSendNewSubscriber(t *testing.T) {
	mailer := &recordingMailer{}
	ns := newTestService(mailer)

	sub := mailroom.NewSubscriber("a@x.io", "token", "", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, ns.SendNewSubscriber(context.Background(), sub, 42))

	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, m.To)
	assert.Contains(t, m.Text, "Email: a@x.io")
	assert.Contains(t, m.Text, "Source: Direct")
	assert.Contains(t, m.Text, "Date: 2024-03-01 10:30")
	assert.Contains(t, m.Text, "Total Active Subscribers: 42")
	assert.Empty(t, m.HTML)
}

func TestSendContactNotification(t *testing.T) {
	mailer := &recordingMailer{}
	ns := newTestService(mailer)

	msg := &mailroom.ContactMessage{FullName: "Jane Doe", Email: "jane@x.io", Message: "Hi"}
	require.NoError(t, ns.SendContactNotification(context.Background(), msg))

	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, m.To)
	assert.Equal(t, "📨 New Contact Form Message from Jane Doe", m.Subject)
	assert.Contains(t, m.Text, "Phone: Not provided")
	assert.Contains(t, m.Text, "Message:\nHi")
}

func TestSendContactConfirmation(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("connection refused")}
	ns := newTestService(mailer)

	msg := &mailroom.ContactMessage{FullName: "Jane Doe", Email: "jane@x.io", Message: "Hi"}
	err := ns.SendContactConfirmation(context.Background(), msg)
	assert.EqualError(t, err, "connection refused")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"jane@x.io"}, mailer.sent[0].To)
	assert.NotEmpty(t, mailer.sent[0].HTML)
}

func TestUnsubscribeURL(t *testing.T) {
	assert.Equal(t, "https://a.io/unsubscribe/tok/", UnsubscribeURL("https://a.io/", "tok"))
	assert.Equal(t, "https://a.io/unsubscribe/tok/", UnsubscribeURL("https://a.io", "tok"))
}

func TestOperatorFallsBackToSender(t *testing.T) {
	config := &mailroom.Config{}
	config.Mail.From = "hello@example.com"
	mailer := &recordingMailer{}
	ns := NewNotificationService(mailer, config, zerolog.Nop())

	sub := mailroom.NewSubscriber("foo@bar.com", "token", "", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, ns.SendNewSubscriber(context.Background(), sub, 1))
	require.NoError(t, ns.SendContactNotification(context.Background(), &mailroom.ContactMessage{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Message:  "Hi",
	}))

	require.Len(t, mailer.sent, 2)
	for _, m := range mailer.sent {
		assert.Equal(t, []string{"hello@example.com"}, m.To)
	}
}
