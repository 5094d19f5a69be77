package smtp

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/annweb/mailroom"
)

type mailService struct {
	send func(m ...*gomail.Message) error
	log  zerolog.Logger
}

// NewMailService returns a mail transport that delivers through the configured SMTP relay
func NewMailService(config *mailroom.Config, logger zerolog.Logger) mailroom.MailService {
	d := gomail.NewDialer(config.SMTP.Host, config.SMTP.Port, config.SMTP.Username, config.SMTP.Password)
	return &mailService{
		send: d.DialAndSend,
		log:  logger.With().Str("component", "smtp").Logger(),
	}
}

// NewMailServiceWithSender returns a mail transport that hands every message to s
func NewMailServiceWithSender(s gomail.Sender, logger zerolog.Logger) mailroom.MailService {
	return &mailService{
		send: func(m ...*gomail.Message) error {
			return gomail.Send(s, m...)
		},
		log: logger.With().Str("component", "smtp").Logger(),
	}
}

// Send sends a message with a plain text body and an optional HTML alternative
func (ms *mailService) Send(ctx context.Context, msg *mailroom.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := NewMessage(msg)
	if err != nil {
		return err
	}

	if err := ms.send(m); err != nil {
		return errors.Errorf("failed to send mail to %d recipients: %v", len(msg.Recipients()), err)
	}

	ms.log.Debug().
		Str("subject", msg.Subject).
		Int("recipients", len(msg.Recipients())).
		Msg("mail sent")

	return nil
}

// NewMessage builds the MIME message for msg
func NewMessage(msg *mailroom.Message) (*gomail.Message, error) {
	if msg.From == "" {
		return nil, errors.New("sender address is required")
	}
	if len(msg.To) == 0 && len(msg.Bcc) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	if len(msg.To) > 0 {
		m.SetHeader("To", msg.To...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	return m, nil
}
