package contact

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/metrics"
)

const SubmittedMessage = "Message sent successfully. Thank you for contacting us!"

// Service runs the contact-form workflow
type Service struct {
	contacts mailroom.ContactService
	notifier mailroom.NotificationService
	metrics  *metrics.Metrics
	log      zerolog.Logger

	now func() time.Time
}

func NewService(contacts mailroom.ContactService, notifier mailroom.NotificationService, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		contacts: contacts,
		notifier: notifier,
		metrics:  m,
		log:      logger.With().Str("component", "contact").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores the form, then notifies the operator and the sender.
// Either email may fail without affecting the stored message.
func (s *Service) Submit(ctx context.Context, form mailroom.ContactForm) (*mailroom.ContactMessage, error) {
	form.Normalize()
	if err := form.Validate(); err != nil {
		s.metrics.RecordContact(err)
		return nil, err
	}

	msg := &mailroom.ContactMessage{
		FullName:  form.FullName,
		Phone:     form.Phone,
		Email:     form.Email,
		Message:   form.Message,
		CreatedAt: s.now(),
	}
	if err := s.contacts.Insert(ctx, msg); err != nil {
		s.metrics.RecordContact(err)
		s.log.Error().Err(err).Str("email", msg.Email).Msg("failed to store contact message")
		return nil, &mailroom.Error{Code: mailroom.ErrInternal, Message: "Server error", Op: "contact.Submit", Err: err}
	}
	s.metrics.RecordContact(nil)
	s.log.Info().Int("id", msg.ID).Str("email", msg.Email).Msg("contact message stored")

	err := s.notifier.SendContactNotification(ctx, msg)
	s.metrics.RecordNotification("contact", err)
	if err != nil {
		s.log.Error().Err(err).Int("id", msg.ID).Msg("failed to send contact notification")
	}

	err = s.notifier.SendContactConfirmation(ctx, msg)
	s.metrics.RecordNotification("contact_confirmation", err)
	if err != nil {
		s.log.Error().Err(err).Int("id", msg.ID).Str("email", msg.Email).Msg("failed to send contact confirmation")
	}

	return msg, nil
}

// MarkRead sets the read flag of the messages with the given ids and returns how many changed.
func (s *Service) MarkRead(ctx context.Context, ids []int, read bool) (int, error) {
	if len(ids) == 0 {
		return 0, mailroom.Errorf(mailroom.ErrInvalid, "No messages selected.")
	}

	n, err := s.contacts.SetRead(ctx, ids, read)
	if err != nil {
		return 0, &mailroom.Error{Code: mailroom.ErrInternal, Op: "contact.MarkRead", Err: err}
	}

	s.log.Info().Ints("ids", ids).Bool("read", read).Int("updated", n).Msg("contact messages updated")
	return n, nil
}
