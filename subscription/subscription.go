package subscription

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/metrics"
)

const (
	SubscribedMessage        = "Subscribed successfully! Welcome email sent."
	ReactivatedMessage       = "Welcome back! Your subscription has been reactivated."
	AlreadySubscribedMessage = "This email is already subscribed."
	UnsubscribedMessage      = "You have been unsubscribed. Thank you."
	UnsubscribeFailedMessage = "Unable to unsubscribe at this time."
	DatabaseErrorMessage     = "Database error"
)

// Service runs the subscribe and unsubscribe workflows
type Service struct {
	subscribers mailroom.SubscriberService
	notifier    mailroom.NotificationService
	metrics     *metrics.Metrics
	log         zerolog.Logger

	now      func() time.Time
	newToken func() string
}

func NewService(subscribers mailroom.SubscriberService, notifier mailroom.NotificationService, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		subscribers: subscribers,
		notifier:    notifier,
		metrics:     m,
		log:         logger.With().Str("component", "subscription").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
		newToken:    func() string { return uuid.NewV4().String() },
	}
}

// Subscribe creates or reactivates the subscriber of req.Email. The welcome and operator emails
// are sent only when the record is created; their failures are logged and do not fail the call.
func (s *Service) Subscribe(ctx context.Context, req mailroom.SubscribeRequest, siteURL string) (*mailroom.SubscriptionResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.metrics.RecordSubscribe("invalid")
		return nil, err
	}

	sub, result, err := s.subscribers.Upsert(ctx, mailroom.NewSubscriber(req.Email, s.newToken(), req.Source, s.now()))
	if err != nil {
		s.metrics.RecordSubscribe("error")
		s.log.Error().Err(err).Str("email", req.Email).Msg("Database error while creating subscriber")
		return nil, &mailroom.Error{Code: mailroom.ErrInternal, Message: DatabaseErrorMessage, Op: "subscription.Subscribe", Err: err}
	}
	s.metrics.RecordSubscribe(result.String())

	switch result {
	case mailroom.Reactivated:
		s.log.Info().Str("email", sub.Email).Msg("subscriber reactivated")
		return &mailroom.SubscriptionResponse{Success: true, Message: ReactivatedMessage}, nil
	case mailroom.AlreadyActive:
		return &mailroom.SubscriptionResponse{Success: true, Message: AlreadySubscribedMessage}, nil
	}

	s.log.Info().Str("email", sub.Email).Str("source", sub.SourcePage).Msg("subscriber created")

	err = s.notifier.SendWelcome(ctx, sub, siteURL)
	s.metrics.RecordNotification("welcome", err)
	if err != nil {
		s.log.Error().Err(err).Str("email", sub.Email).Msg("failed to send welcome email")
	}

	count, err := s.subscribers.CountActive(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count active subscribers")
	}
	err = s.notifier.SendNewSubscriber(ctx, sub, count)
	s.metrics.RecordNotification("new_subscriber", err)
	if err != nil {
		s.log.Error().Err(err).Str("email", sub.Email).Msg("failed to send operator notification")
	}

	return &mailroom.SubscriptionResponse{Success: true, Message: SubscribedMessage}, nil
}

// Unsubscribe deactivates the subscriber owning token. Unknown tokens, malformed tokens
// and store failures all yield the same ErrInternal error carrying the generic message.
func (s *Service) Unsubscribe(ctx context.Context, token string) error {
	err := s.unsubscribe(ctx, token)
	s.metrics.RecordUnsubscribe(err)
	if err != nil {
		s.log.Warn().Err(err).Str("token", token).Msg("unsubscribe failed")
		return &mailroom.Error{Code: mailroom.ErrInternal, Message: UnsubscribeFailedMessage, Op: "subscription.Unsubscribe", Err: err}
	}
	return nil
}

func (s *Service) unsubscribe(ctx context.Context, token string) error {
	if _, err := uuid.FromString(token); err != nil {
		return errors.Wrap(err, "malformed token")
	}

	sub, err := s.subscribers.FindByToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.subscribers.Deactivate(ctx, sub.UnsubscribeToken); err != nil {
		return err
	}

	s.log.Info().Str("email", sub.Email).Msg("subscriber deactivated")
	return nil
}
