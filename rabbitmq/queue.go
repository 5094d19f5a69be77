package rabbitmq

import (
	"context"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
)

type queueService struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  zerolog.Logger
}

// NewQueueService dials url and opens the channel used for both publishing and consuming.
func NewQueueService(url string, logger zerolog.Logger) (mailroom.QueueService, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "amqp.Dial")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "conn.Channel")
	}

	return &queueService{
		conn: conn,
		ch:   ch,
		log:  logger.With().Str("component", "rabbitmq").Logger(),
	}, nil
}

// declare makes sure the durable queue named topic exists.
func (s *queueService) declare(topic string) (amqp.Queue, error) {
	q, err := s.ch.QueueDeclare(
		topic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return q, errors.Wrapf(err, "failed to declare queue %s", topic)
	}
	return q, nil
}

func (s *queueService) Publish(ctx context.Context, topic string, body []byte) error {
	q, err := s.declare(topic)
	if err != nil {
		return err
	}

	err = s.ch.PublishWithContext(ctx,
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "failed to publish to %s", topic)
	}

	s.log.Debug().Str("queue", q.Name).Int("bytes", len(body)).Msg("published")
	return nil
}

func (s *queueService) Consume(ctx context.Context, topic string) (<-chan []byte, error) {
	q, err := s.declare(topic)
	if err != nil {
		return nil, err
	}

	deliveries, err := s.ch.Consume(
		q.Name,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to consume %s", topic)
	}

	messages := make(chan []byte)

	go func() {
		defer close(messages)

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					s.log.Warn().Str("queue", q.Name).Msg("delivery channel closed")
					return
				}
				select {
				case messages <- d.Body:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return messages, nil
}

func (s *queueService) Close() error {
	if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return errors.Wrap(err, "failed to close channel")
	}
	return s.conn.Close()
}
