package mailroom

import "context"

type QueueService interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Consume(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}
