package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type QueueService struct {
	mock.Mock
}

func (m *QueueService) Publish(ctx context.Context, topic string, body []byte) error {
	args := m.Called(ctx, topic, body)
	return args.Error(0)
}

func (m *QueueService) Consume(ctx context.Context, topic string) (<-chan []byte, error) {
	args := m.Called(ctx, topic)
	ch, _ := args.Get(0).(<-chan []byte)
	return ch, args.Error(1)
}

func (m *QueueService) Close() error {
	args := m.Called()
	return args.Error(0)
}
