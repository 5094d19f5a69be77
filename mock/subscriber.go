package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/annweb/mailroom"
)

type SubscriberService struct {
	mock.Mock
}

func (m *SubscriberService) Upsert(ctx context.Context, s *mailroom.Subscriber) (*mailroom.Subscriber, mailroom.UpsertResult, error) {
	args := m.Called(ctx, s)
	sub, _ := args.Get(0).(*mailroom.Subscriber)
	return sub, args.Get(1).(mailroom.UpsertResult), args.Error(2)
}

func (m *SubscriberService) FindByToken(ctx context.Context, token string) (*mailroom.Subscriber, error) {
	args := m.Called(ctx, token)
	sub, _ := args.Get(0).(*mailroom.Subscriber)
	return sub, args.Error(1)
}

func (m *SubscriberService) Deactivate(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *SubscriberService) FindActive(ctx context.Context) ([]mailroom.Subscriber, error) {
	args := m.Called(ctx)
	subs, _ := args.Get(0).([]mailroom.Subscriber)
	return subs, args.Error(1)
}

func (m *SubscriberService) FindAll(ctx context.Context) ([]mailroom.Subscriber, error) {
	args := m.Called(ctx)
	subs, _ := args.Get(0).([]mailroom.Subscriber)
	return subs, args.Error(1)
}

func (m *SubscriberService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.Subscriber, error) {
	args := m.Called(ctx, ids)
	subs, _ := args.Get(0).([]mailroom.Subscriber)
	return subs, args.Error(1)
}

func (m *SubscriberService) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
