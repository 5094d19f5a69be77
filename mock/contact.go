package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/annweb/mailroom"
)

type ContactService struct {
	mock.Mock
}

func (m *ContactService) Insert(ctx context.Context, msg *mailroom.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *ContactService) FindAll(ctx context.Context) ([]mailroom.ContactMessage, error) {
	args := m.Called(ctx)
	msgs, _ := args.Get(0).([]mailroom.ContactMessage)
	return msgs, args.Error(1)
}

func (m *ContactService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.ContactMessage, error) {
	args := m.Called(ctx, ids)
	msgs, _ := args.Get(0).([]mailroom.ContactMessage)
	return msgs, args.Error(1)
}

func (m *ContactService) SetRead(ctx context.Context, ids []int, read bool) (int, error) {
	args := m.Called(ctx, ids, read)
	return args.Int(0), args.Error(1)
}
