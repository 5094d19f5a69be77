package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/annweb/mailroom"
)

type MailService struct {
	mock.Mock
}

func (m *MailService) Send(ctx context.Context, msg *mailroom.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) SendWelcome(ctx context.Context, s *mailroom.Subscriber, siteURL string) error {
	args := m.Called(ctx, s, siteURL)
	return args.Error(0)
}

func (m *NotificationService) SendNewSubscriber(ctx context.Context, s *mailroom.Subscriber, activeCount int) error {
	args := m.Called(ctx, s, activeCount)
	return args.Error(0)
}

func (m *NotificationService) SendContactNotification(ctx context.Context, msg *mailroom.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationService) SendContactConfirmation(ctx context.Context, msg *mailroom.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type Renderer struct {
	mock.Mock
}

func (m *Renderer) Render(name string, data interface{}) (string, error) {
	args := m.Called(name, data)
	return args.String(0), args.Error(1)
}
