package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/annweb/mailroom"
	mailmock "github.com/annweb/mailroom/mock"
)

const siteURL = "https://example.com"

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(subscribers mailroom.SubscriberService, notifier mailroom.NotificationService, token string) *Service {
	s := NewService(subscribers, notifier, nil, zerolog.Nop())
	s.now = func() time.Time { return now }
	s.newToken = func() string { return token }
	return s
}

func TestSubscribe_Created(t *testing.T) {
	token := uuid.NewV4().String()
	sub := mailroom.NewSubscriber("foo@bar.com", token, "/about/", now)

	subscribers := new(mailmock.SubscriberService)
	subscribers.On("Upsert", mock.Anything, sub).Return(sub, mailroom.Created, nil)
	subscribers.On("CountActive", mock.Anything).Return(7, nil)

	notifier := new(mailmock.NotificationService)
	notifier.On("SendWelcome", mock.Anything, sub, siteURL).Return(nil).Once()
	notifier.On("SendNewSubscriber", mock.Anything, sub, 7).Return(nil).Once()

	s := newTestService(subscribers, notifier, token)
	resp, err := s.Subscribe(context.Background(), mailroom.SubscribeRequest{Email: "  Foo@Bar.COM  ", Source: "/about/"}, siteURL)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, SubscribedMessage, resp.Message)
	subscribers.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubscribe_EmailFailuresDoNotFail(t *testing.T) {
	token := uuid.NewV4().String()
	sub := mailroom.NewSubscriber("foo@bar.com", token, "", now)

	subscribers := new(mailmock.SubscriberService)
	subscribers.On("Upsert", mock.Anything, sub).Return(sub, mailroom.Created, nil)
	subscribers.On("CountActive", mock.Anything).Return(0, errors.New("database is locked"))

	notifier := new(mailmock.NotificationService)
	notifier.On("SendWelcome", mock.Anything, sub, siteURL).Return(errors.New("dial tcp: connection refused"))
	notifier.On("SendNewSubscriber", mock.Anything, sub, 0).Return(errors.New("dial tcp: connection refused"))

	s := newTestService(subscribers, notifier, token)
	resp, err := s.Subscribe(context.Background(), mailroom.SubscribeRequest{Email: "foo@bar.com"}, siteURL)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, SubscribedMessage, resp.Message)
	notifier.AssertExpectations(t)
}

func TestSubscribe_ExistingRecordSendsNoEmail(t *testing.T) {
	tests := []struct {
		name    string
		result  mailroom.UpsertResult
		message string
	}{
		{"already active", mailroom.AlreadyActive, AlreadySubscribedMessage},
		{"reactivated", mailroom.Reactivated, ReactivatedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := uuid.NewV4().String()
			existing := mailroom.NewSubscriber("foo@bar.com", "original-token", "", now.Add(-time.Hour))

			subscribers := new(mailmock.SubscriberService)
			subscribers.On("Upsert", mock.Anything, mock.Anything).Return(existing, tt.result, nil)

			notifier := new(mailmock.NotificationService)

			s := newTestService(subscribers, notifier, token)
			resp, err := s.Subscribe(context.Background(), mailroom.SubscribeRequest{Email: "foo@bar.com"}, siteURL)
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)

			notifier.AssertNotCalled(t, "SendWelcome", mock.Anything, mock.Anything, mock.Anything)
			notifier.AssertNotCalled(t, "SendNewSubscriber", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubscribe_Invalid(t *testing.T) {
	tests := []struct {
		email   string
		message string
	}{
		{"", "Email is required"},
		{"   ", "Email is required"},
		{"not-an-email", "Invalid email address"},
	}

	for _, tt := range tests {
		subscribers := new(mailmock.SubscriberService)
		s := newTestService(subscribers, new(mailmock.NotificationService), "token")

		_, err := s.Subscribe(context.Background(), mailroom.SubscribeRequest{Email: tt.email}, siteURL)
		require.Error(t, err)
		assert.Equal(t, mailroom.ErrInvalid, mailroom.ErrorCode(err))
		assert.Equal(t, tt.message, mailroom.ErrorMessage(err))
		subscribers.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	}
}

func TestSubscribe_StoreError(t *testing.T) {
	subscribers := new(mailmock.SubscriberService)
	subscribers.On("Upsert", mock.Anything, mock.Anything).Return(nil, mailroom.Created, errors.New("disk I/O error"))

	s := newTestService(subscribers, new(mailmock.NotificationService), "token")
	_, err := s.Subscribe(context.Background(), mailroom.SubscribeRequest{Email: "foo@bar.com"}, siteURL)
	require.Error(t, err)
	assert.Equal(t, mailroom.ErrInternal, mailroom.ErrorCode(err))
	assert.Equal(t, DatabaseErrorMessage, mailroom.ErrorMessage(err))
}

func TestUnsubscribe(t *testing.T) {
	token := uuid.NewV4().String()
	sub := mailroom.NewSubscriber("foo@bar.com", token, "", now)

	subscribers := new(mailmock.SubscriberService)
	subscribers.On("FindByToken", mock.Anything, token).Return(sub, nil)
	subscribers.On("Deactivate", mock.Anything, token).Return(nil)

	s := newTestService(subscribers, new(mailmock.NotificationService), token)
	require.NoError(t, s.Unsubscribe(context.Background(), token))
	subscribers.AssertExpectations(t)
}

func TestUnsubscribe_Failures(t *testing.T) {
	unknown := uuid.NewV4().String()
	broken := uuid.NewV4().String()

	subscribers := new(mailmock.SubscriberService)
	subscribers.On("FindByToken", mock.Anything, unknown).Return(nil, &mailroom.Error{Code: mailroom.ErrNotFound, Message: "subscriber not found"})
	subscribers.On("FindByToken", mock.Anything, broken).Return(nil, errors.New("database is locked"))

	s := newTestService(subscribers, new(mailmock.NotificationService), "token")

	for _, token := range []string{"not-a-token", unknown, broken} {
		err := s.Unsubscribe(context.Background(), token)
		require.Error(t, err)
		assert.Equal(t, mailroom.ErrInternal, mailroom.ErrorCode(err))
		assert.Equal(t, UnsubscribeFailedMessage, mailroom.ErrorMessage(err))
	}

	subscribers.AssertNotCalled(t, "FindByToken", mock.Anything, "not-a-token")
	subscribers.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}
