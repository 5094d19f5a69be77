package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/annweb/mailroom"
	mailmock "github.com/annweb/mailroom/mock"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(contacts mailroom.ContactService, notifier mailroom.NotificationService) *Service {
	s := NewService(contacts, notifier, nil, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestSubmit(t *testing.T) {
	want := &mailroom.ContactMessage{
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
		Message:   "Hello there",
		CreatedAt: now,
	}

	contacts := new(mailmock.ContactService)
	contacts.On("Insert", mock.Anything, want).Return(nil)

	notifier := new(mailmock.NotificationService)
	notifier.On("SendContactNotification", mock.Anything, want).Return(errors.New("smtp down"))
	notifier.On("SendContactConfirmation", mock.Anything, want).Return(nil)

	s := newTestService(contacts, notifier)
	msg, err := s.Submit(context.Background(), mailroom.ContactForm{
		FullName: " Jane Doe ",
		Email:    "Jane@Example.com",
		Message:  "Hello there\n",
	})
	require.NoError(t, err)
	assert.Equal(t, want, msg)

	contacts.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubmit_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		form    mailroom.ContactForm
		message string
	}{
		{"missing name", mailroom.ContactForm{Email: "a@b.io", Message: "hi"}, "Full name is required."},
		{"missing email", mailroom.ContactForm{FullName: "A", Message: "hi"}, "Email is required."},
		{"invalid email", mailroom.ContactForm{FullName: "A", Email: "not-an-email", Message: "hi"}, "Invalid email address."},
		{"empty message", mailroom.ContactForm{FullName: "A", Email: "a@b.io", Message: "   "}, "Message is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := new(mailmock.ContactService)
			s := newTestService(contacts, new(mailmock.NotificationService))

			_, err := s.Submit(context.Background(), tt.form)
			require.Error(t, err)
			assert.Equal(t, mailroom.ErrInvalid, mailroom.ErrorCode(err))
			assert.Equal(t, tt.message, mailroom.ErrorMessage(err))
			contacts.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_StoreError(t *testing.T) {
	contacts := new(mailmock.ContactService)
	contacts.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	notifier := new(mailmock.NotificationService)
	s := newTestService(contacts, notifier)

	_, err := s.Submit(context.Background(), mailroom.ContactForm{FullName: "A", Email: "a@b.io", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, mailroom.ErrInternal, mailroom.ErrorCode(err))
	notifier.AssertNotCalled(t, "SendContactNotification", mock.Anything, mock.Anything)
}

func TestMarkRead(t *testing.T) {
	contacts := new(mailmock.ContactService)
	contacts.On("SetRead", mock.Anything, []int{1, 2}, true).Return(2, nil)

	s := newTestService(contacts, new(mailmock.NotificationService))
	n, err := s.MarkRead(context.Background(), []int{1, 2}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.MarkRead(context.Background(), nil, true)
	assert.Equal(t, mailroom.ErrInvalid, mailroom.ErrorCode(err))
}
