package worker

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

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, n *mailroom.Newsletter) (*mailroom.DispatchReport, error) {
	args := m.Called(ctx, n)
	r, _ := args.Get(0).(*mailroom.DispatchReport)
	return r, args.Error(1)
}

func (m *mockSender) SendTo(ctx context.Context, n *mailroom.Newsletter, recipients []string) (*mailroom.DispatchReport, error) {
	args := m.Called(ctx, n, recipients)
	r, _ := args.Get(0).(*mailroom.DispatchReport)
	return r, args.Error(1)
}

func encode(t *testing.T, job *mailroom.DispatchJob) []byte {
	body, err := job.Marshal()
	require.NoError(t, err)
	return body
}

func TestWorker_Handle(t *testing.T) {
	report := &mailroom.DispatchReport{Total: 1, Batches: []mailroom.BatchResult{{Index: 1, Size: 1}}}
	news := mailroom.Newsletter{Subject: "Spring", Text: "Hello"}

	sender := new(mockSender)
	sender.On("Send", mock.Anything, &news).Return(report, nil).Once()
	sender.On("SendTo", mock.Anything, &news, []string{"a@x.io"}).Return(report, nil).Once()

	w := NewWorker(new(mailmock.QueueService), "jobs", sender, zerolog.Nop())

	require.NoError(t, w.Handle(context.Background(), encode(t, &mailroom.DispatchJob{Newsletter: news})))
	require.NoError(t, w.Handle(context.Background(), encode(t, &mailroom.DispatchJob{Newsletter: news, Recipients: []string{"a@x.io"}})))
	sender.AssertExpectations(t)

	assert.Error(t, w.Handle(context.Background(), []byte("{not json")))
}

func TestWorker_Run(t *testing.T) {
	jobs := make(chan []byte, 2)
	jobs <- []byte("garbage")
	jobs <- encode(t, &mailroom.DispatchJob{Newsletter: mailroom.Newsletter{Subject: "a", Text: "b"}})
	close(jobs)

	queue := new(mailmock.QueueService)
	queue.On("Consume", mock.Anything, "jobs").Return((<-chan []byte)(jobs), nil)

	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil, errors.New("store down")).Once()

	w := NewWorker(queue, "jobs", sender, zerolog.Nop())

	done := make(chan error)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop when the stream closed")
	}
	sender.AssertExpectations(t)
}

func TestEnqueue(t *testing.T) {
	job := &mailroom.DispatchJob{Newsletter: mailroom.Newsletter{Subject: "a", Text: "b"}}

	queue := new(mailmock.QueueService)
	queue.On("Publish", mock.Anything, "jobs", mock.MatchedBy(func(body []byte) bool {
		decoded, err := mailroom.UnmarshalDispatchJob(body)
		return err == nil && decoded.Subject == "a" && decoded.Text == "b"
	})).Return(nil)

	require.NoError(t, Enqueue(context.Background(), queue, "jobs", job))
	queue.AssertExpectations(t)
}

func TestScheduler(t *testing.T) {
	config := &mailroom.Config{}
	assert.Nil(t, NewScheduler(new(mockSender), config, nil, zerolog.Nop()))

	config.Newsletter.Cron.Spec = "not a spec"
	config.Newsletter.Cron.Subject = "Weekly"
	config.Newsletter.Cron.Text = "Hello"
	s := NewScheduler(new(mockSender), config, nil, zerolog.Nop())
	require.NotNil(t, s)
	assert.Error(t, s.Start(context.Background()))

	config.Newsletter.Cron.Spec = "@weekly"
	sender := new(mockSender)
	sender.On("Send", mock.Anything, &mailroom.Newsletter{Subject: "Weekly", Text: "Hello"}).
		Return(&mailroom.DispatchReport{Total: 0}, nil).Once()

	s = NewScheduler(sender, config, nil, zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))
	s.Run(context.Background())
	s.Stop()
	sender.AssertExpectations(t)
}
