package worker

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
)

const jobTimeout = 30 * time.Minute

// Sender runs a bulk send; dispatch.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, n *mailroom.Newsletter) (*mailroom.DispatchReport, error)
	SendTo(ctx context.Context, n *mailroom.Newsletter, recipients []string) (*mailroom.DispatchReport, error)
}

// Worker runs the dispatch jobs published on a queue topic
type Worker struct {
	queue  mailroom.QueueService
	topic  string
	sender Sender
	log    zerolog.Logger
}

func NewWorker(queue mailroom.QueueService, topic string, sender Sender, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:  queue,
		topic:  topic,
		sender: sender,
		log:    logger.With().Str("component", "worker").Str("topic", topic).Logger(),
	}
}

// Run handles jobs one at a time until ctx is done or the queue closes the stream.
func (w *Worker) Run(ctx context.Context) error {
	jobs, err := w.queue.Consume(ctx, w.topic)
	if err != nil {
		return errors.Wrap(err, "failed to consume dispatch jobs")
	}

	w.log.Info().Msg("worker started")
	defer w.log.Info().Msg("worker stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case body, ok := <-jobs:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, body); err != nil {
				w.log.Error().Err(err).Msg("dispatch job failed")
				sentry.CaptureException(err)
			}
		}
	}
}

// Handle decodes one job and sends it.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	job, err := mailroom.UnmarshalDispatchJob(body)
	if err != nil {
		return errors.Wrap(err, "invalid dispatch job")
	}

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	var report *mailroom.DispatchReport
	if len(job.Recipients) > 0 {
		report, err = w.sender.SendTo(ctx, &job.Newsletter, job.Recipients)
	} else {
		report, err = w.sender.Send(ctx, &job.Newsletter)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to send %q", job.Subject)
	}

	w.log.Info().
		Str("subject", job.Subject).
		Int("total", report.Total).
		Int("sent", report.Sent()).
		Int("failed_batches", report.Failed()).
		Msg("dispatch job completed")
	return nil
}

// Enqueue publishes job on topic for a worker to pick up.
func Enqueue(ctx context.Context, queue mailroom.QueueService, topic string, job *mailroom.DispatchJob) error {
	body, err := job.Marshal()
	if err != nil {
		return errors.Wrap(err, "failed to encode dispatch job")
	}
	return queue.Publish(ctx, topic, body)
}
