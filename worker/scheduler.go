package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/metrics"
)

// Scheduler sends a fixed newsletter on a cron schedule
type Scheduler struct {
	sender     Sender
	newsletter mailroom.Newsletter
	spec       string
	cron       *cron.Cron
	cancel     context.CancelFunc
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewScheduler returns nil when no schedule is configured.
func NewScheduler(sender Sender, config *mailroom.Config, m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	c := config.Newsletter.Cron
	if c.Spec == "" || c.Subject == "" || c.Text == "" {
		return nil
	}

	return &Scheduler{
		sender: sender,
		newsletter: mailroom.Newsletter{
			Subject:      c.Subject,
			Text:         c.Text,
			HTMLTemplate: c.HTML,
		},
		spec:    c.Spec,
		cron:    cron.New(),
		metrics: m,
		log:     logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the newsletter; it returns an error for an invalid spec.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if _, err := s.cron.AddFunc(s.spec, func() { s.Run(ctx) }); err != nil {
		cancel()
		return errors.Wrapf(err, "invalid cron spec %q", s.spec)
	}

	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Str("subject", s.newsletter.Subject).Msg("newsletter scheduled")
	return nil
}

// Stop cancels the running send, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Run sends the scheduled newsletter once.
func (s *Scheduler) Run(ctx context.Context) {
	start := time.Now()
	n := s.newsletter

	report, err := s.sender.Send(ctx, &n)
	s.metrics.RecordCronRun(err)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled newsletter failed")
		return
	}

	s.log.Info().
		Int("total", report.Total).
		Int("sent", report.Sent()).
		Int("failed_batches", report.Failed()).
		Dur("duration", time.Since(start)).
		Msg("scheduled newsletter sent")
}
