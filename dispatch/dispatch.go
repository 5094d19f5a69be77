package dispatch

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/metrics"
	"github.com/annweb/mailroom/render"
)

const DefaultBatchSize = 100

// Dispatcher sends a newsletter to many recipients in blind-copied batches
type Dispatcher struct {
	subscribers mailroom.SubscriberService
	mailer      mailroom.MailService
	renderer    mailroom.Renderer
	metrics     *metrics.Metrics
	log         zerolog.Logger

	from      string
	to        string
	batchSize int
	markdown  bool
}

type Option func(*Dispatcher)

// WithRenderer enables Newsletter.HTMLTemplate.
func WithRenderer(r mailroom.Renderer) Option {
	return func(d *Dispatcher) { d.renderer = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithMarkdown attaches the text rendered as markdown when no template is named.
func WithMarkdown(enabled bool) Option {
	return func(d *Dispatcher) { d.markdown = enabled }
}

func NewDispatcher(subscribers mailroom.SubscriberService, mailer mailroom.MailService, config *mailroom.Config, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		subscribers: subscribers,
		mailer:      mailer,
		log:         logger.With().Str("component", "dispatch").Logger(),
		from:        config.Mail.From,
		to:          config.Mail.Operator,
		batchSize:   config.Newsletter.BatchSize,
	}
	if d.to == "" {
		d.to = d.from
	}
	if d.batchSize <= 0 {
		d.batchSize = DefaultBatchSize
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send delivers n to every active subscriber.
func (d *Dispatcher) Send(ctx context.Context, n *mailroom.Newsletter) (*mailroom.DispatchReport, error) {
	active, err := d.subscribers.FindActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load active subscribers")
	}

	d.log.Info().Int("count", len(active)).Msgf("Found %d active subscribers.", len(active))

	return d.SendTo(ctx, n, mailroom.Emails(active))
}

// SendTo delivers n to recipients. A failed batch is logged and reported,
// and the remaining batches are still attempted.
func (d *Dispatcher) SendTo(ctx context.Context, n *mailroom.Newsletter, recipients []string) (*mailroom.DispatchReport, error) {
	if n.Subject == "" || n.Text == "" {
		return nil, mailroom.Errorf(mailroom.ErrInvalid, "Subject and message are required.")
	}

	html, err := d.html(n)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer d.metrics.ObserveDispatch(start)

	batches := Batches(recipients, d.batchSize)
	report := &mailroom.DispatchReport{
		Total:   len(recipients),
		Batches: make([]mailroom.BatchResult, 0, len(batches)),
	}

	for i, batch := range batches {
		index := i + 1
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := d.mailer.Send(ctx, &mailroom.Message{
			From:    d.from,
			To:      []string{d.to},
			Bcc:     batch,
			Subject: n.Subject,
			Text:    n.Text,
			HTML:    html,
		})
		d.metrics.RecordBatch(len(batch), err)
		report.Batches = append(report.Batches, mailroom.BatchResult{Index: index, Size: len(batch), Err: err})

		if err != nil {
			d.log.Error().Err(err).Int("chunk", index).Int("size", len(batch)).Msgf("Error sending chunk %d: %v", index, err)
			sentry.CaptureException(errors.Wrapf(err, "newsletter chunk %d", index))
			continue
		}
		d.log.Info().Int("chunk", index).Int("size", len(batch)).Msgf("Sent chunk %d (%d recipients)", index, len(batch))
	}

	return report, nil
}

func (d *Dispatcher) html(n *mailroom.Newsletter) (string, error) {
	if n.HTMLTemplate != "" {
		if d.renderer == nil {
			return "", mailroom.Errorf(mailroom.ErrInvalid, "HTML templates are not configured.")
		}
		return d.renderer.Render(n.HTMLTemplate, n)
	}

	if d.markdown {
		html, err := render.Markdown(n.Text)
		return string(html), err
	}

	return "", nil
}

// Batches splits emails into consecutive groups of at most size addresses.
func Batches(emails []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([][]string, 0, (len(emails)+size-1)/size)
	for start := 0; start < len(emails); start += size {
		end := start + size
		if end > len(emails) {
			end = len(emails)
		}
		batches = append(batches, emails[start:end])
	}
	return batches
}
