// Package app opens the backends named in the config and builds the services on top of them.
package app

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/bolt"
	"github.com/annweb/mailroom/dispatch"
	"github.com/annweb/mailroom/metrics"
	"github.com/annweb/mailroom/mysql"
	"github.com/annweb/mailroom/notify"
	"github.com/annweb/mailroom/rabbitmq"
	"github.com/annweb/mailroom/redis"
	"github.com/annweb/mailroom/render"
	"github.com/annweb/mailroom/smtp"
	"github.com/annweb/mailroom/sqlite"
)

// App holds the opened store, the queue and the services built on them
type App struct {
	DB           mailroom.Database
	Subscribers  mailroom.SubscriberService
	Contacts     mailroom.ContactService
	Mailer       mailroom.MailService
	Notifier     mailroom.NotificationService
	Dispatcher   *dispatch.Dispatcher
	QueueService mailroom.QueueService
}

// Open opens the store selected by config.DB.Type and, when config.Queue.Type is set, the queue.
func Open(ctx context.Context, config *mailroom.Config, logger zerolog.Logger, m *metrics.Metrics) (*App, error) {
	a := &App{}

	switch config.DB.Type {
	case "", "sqlite":
		db := sqlite.NewDB(config.DB.Path, logger)
		a.DB = db
		a.Subscribers = sqlite.NewSubscriberService(db)
		a.Contacts = sqlite.NewContactService(db)
	case "bolt":
		db := bolt.NewDB(config.DB.Path, logger)
		a.DB = db
		a.Subscribers = bolt.NewSubscriberService(db)
		a.Contacts = bolt.NewContactService(db)
	case "mysql":
		db := mysql.NewDB(config.DB.DSN, logger)
		a.DB = db
		a.Subscribers = mysql.NewSubscriberService(db)
		a.Contacts = mysql.NewContactService(db)
	default:
		return nil, errors.Errorf("unknown db.type %q", config.DB.Type)
	}

	if err := a.DB.Open(); err != nil {
		return nil, err
	}

	a.Mailer = smtp.NewMailService(config, logger)
	a.Notifier = notify.NewNotificationService(a.Mailer, config, logger)

	opts := []dispatch.Option{
		dispatch.WithMetrics(m),
		dispatch.WithMarkdown(config.Newsletter.Markdown),
	}
	if dir := config.Templates.Dir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			r, err := render.NewDirRenderer(dir)
			if err != nil {
				_ = a.Close()
				return nil, err
			}
			opts = append(opts, dispatch.WithRenderer(r))
		} else {
			logger.Warn().Str("dir", dir).Msg("newsletter templates not found, HTML templates disabled")
		}
	}
	a.Dispatcher = dispatch.NewDispatcher(a.Subscribers, a.Mailer, config, logger, opts...)

	var err error
	switch config.Queue.Type {
	case "":
	case "amqp":
		a.QueueService, err = rabbitmq.NewQueueService(config.Queue.URL, logger)
	case "redis":
		a.QueueService, err = redis.NewQueueService(ctx, config, logger)
	default:
		err = errors.Errorf("unknown queue.type %q", config.Queue.Type)
	}
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// Close closes the queue and the store.
func (a *App) Close() error {
	if a.QueueService != nil {
		if err := a.QueueService.Close(); err != nil {
			return err
		}
	}

	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
