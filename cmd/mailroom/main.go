package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/app"
	"github.com/annweb/mailroom/contact"
	"github.com/annweb/mailroom/http"
	"github.com/annweb/mailroom/metrics"
	"github.com/annweb/mailroom/pkg/logger"
	"github.com/annweb/mailroom/subscription"
	"github.com/annweb/mailroom/worker"
)

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml")
	noWorker := flag.Bool("no-worker", false, "do not consume dispatch jobs in this process")
	flag.Parse()

	config, err := mailroom.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(config, "mailroom")

	if err := sentry.Init(sentry.ClientOptions{
		Dsn: config.Sentry.DSN,
	}); err != nil {
		log.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Flush(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()

	a := &server{config: config, log: log, runWorker: !*noWorker}
	if err := a.Run(ctx); err != nil {
		_ = a.Close()
		log.Error().Err(err).Msg("failed to start")
		os.Exit(1)
	}

	<-ctx.Done()

	if err := a.Close(); err != nil {
		log.Error().Err(err).Msg("failed to shut down")
		os.Exit(1)
	}
}

type server struct {
	config    *mailroom.Config
	log       zerolog.Logger
	runWorker bool

	app        *app.App
	httpServer *http.Server
	scheduler  *worker.Scheduler
}

func (a *server) Run(ctx context.Context) error {
	m := metrics.NewMetrics()

	var err error
	a.app, err = app.Open(ctx, a.config, a.log, m)
	if err != nil {
		return err
	}

	a.httpServer, err = http.NewServer(a.config, a.log, m)
	if err != nil {
		return err
	}

	a.httpServer.SubscriberService = a.app.Subscribers
	a.httpServer.ContactService = a.app.Contacts
	a.httpServer.Subscriptions = subscription.NewService(a.app.Subscribers, a.app.Notifier, m, a.log)
	a.httpServer.Contacts = contact.NewService(a.app.Contacts, a.app.Notifier, m, a.log)
	a.httpServer.Dispatcher = a.app.Dispatcher
	a.httpServer.QueueService = a.app.QueueService

	if err := a.httpServer.Open(); err != nil {
		return err
	}

	if a.app.QueueService != nil && a.runWorker {
		w := worker.NewWorker(a.app.QueueService, a.config.Queue.Topic, a.app.Dispatcher, a.log)
		go func() {
			if err := w.Run(ctx); err != nil {
				a.log.Error().Err(err).Msg("worker stopped")
				sentry.CaptureException(err)
			}
		}()
	}

	if a.scheduler = worker.NewScheduler(a.app.Dispatcher, a.config, m, a.log); a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (a *server) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Close(); err != nil {
			return err
		}
	}

	if a.app != nil {
		if err := a.app.Close(); err != nil {
			return err
		}
	}

	return nil
}
