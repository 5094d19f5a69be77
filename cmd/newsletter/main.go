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
	"github.com/pkg/errors"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/app"
	"github.com/annweb/mailroom/pkg/logger"
	"github.com/annweb/mailroom/worker"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config dir] [-html template] [-queue] SUBJECT TEXT\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml")
	html := flag.String("html", "", "newsletter HTML template name")
	queue := flag.Bool("queue", false, "hand the send to the worker instead of sending now")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	if err := run(*configDir, *queue, &mailroom.Newsletter{
		Subject:      flag.Arg(0),
		Text:         flag.Arg(1),
		HTMLTemplate: *html,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir string, queue bool, n *mailroom.Newsletter) error {
	config, err := mailroom.LoadConfig(configDir)
	if err != nil {
		return err
	}

	log := logger.New(config, "newsletter")

	if err := sentry.Init(sentry.ClientOptions{Dsn: config.Sentry.DSN}); err != nil {
		return err
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, config, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if queue {
		if a.QueueService == nil {
			return errors.New("queue.type is not configured")
		}
		if err := worker.Enqueue(ctx, a.QueueService, config.Queue.Topic, &mailroom.DispatchJob{Newsletter: *n}); err != nil {
			return err
		}
		fmt.Printf("Queued %q on %s.\n", n.Subject, config.Queue.Topic)
		return nil
	}

	report, err := a.Dispatcher.Send(ctx, n)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d active subscribers.\n", report.Total)
	for _, b := range report.Batches {
		if b.Err != nil {
			fmt.Printf("Error sending chunk %d: %v\n", b.Index, b.Err)
			continue
		}
		fmt.Printf("Sent chunk %d (%d recipients)\n", b.Index, b.Size)
	}
	if report.Failed() > 0 {
		return errors.Errorf("%d of %d chunks failed", report.Failed(), len(report.Batches))
	}
	return nil
}
