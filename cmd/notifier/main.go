// Command notifier consumes ticket.booked events, appends them to
// booking.log and e-mails the ticket when SMTP is configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/config"
	"github.com/aulabook/seminar-reservation/internal/logging"
	"github.com/aulabook/seminar-reservation/internal/queue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.LoadNotifier()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, "seminar-notifier")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var mailer queue.Mailer
	if cfg.SMTP.Enabled() {
		s := cfg.SMTP
		mailer = queue.NewSMTPMailer(s.Host, s.Port, s.Username, s.Password, s.Sender)
	} else {
		log.Info("SMTP_HOST not set, ticket e-mails disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("notifier started", zap.String("log_dir", cfg.LogDir))
	err = queue.NewConsumer(cfg.Broker.URL, cfg.LogDir, mailer, log).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
