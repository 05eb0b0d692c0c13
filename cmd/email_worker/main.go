package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/staff-auth/config"
	"github.com/oksasatya/staff-auth/internal/infrastructure/queue"
	"github.com/oksasatya/staff-auth/pkg/helpers"
	"github.com/oksasatya/staff-auth/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var consumer *helpers.RabbitConsumer
	err := helpers.Retry(ctx, cfg.StartupMaxRetries, cfg.StartupRetryDelay, func(context.Context) error {
		c, msgs, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
		if err != nil {
			return err
		}
		consumer = c
		worker := queue.NewEmailWorker(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), logger)
		logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
		go func() {
			worker.Run(ctx, msgs)
			stop()
		}()
		return nil
	}, func(attempt int, err error) {
		logger.WithError(err).WithField("attempt", attempt).Warn("rabbitmq not ready, retrying")
	})
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq unavailable")
	}
	defer consumer.Close()

	<-ctx.Done()
	logger.Info("shutting down...")
}
