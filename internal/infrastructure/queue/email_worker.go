package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/pkg/helpers"
	"github.com/oksasatya/staff-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/staff-auth/pkg/mailer/templates"
)

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	Ack Outcome = iota
	// Drop rejects a message that can never succeed.
	Drop
	// Retry requeues after a transient send failure.
	Retry
)

// EmailWorker renders queued jobs and sends them.
type EmailWorker struct {
	Sender  mailer.Sender
	Logger  *logrus.Logger
	Timeout time.Duration
}

func NewEmailWorker(s mailer.Sender, logger *logrus.Logger) *EmailWorker {
	return &EmailWorker{Sender: s, Logger: logger, Timeout: 15 * time.Second}
}

// Handle processes one message body.
func (w *EmailWorker) Handle(ctx context.Context, body []byte) Outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Warn("bad email job")
		return Drop
	}
	if job.To == "" {
		w.Logger.Warn("email job without recipient")
		return Drop
	}
	helpers.EnsureRecipientAndEmail(&job)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			w.Logger.WithError(err).WithField("template", job.Template).Warn("render failed")
			return Drop
		}
		subject, text, html = s, t, h
	}
	if subject == "" {
		subject = helpers.SubjectFor(job.Template)
	}

	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Warn("send failed")
		return Retry
	}
	w.Logger.WithField("template", job.Template).Info("email sent")
	return Ack
}

// Run consumes deliveries until the channel closes or ctx is done.
func (w *EmailWorker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch w.Handle(ctx, msg.Body) {
			case Ack:
				_ = msg.Ack(false)
			case Drop:
				_ = msg.Nack(false, false)
			case Retry:
				_ = msg.Nack(false, true)
			}
		}
	}
}
