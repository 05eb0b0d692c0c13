package queue

import (
	"context"
	"fmt"

	"github.com/oksasatya/staff-auth/config"
	"github.com/oksasatya/staff-auth/internal/application"
	"github.com/oksasatya/staff-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/staff-auth/pkg/mailer/templates"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// EmailNotifier turns account events into email jobs for the worker.
type EmailNotifier struct {
	Publisher Publisher
	Cfg       *config.Config
}

func NewEmailNotifier(p Publisher, cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{Publisher: p, Cfg: cfg}
}

func (n *EmailNotifier) Notify(ctx context.Context, ev application.AccountEvent) error {
	if !mailtpl.Known(ev.Kind) {
		return fmt.Errorf("unknown account event %q", ev.Kind)
	}
	u := ev.User
	job := mailer.EmailJob{
		To:       u.Email,
		Template: ev.Kind,
		Data: mailtpl.NewAccountEmailData(n.Cfg, ev.Kind, u.Name, u.Email,
			mailtpl.WithAccount(u.Department, u.EmployeeID, string(u.Role), string(u.Status)),
			mailtpl.WithTime(ev.At),
		),
	}
	return n.Publisher.PublishJSON(ctx, job)
}
