package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/staff-auth/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithAccount(department, employeeID, role, status string) Option {
	return func(d *EmailData) {
		d.Department = strings.TrimSpace(department)
		d.EmployeeID = strings.TrimSpace(employeeID)
		d.Role = role
		d.Status = status
	}
}

// NewBaseEmailData fills the shared fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		LoginURL:    cfg.LoginURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewAccountEmailData(cfg *config.Config, typ, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, typ, name, email, opts...))
}
