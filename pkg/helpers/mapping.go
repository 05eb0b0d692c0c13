package helpers

import (
	"fmt"

	"github.com/oksasatya/staff-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/staff-auth/pkg/mailer/templates"
)

// SubjectFor is the fallback subject when a job carries none and no template renders one.
func SubjectFor(template string) string {
	switch template {
	case mailtpl.AccountRegistered:
		return "Registration received"
	case mailtpl.AccountApproved:
		return "Your account is active"
	case mailtpl.AccountCreated:
		return "An account was created for you"
	default:
		return "Notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
