package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names one of the embedded account templates; Data feeds it.
// Subject/Text/HTML may be set directly for ad-hoc messages.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "account_registered", "account_approved", "account_created"
	Data     map[string]any `json:"data,omitempty"`
}
