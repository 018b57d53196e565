// Package notify delivers transactional email for the lending backend.
package notify

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
)

var activationTemplate = template.Must(template.New("activation").Parse(
	`From: {{.From}}
To: {{.To}}
Subject: Account Activation
MIME-Version: 1.0
Content-Type: text/plain; charset=utf-8

Hello {{.Name}},

Welcome to Trillas Library. Use the code below to activate your account:

    {{.Code}}

Or follow {{.ActivationURL}}?token={{.Code}}

The code expires in 15 minutes. If it does, requesting activation again
sends you a fresh one.
`))

// Mailer sends activation messages over SMTP. Delivery is fire-and-forget
// from the core's perspective; the queue retries failures.
type Mailer struct {
	addr          string
	from          string
	activationURL string
}

// NewMailer constructs a Mailer.
func NewMailer(host string, port int, from, activationURL string) *Mailer {
	return &Mailer{
		addr:          fmt.Sprintf("%s:%d", host, port),
		from:          from,
		activationURL: activationURL,
	}
}

// SendActivation delivers the activation code to the recipient.
func (m *Mailer) SendActivation(to, name, code string) error {
	var body bytes.Buffer
	err := activationTemplate.Execute(&body, map[string]string{
		"From":          m.from,
		"To":            to,
		"Name":          name,
		"Code":          code,
		"ActivationURL": m.activationURL,
	})
	if err != nil {
		return fmt.Errorf("notify: render activation mail: %w", err)
	}
	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, body.Bytes()); err != nil {
		return fmt.Errorf("notify: send activation mail: %w", err)
	}
	return nil
}
