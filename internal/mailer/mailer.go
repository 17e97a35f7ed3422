package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/go-mail/mail/v2"
)

// templateFS holds the email templates. Each file defines the "subject",
// "plainBody" and "htmlBody" templates.
//
//go:embed "templates"
var templateFS embed.FS

// Sender delivers a templated email. Mailer is the SMTP implementation.
type Sender interface {
	Send(recipient, templateFile string, data any) error
}

// Mailer struct contains a mail.Dialer instance (used to connect to a SMTP
// server) and the sender information for the emails.
type Mailer struct {
	dialer *mail.Dialer
	sender string
	// retryDelay is the pause between delivery attempts.
	retryDelay time.Duration
}

func New(host string, port int, username, password, sender string) Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return Mailer{
		dialer:     dialer,
		sender:     sender,
		retryDelay: 500 * time.Millisecond,
	}
}

// message is a rendered email.
type message struct {
	subject   string
	plainBody string
	htmlBody  string
}

func render(templateFile string, data any) (*message, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return nil, err
	}

	var out message
	for name, dst := range map[string]*string{
		"subject":   &out.subject,
		"plainBody": &out.plainBody,
		"htmlBody":  &out.htmlBody,
	} {
		buf := new(bytes.Buffer)
		if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
			return nil, fmt.Errorf("render %s of %s: %w", name, templateFile, err)
		}
		*dst = buf.String()
	}

	return &out, nil
}

// Send renders templateFile with data and delivers it to recipient, trying
// up to three times.
func (m Mailer) Send(recipient, templateFile string, data any) error {
	rendered, err := render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", rendered.subject)
	msg.SetBody("text/plain", rendered.plainBody)
	msg.AddAlternative("text/html", rendered.htmlBody)

	for i := 1; i <= 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			return nil
		}
		time.Sleep(m.retryDelay)
	}

	return err
}
