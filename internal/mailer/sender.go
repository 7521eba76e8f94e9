package mailer

import (
	"context"
	"log"

	"gopkg.in/gomail.v2"
)

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the given relay. Empty credentials skip AUTH.
func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// Send dials the relay and sends msg.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return s.dialer.DialAndSend(m)
}

// LogSender only logs messages. It is used when no SMTP relay is configured.
type LogSender struct{}

// Send logs the recipient and subject.
func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("mail (not sent, no SMTP configured) to=%s subject=%q", msg.To, msg.Subject)
	return nil
}
