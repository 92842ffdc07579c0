// Package mailer wraps SMTP delivery of alert messages. The transport
// sits behind an interface so the monitoring core can be tested with a
// mock and so a misconfigured or unreachable server degrades to logged
// dispatch errors instead of stopping the agent.
package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Message is one rendered alert email.
type Message struct {
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// Mailer sends rendered alert messages. Send must respect ctx so a hung
// SMTP connection cannot stall the monitoring loop.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers messages over SMTP with STARTTLS and plain auth.
type SMTPMailer struct {
	sender   string
	receiver string
	client   *mail.Client
	logger   zerolog.Logger
}

// NewSMTPMailer builds a mailer for the configured server. The returned
// mailer dials lazily on the first Send.
func NewSMTPMailer(server string, port int, username, password, sender, receiver string, logger zerolog.Logger) (*SMTPMailer, error) {
	client, err := mail.NewClient(server,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client for %s:%d: %w", server, port, err)
	}

	return &SMTPMailer{
		sender:   sender,
		receiver: receiver,
		client:   client,
		logger:   logger,
	}, nil
}

// Send delivers one message, bounded by ctx.
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.sender); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", s.sender, err)
	}
	if err := m.To(s.receiver); err != nil {
		return fmt.Errorf("invalid receiver address %q: %w", s.receiver, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	}
	for k, v := range msg.Headers {
		m.SetGenHeader(mail.Header(k), v)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending mail via %s: %w", s.client.ServerAddr(), err)
	}

	s.logger.Debug().Str("to", s.receiver).Str("subject", msg.Subject).Msg("Alert email sent")
	return nil
}
