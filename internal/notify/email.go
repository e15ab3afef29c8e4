// internal/notify/email.go
package notify

import (
	"context"

	"fxwallet/internal/domain"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/pkg/errors"
)

// MailjetConfig holds the Mailjet credentials and the sender identity.
type MailjetConfig struct {
	APIKey    string
	SecretKey string
	FromEmail string
	FromName  string
}

// Enabled reports whether credentials are configured.
func (c MailjetConfig) Enabled() bool {
	return c.APIKey != "" && c.SecretKey != "" && c.FromEmail != ""
}

// MailjetSink emails the event text to the user's address.
type MailjetSink struct {
	from mailjet.RecipientV31
	send func(*mailjet.MessagesV31) error
}

func NewMailjetSink(cfg MailjetConfig) *MailjetSink {
	client := mailjet.NewMailjetClient(cfg.APIKey, cfg.SecretKey)
	return &MailjetSink{
		from: mailjet.RecipientV31{Email: cfg.FromEmail, Name: cfg.FromName},
		send: func(messages *mailjet.MessagesV31) error {
			_, err := client.SendMailV31(messages)
			return err
		},
	}
}

func (s *MailjetSink) Name() string { return "email" }

// Deliver sends one plain-text message. Events without an address are skipped.
func (s *MailjetSink) Deliver(_ context.Context, event domain.Event) error {
	if event.Email == "" {
		return nil
	}
	from := s.from
	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From:     &from,
		To:       &mailjet.RecipientsV31{{Email: event.Email}},
		Subject:  event.Subject,
		TextPart: event.Text,
		CustomID: event.ID.String(),
	}}}
	if err := s.send(messages); err != nil {
		return errors.Wrapf(err, "mailjet send to %s", event.Email)
	}
	return nil
}
