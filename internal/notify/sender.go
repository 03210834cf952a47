// Package notify delivers alert texts over an external SMS channel.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is returned by NewTwilioSender when credentials are
// missing. "Unconfigured" is decided once at construction, never at call time.
var ErrNotConfigured = errors.New("twilio credentials not configured")

// Sender is the outbound notification channel. Send returns the provider's
// message ID on success. It is the one call in the alert pipeline that can
// fail for reasons outside this system's control.
type Sender interface {
	Send(ctx context.Context, recipient, body string) (string, error)
}

// TwilioConfig holds the credentials and the sending number.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Configured reports whether every field needed to place a call is present.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a sender, or ErrNotConfigured when credentials are
// incomplete. Callers that get ErrNotConfigured run without a channel; they
// must not treat it as fatal.
func NewTwilioSender(cfg TwilioConfig) (*TwilioSender, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioSender{client: client, from: cfg.FromNumber}, nil
}

// Send delivers one SMS. The twilio-go client does not take a context; the
// parameter is kept for the Sender contract and other implementations.
func (s *TwilioSender) Send(_ context.Context, recipient, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("create twilio message: %w", err)
	}
	if msg.Sid == nil {
		return "", nil
	}
	return *msg.Sid, nil
}
