// Package services holds the outbound integrations of the backend; today
// that is the Twilio WhatsApp transport.
package services

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/internal/config"
)

// TwilioService sends WhatsApp messages through the Twilio REST API. It
// implements bot.Messenger.
type TwilioService struct {
	client *twilio.RestClient
	from   string
	log    *zap.Logger
}

// NewTwilioService builds the transport from configuration. Missing
// credentials are an error; callers that can run without outbound messaging
// should use NewNoopMessenger instead.
func NewTwilioService(cfg config.TwilioConfig, log *zap.Logger) (*TwilioService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.WhatsAppFrom == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		client: client,
		from:   cfg.WhatsAppFrom,
		log:    log,
	}, nil
}

// SendText delivers a WhatsApp text message. Fire-and-forget: the caller
// gets the submission error, not a delivery receipt.
func (t *TwilioService) SendText(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		t.log.Error("failed to send WhatsApp message", zap.String("to", to), zap.Error(err))
		return err
	}

	t.log.Debug("WhatsApp message sent", zap.String("to", to), zap.Stringp("sid", resp.Sid))
	return nil
}

// NoopMessenger logs outbound messages instead of delivering them. Used in
// development when Twilio is not configured.
type NoopMessenger struct {
	log *zap.Logger
}

// NewNoopMessenger returns a messenger that only logs.
func NewNoopMessenger(log *zap.Logger) *NoopMessenger {
	return &NoopMessenger{log: log}
}

func (n *NoopMessenger) SendText(to, body string) error {
	n.log.Info("outbound message (not sent, Twilio not configured)",
		zap.String("to", to), zap.String("body", body))
	return nil
}
