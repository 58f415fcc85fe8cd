package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsappNumber string
}

func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

// messageCreator: часть REST-клиента Twilio, которая нам нужна.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioSender struct {
	api    messageCreator
	cfg    TwilioConfig
	logger *zap.Logger
}

func NewTwilioSender(cfg TwilioConfig, logger *zap.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSender(client.Api, cfg, logger)
}

func newTwilioSender(api messageCreator, cfg TwilioConfig, logger *zap.Logger) *TwilioSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwilioSender{api: api, cfg: cfg, logger: logger}
}

func (s *TwilioSender) Send(_ context.Context, to, body string) (Channel, error) {
	if strings.TrimSpace(to) == "" {
		return "", ErrNoRecipient
	}
	dest, channel := RouteFor(to)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(dest)
	params.SetBody(body)
	if channel == ChannelWhatsapp {
		params.SetFrom("whatsapp:" + s.cfg.WhatsappNumber)
	} else {
		params.SetFrom(s.cfg.PhoneNumber)
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return channel, fmt.Errorf("twilio %s: %w", channel, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Info("message sent",
		zap.String("channel", string(channel)),
		zap.String("sid", sid))
	return channel, nil
}
