// Package notify доставляет текстовые сообщения клиентам (WhatsApp/SMS).
package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

type Channel string

const (
	ChannelWhatsapp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelLog      Channel = "log"
)

var ErrNoRecipient = errors.New("recipient phone is empty")

type Sender interface {
	Send(ctx context.Context, to, body string) (Channel, error)
}

// RouteFor выбирает канал: номер в E.164 (с "+") уходит в WhatsApp, остальное в SMS.
func RouteFor(phone string) (string, Channel) {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return "whatsapp:" + phone, ChannelWhatsapp
	}
	return phone, ChannelSMS
}

// LogSender ничего не отправляет, только пишет в лог. Используется, когда Twilio не настроен.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) (Channel, error) {
	if strings.TrimSpace(to) == "" {
		return "", ErrNoRecipient
	}
	s.logger.Info("message not sent (log sender)",
		zap.String("to", to),
		zap.Int("body_len", len(body)))
	return ChannelLog, nil
}
