package notify

import (
	"context"
	"errors"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, p)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestRouteFor(t *testing.T) {
	to, ch := RouteFor(" +5511999990000 ")
	if to != "whatsapp:+5511999990000" || ch != ChannelWhatsapp {
		t.Fatalf("got %q %q", to, ch)
	}
	to, ch = RouteFor("11999990000")
	if to != "11999990000" || ch != ChannelSMS {
		t.Fatalf("got %q %q", to, ch)
	}
}

func TestTwilioSender(t *testing.T) {
	fake := &fakeCreator{}
	s := newTwilioSender(fake, TwilioConfig{PhoneNumber: "+15550001", WhatsappNumber: "+15550002"}, nil)

	ch, err := s.Send(context.Background(), "+5511999990000", "Olá")
	if err != nil || ch != ChannelWhatsapp {
		t.Fatalf("whatsapp send: %q, %v", ch, err)
	}
	if *fake.params[0].From != "whatsapp:+15550002" || *fake.params[0].To != "whatsapp:+5511999990000" || *fake.params[0].Body != "Olá" {
		t.Fatalf("unexpected whatsapp params %+v", fake.params[0])
	}

	ch, err = s.Send(context.Background(), "11999990000", "Oi")
	if err != nil || ch != ChannelSMS {
		t.Fatalf("sms send: %q, %v", ch, err)
	}
	if *fake.params[1].From != "+15550001" {
		t.Fatalf("sms must use the phone number, got %q", *fake.params[1].From)
	}

	if _, err := s.Send(context.Background(), " ", "x"); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}

	fake.err = errors.New("rate limited")
	if _, err := s.Send(context.Background(), "+551100", "x"); err == nil {
		t.Fatalf("expected twilio error")
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(nil)
	if ch, err := s.Send(context.Background(), "+55", "x"); err != nil || ch != ChannelLog {
		t.Fatalf("got %q, %v", ch, err)
	}
	if _, err := s.Send(context.Background(), "", "x"); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if !(TwilioConfig{AccountSID: "AC", AuthToken: "t"}).Configured() || (TwilioConfig{}).Configured() {
		t.Fatalf("Configured mismatch")
	}
}
