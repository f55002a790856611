package notifiers

import (
	"context"
	"sync"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type fakeEmailTransport struct {
	mu       sync.Mutex
	sent     []*EmailMessage
	SendFunc func(ctx context.Context, msg *EmailMessage) (*EmailReceipt, error)
}

func (f *fakeEmailTransport) Name() string { return "fake-email" }

func (f *fakeEmailTransport) Send(ctx context.Context, msg *EmailMessage) (*EmailReceipt, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	if f.SendFunc != nil {
		return f.SendFunc(ctx, msg)
	}
	return &EmailReceipt{MessageID: "email-1", Accepted: []string{msg.To}}, nil
}

func (f *fakeEmailTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakePushGateway struct {
	mu       sync.Mutex
	tokens   [][]string
	payloads []*PushPayload
	SendFunc func(ctx context.Context, tokens []string, payload *PushPayload) (*PushResponse, error)
}

func (f *fakePushGateway) Name() string { return "fake-push" }

func (f *fakePushGateway) Send(ctx context.Context, tokens []string, payload *PushPayload) (*PushResponse, error) {
	f.mu.Lock()
	f.tokens = append(f.tokens, tokens)
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.SendFunc != nil {
		return f.SendFunc(ctx, tokens, payload)
	}
	resp := &PushResponse{}
	for _, t := range tokens {
		resp.Success = append(resp.Success, PushDelivery{Token: t, MessageID: "push-" + t})
	}
	return resp, nil
}

func (f *fakePushGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakeSMSGateway struct {
	mu       sync.Mutex
	sent     []*SMSMessage
	SendFunc func(ctx context.Context, msg *SMSMessage) (*SMSReceipt, error)
}

func (f *fakeSMSGateway) Name() string { return "fake-sms" }

func (f *fakeSMSGateway) Send(ctx context.Context, msg *SMSMessage) (*SMSReceipt, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	if f.SendFunc != nil {
		return f.SendFunc(ctx, msg)
	}
	return &SMSReceipt{SID: "sms-1", Status: "queued"}, nil
}

func (f *fakeSMSGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type mapTemplates map[string]*model.Template

func (m mapTemplates) Get(_ context.Context, id string) (*model.Template, bool, error) {
	t, ok := m[id]
	return t, ok, nil
}
