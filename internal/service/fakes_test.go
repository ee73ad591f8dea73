package service

import (
	"context"
	"errors"
	"sync"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"github.com/baldecash-team/whatsapp-bot/internal/ws"
)

type sentMessage struct {
	To      types.JID
	Message *waE2E.Message
}

type fakeClient struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
	groups  []*types.GroupInfo
	listErr error

	connects    int
	disconnects int
	qr          chan whatsmeow.QRChannelItem
}

func (f *fakeClient) SendMessage(_ context.Context, to types.JID, msg *waE2E.Message, _ ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return whatsmeow.SendResponse{}, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{To: to, Message: msg})
	return whatsmeow.SendResponse{ID: "3EB0REPLY"}, nil
}

func (f *fakeClient) GetJoinedGroups(context.Context) ([]*types.GroupInfo, error) {
	return f.groups, f.listErr
}

func (f *fakeClient) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return nil
}

func (f *fakeClient) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeClient) GetQRChannel(context.Context) (<-chan whatsmeow.QRChannelItem, error) {
	if f.qr == nil {
		return nil, errors.New("no qr channel")
	}
	return f.qr, nil
}

func (f *fakeClient) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeContacts struct {
	info types.ContactInfo
	err  error
}

func (f fakeContacts) GetContact(context.Context, types.JID) (types.ContactInfo, error) {
	return f.info, f.err
}

type fakeForwarder struct {
	mu       sync.Mutex
	payloads []WebhookPayload
	reply    string
}

func (f *fakeForwarder) Forward(_ context.Context, p WebhookPayload) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.reply
}

func (f *fakeForwarder) Calls() []WebhookPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]WebhookPayload(nil), f.payloads...)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []ws.WsEvent
}

func (c *capturePublisher) Publish(evt ws.WsEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *capturePublisher) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.events))
	for _, e := range c.events {
		names = append(names, e.Event)
	}
	return names
}
