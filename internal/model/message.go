package model

import (
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
)

// UnknownSender is the display name used when nothing better is known.
const UnknownSender = "Desconocido"

// InboundMessage is a WhatsApp message converted from the engine event.
type InboundMessage struct {
	ID        string
	Chat      string
	Sender    string
	Author    string // group participant, empty in direct chats
	PushName  string
	Body      string
	Kind      string // see helper.MessageKind; empty for non-user payloads
	IsEdit    bool
	Timestamp time.Time
	IsGroup   bool
	FromMe    bool

	// Original proto, kept so replies can quote it.
	Raw *waE2E.Message
}

// Phone is the sender identifier sent to the webhook: the author in groups,
// the chat itself in direct conversations.
func (m InboundMessage) Phone() string {
	if m.Author != "" {
		return m.Author
	}
	return m.Chat
}

type Contact struct {
	PushName     string
	FullName     string
	BusinessName string
}

// DisplayName picks the best available name for the sender of msg.
func (c Contact) DisplayName(msg InboundMessage) string {
	for _, name := range []string{c.PushName, msg.PushName, c.FullName, c.BusinessName, msg.Author} {
		if name != "" {
			return name
		}
	}
	return UnknownSender
}

// SendRequest is the body of POST /send.
type SendRequest struct {
	Mensaje string `json:"mensaje" validate:"required"`
	ChatID  string `json:"chatId"`
}

// GroupChat is one entry of GET /chats.
type GroupChat struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	Participantes int    `json:"participantes"`
}
