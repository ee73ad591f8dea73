package ws

import "time"

// Event names, shared with any dashboard listening on /ws.
const (
	EventQRGenerated   = "QR_GENERATED"
	EventQRSuccess     = "QR_SUCCESS" // pairing succeeded
	EventQRTimeout     = "QR_TIMEOUT"
	EventStatusChanged = "STATUS_CHANGED"
	EventSessionError  = "SESSION_ERROR"

	EventMessageForwarded = "MESSAGE_FORWARDED"
	EventReplySent        = "REPLY_SENT"
)

// WsEvent is the envelope of every websocket message.
// Clients switch on Event and decode Data accordingly.
type WsEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"` // UTC
	Data      interface{} `json:"data"`
}

// RealtimePublisher is implemented by Hub. A nil publisher is allowed
// wherever one is accepted.
type RealtimePublisher interface {
	Publish(evt WsEvent)
}

func NewEvent(name string, data interface{}) WsEvent {
	return WsEvent{Event: name, Timestamp: time.Now().UTC(), Data: data}
}

// QRGeneratedData is sent whenever a new pairing code is ready to scan.
type QRGeneratedData struct {
	QRData    string    `json:"qr_data"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// StatusChangedData mirrors GET /status after a lifecycle event.
type StatusChangedData struct {
	Status      string `json:"status"` // "connected", "disconnected", "logged_out"
	IsConnected bool   `json:"is_connected"`
	JID         string `json:"jid,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// SessionErrorData reports pairing or login failures.
type SessionErrorData struct {
	Code    string `json:"code"` // e.g. "AUTH_FAILURE", "CLIENT_OUTDATED", "QR_CHANNEL_FAILED"
	Message string `json:"message"`
}

// MessageData describes a forwarded message or a reply sent back.
type MessageData struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id,omitempty"`
	HasReply  bool   `json:"has_reply"`
}
