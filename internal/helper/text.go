package helper

import (
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
)

// MessageText returns the user-visible text of m: plain text, extended text
// or a media caption. Ephemeral and view-once wrappers are unwrapped first.
func MessageText(m *waE2E.Message) string {
	m = unwrap(m)
	if m == nil {
		return ""
	}
	switch {
	case m.GetConversation() != "":
		return m.GetConversation()
	case m.GetExtendedTextMessage().GetText() != "":
		return m.GetExtendedTextMessage().GetText()
	case m.GetImageMessage().GetCaption() != "":
		return m.GetImageMessage().GetCaption()
	case m.GetVideoMessage().GetCaption() != "":
		return m.GetVideoMessage().GetCaption()
	case m.GetDocumentMessage().GetCaption() != "":
		return m.GetDocumentMessage().GetCaption()
	}
	return ""
}

// MessageKind names the user content carried by m. It returns "" for
// payloads nobody typed or sent: protocol messages (edits, revokes),
// reactions, poll votes, pins and bare sender-key distributions.
func MessageKind(m *waE2E.Message) string {
	m = unwrap(m)
	if m == nil {
		return ""
	}
	switch {
	case m.GetConversation() != "", m.GetExtendedTextMessage() != nil:
		return "text"
	case m.GetImageMessage() != nil:
		return "image"
	case m.GetVideoMessage() != nil, m.GetPtvMessage() != nil:
		return "video"
	case m.GetAudioMessage() != nil:
		return "audio"
	case m.GetDocumentMessage() != nil:
		return "document"
	case m.GetStickerMessage() != nil:
		return "sticker"
	case m.GetLocationMessage() != nil, m.GetLiveLocationMessage() != nil:
		return "location"
	case m.GetContactMessage() != nil, m.GetContactsArrayMessage() != nil:
		return "contact"
	case m.GetPollCreationMessage() != nil, m.GetPollCreationMessageV2() != nil, m.GetPollCreationMessageV3() != nil:
		return "poll"
	}
	return ""
}

func unwrap(m *waE2E.Message) *waE2E.Message {
	for i := 0; i < 3 && m != nil; i++ {
		var next *waE2E.Message
		switch {
		case m.GetEphemeralMessage() != nil:
			next = m.GetEphemeralMessage().GetMessage()
		case m.GetViewOnceMessage() != nil:
			next = m.GetViewOnceMessage().GetMessage()
		case m.GetViewOnceMessageV2() != nil:
			next = m.GetViewOnceMessageV2().GetMessage()
		case m.GetDocumentWithCaptionMessage() != nil:
			next = m.GetDocumentWithCaptionMessage().GetMessage()
		}
		if next == nil {
			break
		}
		m = next
	}
	return m
}

// Preview shortens s to max runes for log lines.
func Preview(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
