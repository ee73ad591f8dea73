package helper

import (
	"errors"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

var ErrInvalidChatID = errors.New("invalid chat id")

// legacyUserServer is the user server used by WhatsApp Web ids ("123@c.us").
const legacyUserServer = "c.us"

// ParseChatID converts a chat id into a JID.
// Supports formats: 5215512345678, +52 1 55..., 5215512345678@c.us,
// 5215512345678@s.whatsapp.net, 120363...@g.us
func ParseChatID(chatID string) (types.JID, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return types.JID{}, ErrInvalidChatID
	}

	if !strings.Contains(chatID, "@") {
		digits := onlyDigits(chatID)
		if len(digits) < 8 {
			return types.JID{}, fmt.Errorf("%w: %s", ErrInvalidChatID, chatID)
		}
		return types.NewJID(digits, types.DefaultUserServer), nil
	}

	jid, err := types.ParseJID(chatID)
	if err != nil {
		return types.JID{}, fmt.Errorf("%w: %s", ErrInvalidChatID, err)
	}
	if jid.User == "" {
		return types.JID{}, fmt.Errorf("%w: %s", ErrInvalidChatID, chatID)
	}
	if jid.Server == legacyUserServer {
		jid.Server = types.DefaultUserServer
	}
	return jid, nil
}

// IsGroupJID reports whether chatID belongs to a group chat.
func IsGroupJID(chatID string) bool {
	return strings.HasSuffix(chatID, "@"+types.GroupServer)
}

func ExtractPhoneFromJID(jid string) string {
	// "6285148107612:43@s.whatsapp.net" -> "6285148107612"
	beforeAt, _, _ := strings.Cut(jid, "@")
	user, _, _ := strings.Cut(beforeAt, ":")
	return user
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
