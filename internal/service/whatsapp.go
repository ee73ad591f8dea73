package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/baldecash-team/whatsapp-bot/internal/helper"
	"github.com/baldecash-team/whatsapp-bot/internal/model"
	"github.com/baldecash-team/whatsapp-bot/internal/ws"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

var ErrNotReady = errors.New("whatsapp session is not connected")

// waClient is the part of *whatsmeow.Client used to talk to chats.
type waClient interface {
	SendMessage(ctx context.Context, to types.JID, message *waE2E.Message, extra ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error)
	GetJoinedGroups(ctx context.Context) ([]*types.GroupInfo, error)
}

// sessionClient is the part of *whatsmeow.Client used for the connection
// lifecycle.
type sessionClient interface {
	Connect() error
	Disconnect()
	GetQRChannel(ctx context.Context) (<-chan whatsmeow.QRChannelItem, error)
}

type contactStore interface {
	GetContact(ctx context.Context, user types.JID) (types.ContactInfo, error)
}

type BridgeConfig struct {
	// TargetGroup restricts forwarding to one chat; empty forwards everything.
	TargetGroup string
	// PrintQR renders pairing codes on QROut (stdout by default).
	PrintQR bool
	QROut   io.Writer
}

// Bridge connects the WhatsApp session to the workflow webhook. It owns the
// session state mutations; the HTTP layer only reads them.
type Bridge struct {
	client   waClient
	conn     sessionClient
	contacts contactStore
	selfJID  func() string
	paired   func() bool

	state  *model.SessionState
	fwd    Forwarder
	cfg    BridgeConfig
	target string
	log    zerolog.Logger

	Realtime ws.RealtimePublisher

	baseCtx  context.Context
	inflight sync.WaitGroup
}

func NewBridge(cli *whatsmeow.Client, state *model.SessionState, fwd Forwarder, cfg BridgeConfig, log zerolog.Logger) *Bridge {
	b := newBridge(cli, cli, cli.Store.Contacts, state, fwd, cfg, log)
	b.selfJID = func() string {
		if cli.Store.ID == nil {
			return ""
		}
		return cli.Store.ID.ToNonAD().String()
	}
	b.paired = func() bool { return cli.Store.ID != nil }
	return b
}

func newBridge(client waClient, conn sessionClient, contacts contactStore, state *model.SessionState, fwd Forwarder, cfg BridgeConfig, log zerolog.Logger) *Bridge {
	if cfg.QROut == nil {
		cfg.QROut = os.Stdout
	}
	target := cfg.TargetGroup
	if target != "" {
		if jid, err := helper.ParseChatID(target); err == nil {
			target = jid.String()
		}
	}
	return &Bridge{
		client:   client,
		conn:     conn,
		contacts: contacts,
		selfJID:  func() string { return "" },
		paired:   func() bool { return false },
		state:    state,
		fwd:      fwd,
		cfg:      cfg,
		target:   target,
		log:      log.With().Str("component", "bridge").Logger(),
		baseCtx:  context.Background(),
	}
}

// HandleEvent is registered with client.AddEventHandler.
func (b *Bridge) HandleEvent(rawEvt interface{}) {
	switch evt := rawEvt.(type) {
	case *events.Connected:
		b.onReady()

	case *events.PairSuccess:
		b.log.Info().Str("jid", evt.ID.String()).Msg("authenticated")
		b.publish(ws.EventQRSuccess, ws.StatusChangedData{Status: "authenticated", JID: evt.ID.ToNonAD().String()})

	case *events.Disconnected:
		b.onDisconnected("disconnected", "")

	case *events.LoggedOut:
		b.onDisconnected("logged_out", evt.Reason.String())

	case *events.StreamReplaced:
		b.onDisconnected("stream_replaced", "another client connected with the same session")

	case *events.ConnectFailure:
		b.onAuthFailure("CONNECT_FAILURE", fmt.Sprintf("%s %s", evt.Reason, evt.Message))

	case *events.ClientOutdated:
		b.onAuthFailure("CLIENT_OUTDATED", "whatsapp web version rejected by server")

	case *events.TemporaryBan:
		b.onAuthFailure("TEMPORARY_BAN", evt.String())

	case *events.Message:
		b.dispatch(ToInboundMessage(evt))
	}
}

func (b *Bridge) onReady() {
	jid := b.selfJID()
	b.state.SetReady(jid)
	b.log.Info().Str("jid", jid).Msg("whatsapp connected and ready")
	b.publish(ws.EventStatusChanged, ws.StatusChangedData{Status: "connected", IsConnected: true, JID: jid})
}

func (b *Bridge) onDisconnected(status, reason string) {
	b.state.SetDisconnected()
	b.log.Warn().Str("status", status).Str("reason", reason).Msg("whatsapp disconnected")
	b.publish(ws.EventStatusChanged, ws.StatusChangedData{Status: status, Reason: reason})
}

// onAuthFailure only reports; the ready flag is already false.
func (b *Bridge) onAuthFailure(code, message string) {
	b.log.Error().Str("code", code).Msg("authentication error: " + message)
	b.publish(ws.EventSessionError, ws.SessionErrorData{Code: code, Message: message})
}

// ToInboundMessage converts a whatsmeow message event at the boundary.
func ToInboundMessage(evt *events.Message) model.InboundMessage {
	info := evt.Info
	msg := model.InboundMessage{
		ID:        string(info.ID),
		Chat:      info.Chat.ToNonAD().String(),
		Sender:    info.Sender.ToNonAD().String(),
		PushName:  info.PushName,
		Body:      helper.MessageText(evt.Message),
		Kind:      helper.MessageKind(evt.Message),
		IsEdit:    evt.IsEdit,
		Timestamp: info.Timestamp,
		FromMe:    info.IsFromMe,
		Raw:       evt.Message,
	}
	msg.IsGroup = info.IsGroup || helper.IsGroupJID(msg.Chat)
	if msg.IsGroup {
		msg.Author = msg.Sender
	}
	return msg
}

// dispatch processes msg on its own goroutine so a slow webhook never holds
// up the whatsmeow event loop.
func (b *Bridge) dispatch(msg model.InboundMessage) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.Error().Interface("panic", r).Str("message_id", msg.ID).Msg("panic while processing message")
			}
		}()
		b.processMessage(b.baseCtx, msg)
	}()
}

// Wait blocks until every dispatched message has been processed.
func (b *Bridge) Wait() {
	b.inflight.Wait()
}

// Accepts reports whether msg passes the group filter and is not our own.
func (b *Bridge) Accepts(msg model.InboundMessage) bool {
	if b.target != "" && msg.Chat != b.target {
		return false
	}
	return !msg.FromMe
}

func (b *Bridge) processMessage(ctx context.Context, msg model.InboundMessage) {
	if !b.Accepts(msg) {
		return
	}
	if msg.Kind == "" || msg.IsEdit {
		b.log.Debug().Str("message_id", msg.ID).Str("chat", msg.Chat).Bool("edit", msg.IsEdit).Msg("skipping non-user message")
		return
	}

	b.log.Info().
		Str("from", msg.Chat).
		Str("kind", msg.Kind).
		Str("phone", helper.ExtractPhoneFromJID(msg.Phone())).
		Str("text", helper.Preview(msg.Body, 50)).
		Msg("message received")

	contact := b.lookupContact(ctx, msg)
	reply := b.fwd.Forward(ctx, WebhookPayload{
		Mensaje:   msg.Body,
		De:        contact.DisplayName(msg),
		Telefono:  msg.Phone(),
		Timestamp: msg.Timestamp.Unix(),
		ChatID:    msg.Chat,
		IsGroup:   msg.IsGroup,
		MessageID: msg.ID,
	})
	b.publish(ws.EventMessageForwarded, ws.MessageData{ChatID: msg.Chat, MessageID: msg.ID, HasReply: reply != ""})
	if reply == "" {
		return
	}

	if err := b.Reply(ctx, msg, reply); err != nil {
		b.log.Error().Err(err).Str("chat", msg.Chat).Msg("failed to send reply")
		return
	}
	b.log.Info().Str("chat", msg.Chat).Msg("reply sent to chat")
	b.publish(ws.EventReplySent, ws.MessageData{ChatID: msg.Chat, MessageID: msg.ID, HasReply: true})
}

// lookupContact never fails: on error it logs and falls back to what the
// message itself carries.
func (b *Bridge) lookupContact(ctx context.Context, msg model.InboundMessage) model.Contact {
	jid, err := types.ParseJID(msg.Sender)
	if err != nil || jid.User == "" {
		return model.Contact{}
	}
	info, err := b.contacts.GetContact(ctx, jid)
	if err != nil {
		b.log.Warn().Err(err).Str("sender", msg.Sender).Msg("contact lookup failed")
		return model.Contact{}
	}
	return model.Contact{
		PushName:     info.PushName,
		FullName:     info.FullName,
		BusinessName: info.BusinessName,
	}
}

// Reply sends text to the chat msg came from, quoting msg.
func (b *Bridge) Reply(ctx context.Context, msg model.InboundMessage, text string) error {
	chat, err := types.ParseJID(msg.Chat)
	if err != nil {
		return fmt.Errorf("%w: %s", helper.ErrInvalidChatID, msg.Chat)
	}
	ctxInfo := &waE2E.ContextInfo{
		StanzaID:      proto.String(msg.ID),
		QuotedMessage: msg.Raw,
	}
	if msg.IsGroup {
		ctxInfo.Participant = proto.String(msg.Sender)
	}
	_, err = b.client.SendMessage(ctx, chat, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: ctxInfo,
		},
	})
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// SendText delivers text to chatID. It requires a ready session.
func (b *Bridge) SendText(ctx context.Context, chatID, text string) error {
	if !b.state.IsReady() {
		return ErrNotReady
	}
	jid, err := helper.ParseChatID(chatID)
	if err != nil {
		return err
	}
	if _, err := b.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	b.log.Info().Str("to", jid.String()).Msg("message sent")
	return nil
}

// ListGroups returns the groups the session has joined.
func (b *Bridge) ListGroups(ctx context.Context) ([]model.GroupChat, error) {
	if !b.state.IsReady() {
		return nil, ErrNotReady
	}
	groups, err := b.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("get joined groups: %w", err)
	}
	list := make([]model.GroupChat, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			continue
		}
		list = append(list, model.GroupChat{
			ID:            g.JID.String(),
			Nombre:        g.Name,
			Participantes: len(g.Participants),
		})
	}
	return list, nil
}

func (b *Bridge) publish(name string, data interface{}) {
	if b.Realtime == nil {
		return
	}
	b.Realtime.Publish(ws.NewEvent(name, data))
}
