package handler

import (
	"context"
	"time"

	"github.com/baldecash-team/whatsapp-bot/internal/model"
	"github.com/baldecash-team/whatsapp-bot/internal/ws"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Messenger is what the handlers need from the WhatsApp session.
type Messenger interface {
	SendText(ctx context.Context, chatID, text string) error
	ListGroups(ctx context.Context) ([]model.GroupChat, error)
}

type Config struct {
	State     *model.SessionState
	Messenger Messenger
	// DefaultGroup is used by /send when no chatId is given.
	DefaultGroup string
	// GroupLabel and WebhookURL are reported on /status.
	GroupLabel string
	WebhookURL string
	// Hub backs /ws; nil disables the route.
	Hub    *ws.Hub
	Logger zerolog.Logger
}

type Handler struct {
	state        *model.SessionState
	wa           Messenger
	defaultGroup string
	groupLabel   string
	webhookURL   string
	hub          *ws.Hub
	log          zerolog.Logger
	now          func() time.Time
}

func New(cfg Config) *Handler {
	label := cfg.GroupLabel
	if label == "" {
		label = cfg.DefaultGroup
	}
	if label == "" {
		label = "todos"
	}
	return &Handler{
		state:        cfg.State,
		wa:           cfg.Messenger,
		defaultGroup: cfg.DefaultGroup,
		groupLabel:   label,
		webhookURL:   cfg.WebhookURL,
		hub:          cfg.Hub,
		log:          cfg.Logger.With().Str("component", "http").Logger(),
		now:          time.Now,
	}
}

// Register mounts every route on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/qr", h.GetQR)
	e.GET("/qr.png", h.GetQRImage)
	e.GET("/status", h.GetStatus)
	e.GET("/health", h.Health)
	e.POST("/send", h.SendMessage)
	e.GET("/chats", h.GetChats)
	if h.hub != nil {
		e.GET("/ws", h.WebSocket)
	}
}
