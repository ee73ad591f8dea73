package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baldecash-team/whatsapp-bot/config"
	"github.com/baldecash-team/whatsapp-bot/database"
	"github.com/baldecash-team/whatsapp-bot/internal/handler"
	"github.com/baldecash-team/whatsapp-bot/internal/logger"
	"github.com/baldecash-team/whatsapp-bot/internal/model"
	"github.com/baldecash-team/whatsapp-bot/internal/service"
	"github.com/baldecash-team/whatsapp-bot/internal/ws"

	"go.mau.fi/whatsmeow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := database.InitWhatsmeow(ctx, cfg.DatabaseURL, cfg.UsesPostgres(), logger.Whatsmeow(log, "store", cfg.WhatsmeowLogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load device")
	}
	client := whatsmeow.NewClient(device, logger.Whatsmeow(log, "client", cfg.WhatsmeowLogLevel))

	hub := ws.NewHub(log.With().Str("component", "ws").Logger())
	go hub.Run(ctx)

	state := model.NewSessionState()
	webhook := service.NewWebhook(service.WebhookConfig{
		URL:     cfg.WebhookURL,
		Secret:  cfg.WebhookSecret,
		Timeout: cfg.WebhookTimeout,
		Logger:  log,
	})
	bridge := service.NewBridge(client, state, webhook, service.BridgeConfig{
		TargetGroup: cfg.GroupID,
		PrintQR:     cfg.PrintQR,
	}, log)
	bridge.Realtime = hub
	client.AddEventHandler(bridge.HandleEvent)

	log.Info().Str("webhook", cfg.WebhookURL).Str("grupo", cfg.GroupLabel()).Msg("starting whatsapp bridge")
	if err := bridge.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start whatsapp session")
	}

	e := handler.NewServer(handler.ServerConfig{
		RateLimit:   cfg.RateLimit,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})
	handler.New(handler.Config{
		State:        state,
		Messenger:    bridge,
		DefaultGroup: cfg.GroupID,
		GroupLabel:   cfg.GroupLabel(),
		WebhookURL:   webhook.URL(),
		Hub:          hub,
		Logger:       log,
	}).Register(e)

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("http server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	bridge.Stop()
	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("close session store")
	}
}
