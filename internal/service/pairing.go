package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baldecash-team/whatsapp-bot/internal/helper"
	"github.com/baldecash-team/whatsapp-bot/internal/ws"

	"go.mau.fi/whatsmeow"
)

// Start connects the session. Without a stored device it opens a QR channel
// first and keeps issuing pairing codes until one is scanned or ctx ends.
func (b *Bridge) Start(ctx context.Context) error {
	b.baseCtx = ctx
	if b.paired() {
		b.log.Info().Str("jid", b.selfJID()).Msg("stored session found, connecting")
		if err := b.conn.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		return nil
	}
	return b.pair(ctx)
}

// Stop disconnects the client and waits for in-flight messages.
func (b *Bridge) Stop() {
	b.conn.Disconnect()
	b.Wait()
}

func (b *Bridge) pair(ctx context.Context) error {
	qrChan, err := b.conn.GetQRChannel(ctx)
	if err != nil {
		b.onAuthFailure("QR_CHANNEL_FAILED", err.Error())
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := b.conn.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	go b.watchQR(ctx, qrChan)
	return nil
}

func (b *Bridge) watchQR(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch {
		case item.Event == whatsmeow.QRChannelEventCode:
			b.onPairingCode(item.Code, item.Timeout)

		case item.Event == whatsmeow.QRChannelSuccess.Event:
			b.log.Info().Msg("qr scanned, pairing successful")
			return

		case item.Event == whatsmeow.QRChannelTimeout.Event:
			b.state.ClearPairingCode()
			b.log.Warn().Msg("qr codes expired, requesting new ones")
			b.publish(ws.EventQRTimeout, nil)
			if ctx.Err() != nil {
				return
			}
			b.conn.Disconnect()
			if err := b.pair(ctx); err != nil {
				b.log.Error().Err(err).Msg("failed to restart pairing")
			}
			return

		case item.Event == whatsmeow.QRChannelEventError:
			msg := "qr channel error"
			if item.Error != nil {
				msg = item.Error.Error()
			}
			b.state.ClearPairingCode()
			b.onAuthFailure("PAIR_ERROR", msg)
			return

		case strings.HasPrefix(item.Event, "err-"):
			b.state.ClearPairingCode()
			b.onAuthFailure(strings.ToUpper(strings.ReplaceAll(item.Event, "-", "_")), item.Event)
			return
		}
	}
}

func (b *Bridge) onPairingCode(code string, timeout time.Duration) {
	b.state.SetPairingCode(code)
	b.log.Info().Dur("expires_in", timeout).Msg("qr generated, open /qr to scan it")
	if b.cfg.PrintQR {
		helper.PrintQRCode(b.cfg.QROut, code)
	}
	data := ws.QRGeneratedData{QRData: code}
	if timeout > 0 {
		data.ExpiresAt = time.Now().UTC().Add(timeout)
	}
	b.publish(ws.EventQRGenerated, data)
}
