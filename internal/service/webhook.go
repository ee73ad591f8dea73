package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/baldecash-team/whatsapp-bot/internal/helper"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxWebhookResponse = 1 << 20
	userAgent          = "whatsapp-bridge/1.0"
)

// WebhookPayload is the JSON body posted for every forwarded message.
type WebhookPayload struct {
	Mensaje   string `json:"mensaje"`
	De        string `json:"de"`
	Telefono  string `json:"telefono"`
	Timestamp int64  `json:"timestamp"`
	ChatID    string `json:"chatId"`
	IsGroup   bool   `json:"isGroup"`
	MessageID string `json:"messageId"`
}

type webhookResponse struct {
	Respuesta json.RawMessage `json:"respuesta"`
}

// Forwarder hands a message to the workflow and returns its reply, or ""
// when there is nothing to send back.
type Forwarder interface {
	Forward(ctx context.Context, payload WebhookPayload) string
}

type WebhookConfig struct {
	URL string
	// Secret, when set, signs the body in X-Signature-256.
	Secret string
	// Timeout of 0 leaves the call unbounded.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Webhook posts messages to the workflow URL. Failures are logged and
// reported as "no reply"; nothing is retried.
type Webhook struct {
	url    string
	secret string
	client *http.Client
	log    zerolog.Logger
}

func NewWebhook(cfg WebhookConfig) *Webhook {
	return &Webhook{
		url:    cfg.URL,
		secret: cfg.Secret,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    cfg.Logger.With().Str("component", "webhook").Logger(),
	}
}

func (w *Webhook) URL() string { return w.url }

func (w *Webhook) Forward(ctx context.Context, payload WebhookPayload) string {
	reply, err := w.post(ctx, payload)
	if err != nil {
		w.log.Error().Err(err).Str("chat", payload.ChatID).Str("message_id", payload.MessageID).Msg("webhook call failed")
		return ""
	}
	return reply
}

func (w *Webhook) post(ctx context.Context, payload WebhookPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if w.secret != "" {
		req.Header.Set("X-Signature-256", SignBody(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponse))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.log.Error().
			Int("status", resp.StatusCode).
			Str("body", helper.Preview(string(respBody), 100)).
			Msg("webhook returned non-2xx")
		return "", nil
	}

	w.log.Debug().Str("body", helper.Preview(string(respBody), 100)).Msg("webhook response")
	return parseReply(respBody), nil
}

// parseReply extracts a string "respuesta" field. Anything else, including
// malformed JSON, means no reply.
func parseReply(body []byte) string {
	var parsed webhookResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Respuesta) == 0 {
		return ""
	}
	var reply string
	if err := json.Unmarshal(parsed.Respuesta, &reply); err != nil {
		return ""
	}
	return reply
}

// SignBody returns "sha256=<hex hmac>" of body.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
