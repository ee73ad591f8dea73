package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const healthTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type StatusResponse struct {
	Status    string `json:"status"` // "connected" or "disconnected"
	QRPending bool   `json:"qrPending"`
	Grupo     string `json:"grupo"`
	Webhook   string `json:"webhook"`
	JID       string `json:"jid,omitempty"`
}

type HealthResponse struct {
	OK        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
}

// GET /status
func (h *Handler) GetStatus(c echo.Context) error {
	snap := h.state.Snapshot()
	status := "disconnected"
	if snap.IsConnected {
		status = "connected"
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Status:    status,
		QRPending: snap.QRPending(),
		Grupo:     h.groupLabel,
		Webhook:   h.webhookURL,
		JID:       snap.JID,
	})
}

// GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		OK:        true,
		Timestamp: h.now().UTC().Format(healthTimeLayout),
	})
}

// GET /
func (h *Handler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"service": "WhatsApp Bridge",
		"endpoints": map[string]string{
			"qr":     "GET /qr",
			"status": "GET /status",
			"health": "GET /health",
			"send":   "POST /send",
			"chats":  "GET /chats",
		},
	})
}
