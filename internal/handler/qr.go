package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/baldecash-team/whatsapp-bot/internal/helper"

	"github.com/labstack/echo/v4"
)

type qrPage struct {
	Title   string
	Lines   []string
	Image   template.URL
	Refresh int
	Status  bool
}

var qrTemplate = template.Must(template.New("qr").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>WhatsApp Bridge</title>
{{if .Refresh}}<meta http-equiv="refresh" content="{{.Refresh}}">{{end}}
</head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>{{.Title}}</h1>
{{if .Image}}<img src="{{.Image}}" alt="QR" style="max-width: 300px;" />{{end}}
{{range .Lines}}<p>{{.}}</p>
{{end}}{{if .Status}}<a href="/status">Ver estado</a>{{end}}
</body>
</html>
`))

var (
	pageConnected = qrPage{
		Title:  "WhatsApp ya esta conectado",
		Lines:  []string{"No necesitas escanear el QR"},
		Status: true,
	}
	pageWaiting = qrPage{
		Title:   "Esperando QR...",
		Lines:   []string{"Recarga la pagina en unos segundos"},
		Refresh: 3,
	}
)

// GET /qr
func (h *Handler) GetQR(c echo.Context) error {
	snap := h.state.Snapshot()

	page := pageWaiting
	switch {
	case snap.IsConnected:
		page = pageConnected
	case snap.QRPending():
		img, err := helper.QRCodeDataURL(snap.PairingCode)
		if err != nil {
			h.log.Error().Err(err).Msg("render qr")
			return ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		page = qrPage{
			Title:   "Escanea el QR con WhatsApp",
			Image:   template.URL(img),
			Lines:   []string{"Abre WhatsApp > Dispositivos vinculados > Vincular dispositivo"},
			Refresh: 5,
		}
	}

	var buf bytes.Buffer
	if err := qrTemplate.Execute(&buf, page); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, buf.String())
}

// GET /qr.png - raw image of the pending code
func (h *Handler) GetQRImage(c echo.Context) error {
	snap := h.state.Snapshot()
	if snap.IsConnected {
		return ErrorResponse(c, http.StatusConflict, "WhatsApp ya esta conectado")
	}
	if !snap.QRPending() {
		return ErrorResponse(c, http.StatusNotFound, "No hay QR disponible todavia")
	}
	png, err := helper.QRCodePNG(snap.PairingCode)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}
