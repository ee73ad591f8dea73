package handler

import "github.com/labstack/echo/v4"

// ErrorBody is the JSON shape of every error answer.
type ErrorBody struct {
	Error string `json:"error"`
}

// Error response helper
func ErrorResponse(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, ErrorBody{Error: message})
}

const (
	msgNotConnected   = "WhatsApp no esta conectado"
	msgMissingMensaje = `Falta el campo "mensaje"`
	msgMissingTarget  = "Falta chatId y no hay grupo por defecto"
	msgInvalidBody    = "Cuerpo de la peticion invalido"
	msgInvalidChatID  = "chatId invalido"
)
