package handler

import (
	"errors"
	"net/http"

	"github.com/baldecash-team/whatsapp-bot/internal/helper"
	"github.com/baldecash-team/whatsapp-bot/internal/model"
	"github.com/baldecash-team/whatsapp-bot/internal/service"

	"github.com/labstack/echo/v4"
)

type SendResponse struct {
	OK      bool   `json:"ok"`
	Destino string `json:"destino"`
}

// POST /send
func (h *Handler) SendMessage(c echo.Context) error {
	if !h.state.IsReady() {
		return ErrorResponse(c, http.StatusServiceUnavailable, msgNotConnected)
	}

	var req model.SendRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, msgInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, validationMessage(err))
	}

	target := req.ChatID
	if target == "" {
		target = h.defaultGroup
	}
	if target == "" {
		return ErrorResponse(c, http.StatusBadRequest, msgMissingTarget)
	}

	err := h.wa.SendText(c.Request().Context(), target, req.Mensaje)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotReady):
		return ErrorResponse(c, http.StatusServiceUnavailable, msgNotConnected)
	case errors.Is(err, helper.ErrInvalidChatID):
		return ErrorResponse(c, http.StatusBadRequest, msgInvalidChatID)
	default:
		h.log.Error().Err(err).Str("to", target).Msg("send failed")
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, SendResponse{OK: true, Destino: target})
}
