package handler

import (
	"errors"
	"net/http"

	"github.com/baldecash-team/whatsapp-bot/internal/model"
	"github.com/baldecash-team/whatsapp-bot/internal/service"

	"github.com/labstack/echo/v4"
)

type ChatsResponse struct {
	Grupos []model.GroupChat `json:"grupos"`
}

// GET /chats - groups the session has joined
func (h *Handler) GetChats(c echo.Context) error {
	if !h.state.IsReady() {
		return ErrorResponse(c, http.StatusServiceUnavailable, msgNotConnected)
	}

	groups, err := h.wa.ListGroups(c.Request().Context())
	if err != nil {
		if errors.Is(err, service.ErrNotReady) {
			return ErrorResponse(c, http.StatusServiceUnavailable, msgNotConnected)
		}
		h.log.Error().Err(err).Msg("list groups failed")
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
	if groups == nil {
		groups = []model.GroupChat{}
	}
	return c.JSON(http.StatusOK, ChatsResponse{Grupos: groups})
}
