package assistant

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/assistant/chat", h.Chat)
}

type chatPayload struct {
	Message string `json:"message"`
}

type chatReply struct {
	Reply string `json:"reply"`
}

func (h *Handler) Chat(c echo.Context) error {
	if !h.client.Enabled() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "assistant is not configured")
	}
	var req chatPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	reply, err := h.client.Chat(c.Request().Context(), req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, chatReply{Reply: reply})
}
