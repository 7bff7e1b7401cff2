package notify

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/api/pkg/pagination"
)

// Handler exposes the delivery log for the admin UI.
type Handler struct {
	log *DeliveryLog
}

func NewHandler(log *DeliveryLog) *Handler {
	return &Handler{log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/deliveries", h.List)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total := h.log.List(pg.Limit, pg.Offset)
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
