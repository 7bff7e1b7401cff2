package blockedslot

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/api/pkg/pagination"
)

const dateLayout = "2006-01-02"

type Handler struct {
	cal *Calendar
}

func NewHandler(cal *Calendar) *Handler {
	return &Handler{cal: cal}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/blocked-slots", h.List)
	api.GET("/blocked-slots/:id", h.Get)
	api.POST("/blocked-slots", h.Create)
	api.PUT("/blocked-slots/:id", h.Update)
	api.DELETE("/blocked-slots/:id", h.Delete)
}

type createRequest struct {
	Date        string  `json:"date"`
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
	Reason      *string `json:"reason"`
}

func (req *createRequest) toModel() (*BlockedSlot, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, err
	}
	return &BlockedSlot{
		Date:        date,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Reason:      req.Reason,
	}, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := req.toModel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	if err := h.cal.Create(c.Request().Context(), b); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.cal.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "blocked slot not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) List(c echo.Context) error {
	now := time.Now()
	from, to := now, now.AddDate(0, 1, 0)
	if p := c.QueryParam("from"); p != "" {
		t, err := time.Parse(dateLayout, p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = t
	}
	if p := c.QueryParam("to"); p != "" {
		t, err := time.Parse(dateLayout, p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		to = t
	}

	pg := pagination.FromContext(c)
	items, total, err := h.cal.ListByRange(c.Request().Context(), from, to, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := req.toModel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	b.ID = id
	if err := h.cal.Update(c.Request().Context(), b); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.cal.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
