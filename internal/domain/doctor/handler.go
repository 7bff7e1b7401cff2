package doctor

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctor/profile", h.GetProfile)
	api.PUT("/doctor/profile", h.SaveProfile)
	api.GET("/doctor/schedule", h.GetSchedule)
	api.PUT("/doctor/schedule", h.SaveSchedule)
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.Profile(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not set up yet")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SaveProfile(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveProfile(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	s, err := h.svc.Schedule(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) SaveSchedule(c echo.Context) error {
	var s WeekSchedule
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveSchedule(c.Request().Context(), s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}
