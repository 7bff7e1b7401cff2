package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/api/pkg/pagination"
)

const dateLayout = "2006-01-02"

type Handler struct {
	sched *Scheduler
}

func NewHandler(sched *Scheduler) *Handler {
	return &Handler{sched: sched}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.POST("/appointments", h.Create)
	api.PUT("/appointments/:id", h.Update)
	api.DELETE("/appointments/:id", h.Delete)
	api.POST("/appointments/:id/confirm", h.Confirm)
	api.POST("/appointments/:id/reject", h.Reject)
	api.POST("/appointments/:id/cancel", h.Cancel)
	api.GET("/availability", h.Availability)
}

type bookRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	ServiceID   uuid.UUID `json:"service_id"`
	Date        string    `json:"date"`
	StartMinute int       `json:"start_minute"`
	Comment     *string   `json:"comment"`
}

func (h *Handler) Create(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	a := &Appointment{
		PatientID:   req.PatientID,
		ServiceID:   req.ServiceID,
		Date:        date,
		StartMinute: req.StartMinute,
		Comment:     req.Comment,
	}
	if err := h.sched.Book(c.Request().Context(), a); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.sched.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	var f Filter
	if p := c.QueryParam("date"); p != "" {
		t, err := time.Parse(dateLayout, p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		f.Date = &t
	}
	if p := c.QueryParam("patient_id"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &id
	}
	if p := c.QueryParam("status"); p != "" {
		st := Status(p)
		if !st.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status "+p)
		}
		f.Status = &st
	}

	// A pure date filter is the calendar day view: everything on the
	// day, ordered by start minute, no paging.
	if f.Date != nil && f.PatientID == nil && f.Status == nil {
		items, err := h.sched.Day(c.Request().Context(), *f.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, items)
	}

	pg := pagination.FromContext(c)
	items, total, err := h.sched.Search(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type rescheduleRequest struct {
	Date        string    `json:"date"`
	StartMinute int       `json:"start_minute"`
	ServiceID   uuid.UUID `json:"service_id"`
	Comment     *string   `json:"comment"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	a, err := h.sched.Reschedule(c.Request().Context(), id, date, req.StartMinute, req.ServiceID, req.Comment)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.sched.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Confirm(c echo.Context) error { return h.transition(c, StatusConfirmed) }
func (h *Handler) Reject(c echo.Context) error  { return h.transition(c, StatusRejected) }
func (h *Handler) Cancel(c echo.Context) error  { return h.transition(c, StatusCancelledByDoctor) }

func (h *Handler) transition(c echo.Context, to Status) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.sched.Transition(c.Request().Context(), id, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Availability(c echo.Context) error {
	date, err := time.Parse(dateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	serviceID, err := uuid.Parse(c.QueryParam("service_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service_id")
	}
	slots, err := h.sched.Availability(c.Request().Context(), date, serviceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if slots == nil {
		slots = []Slot{}
	}
	return c.JSON(http.StatusOK, slots)
}
