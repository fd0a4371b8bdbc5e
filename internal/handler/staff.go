package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deanbaranes/bpark-server/internal/dispatch"
)

// StaffHandler serves the management views: the live site activity
// board and the monthly reports. Routes behind it require a staff
// role; the report endpoints additionally require the manager role.
type StaffHandler struct {
	Dispatcher *dispatch.Dispatcher
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(d *dispatch.Dispatcher) *StaffHandler {
	if d == nil {
		panic("nil dispatcher passed to NewStaffHandler")
	}
	return &StaffHandler{Dispatcher: d}
}

// SiteActivity handles GET /v1/management/activity.
func (h *StaffHandler) SiteActivity(c echo.Context) error {
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.GetSiteActivity{})
	return respond(c, resp)
}

// reportMonth parses the year and month query parameters shared by
// both report endpoints.
func reportMonth(c echo.Context) (int, time.Month, bool) {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil || year < 2000 || year > 2200 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return year, time.Month(m), true
}

// DurationReport handles GET /v1/management/reports/duration.
func (h *StaffHandler) DurationReport(c echo.Context) error {
	year, month, ok := reportMonth(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year and month query parameters are required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.ParkingDurationReport{Year: year, Month: month})
	return respond(c, resp)
}

// StatusReport handles GET /v1/management/reports/status.
func (h *StaffHandler) StatusReport(c echo.Context) error {
	year, month, ok := reportMonth(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year and month query parameters are required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.MemberStatusReport{Year: year, Month: month})
	return respond(c, resp)
}
