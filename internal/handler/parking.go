package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deanbaranes/bpark-server/internal/dispatch"
	"github.com/deanbaranes/bpark-server/internal/middleware"
)

// reservationTimeLayout is the format clients book in: a local date
// and a gate-display time, interpreted as UTC.
const reservationTimeLayout = "2006-01-02 15:04"

// ParkingHandler serves the subscriber-facing parking operations. All
// routes assume JWTAuth ran first; the acting subscriber is always
// the token subject, never a body field, so one subscriber cannot
// operate on another's sessions.
type ParkingHandler struct {
	Dispatcher *dispatch.Dispatcher
}

// NewParkingHandler constructs a ParkingHandler.
func NewParkingHandler(d *dispatch.Dispatcher) *ParkingHandler {
	if d == nil {
		panic("nil dispatcher passed to NewParkingHandler")
	}
	return &ParkingHandler{Dispatcher: d}
}

// subjectID pulls the authenticated subscriber out of the context.
// A false return means JWTAuth did not run or the claim is malformed.
func subjectID(c echo.Context) (uint64, bool) {
	id, ok := middleware.SubjectID(c)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// Reserve handles POST /v1/parking/reservations. The body carries the
// requested date and time as separate fields.
func (h *ParkingHandler) Reserve(c echo.Context) error {
	id, ok := subjectID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Date string `json:"date"` // "2006-01-02"
		Time string `json:"time"` // "15:04"
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := time.ParseInLocation(reservationTimeLayout, body.Date+" "+body.Time, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date or time"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.NewReservation{
		SubscriberID: id,
		StartsAt:     start,
	})
	return respond(c, resp)
}

// Activate handles POST /v1/parking/activate. The access code comes
// from the gate terminal.
func (h *ParkingHandler) Activate(c echo.Context) error {
	if _, ok := subjectID(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil || body.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.ActivateReservation{Code: body.Code})
	return respond(c, resp)
}

// Dropoff handles POST /v1/parking/dropoff, the walk-in path.
func (h *ParkingHandler) Dropoff(c echo.Context) error {
	id, ok := subjectID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.ImmediateDropoff{SubscriberID: id})
	return respond(c, resp)
}

// Pickup handles POST /v1/parking/pickup.
func (h *ParkingHandler) Pickup(c echo.Context) error {
	if _, ok := subjectID(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil || body.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.Pickup{Code: body.Code})
	return respond(c, resp)
}

// Extend handles POST /v1/parking/extend. No body: the extension
// applies to the subject's single active session.
func (h *ParkingHandler) Extend(c echo.Context) error {
	id, ok := subjectID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.Extend{SubscriberID: id})
	return respond(c, resp)
}

// CancelReservation handles DELETE /v1/parking/reservations/:id. The
// cancellation is scoped to the token subject, so an id belonging to
// another subscriber fails the same way a missing one does.
func (h *ParkingHandler) CancelReservation(c echo.Context) error {
	id, ok := subjectID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.CancelReservation{
		SubscriberID:  id,
		ReservationID: resID,
	})
	return respond(c, resp)
}

// Me handles GET /v1/me, returning the subject's profile.
func (h *ParkingHandler) Me(c echo.Context) error {
	id, ok := subjectID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.GetSubscriber{SubscriberID: id})
	return respond(c, resp)
}

// UpdateContact handles PUT /v1/me/contact.
func (h *ParkingHandler) UpdateContact(c echo.Context) error {
	id, ok := subjectID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Email == "" && body.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email or phone is required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.UpdateContactInfo{
		SubscriberID: id,
		Email:        body.Email,
		Phone:        body.Phone,
	})
	return respond(c, resp)
}

// History handles GET /v1/me/history.
func (h *ParkingHandler) History(c echo.Context) error {
	id, ok := subjectID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.GetParkingHistory{SubscriberID: id})
	return respond(c, resp)
}
