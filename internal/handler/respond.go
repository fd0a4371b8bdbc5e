package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deanbaranes/bpark-server/internal/dispatch"
)

// statusFor maps each response tag to its HTTP status. Tags missing
// from the table are plain successes.
var statusFor = map[string]int{
	dispatch.TagLoginFailure:           http.StatusUnauthorized,
	dispatch.TagManagementLoginFailure: http.StatusUnauthorized,

	dispatch.TagReservationCreated:      http.StatusCreated,
	dispatch.TagReservationFailed:       http.StatusConflict,
	dispatch.TagReservationAlreadyExist: http.StatusConflict,

	dispatch.TagArriveEarly: http.StatusConflict,
	dispatch.TagNotFound:    http.StatusNotFound,

	dispatch.TagDropoffSuccess:   http.StatusCreated,
	dispatch.TagNoSpotsAvailable: http.StatusConflict,
	dispatch.TagCarAlreadyParked: http.StatusConflict,

	dispatch.TagPickupFailure: http.StatusNotFound,
	dispatch.TagVehicleTowed:  http.StatusGone,

	dispatch.TagExtendAlreadyDone: http.StatusConflict,
	dispatch.TagExtendNoActive:    http.StatusNotFound,

	dispatch.TagCancelFailed: http.StatusNotFound,

	dispatch.TagRegisterSuccess: http.StatusCreated,
	dispatch.TagRegisterFailed:  http.StatusConflict,
	dispatch.TagUpdateFailed:    http.StatusNotFound,

	dispatch.TagServerError:         http.StatusInternalServerError,
	dispatch.TagUnrecognizedRequest: http.StatusBadRequest,
}

// respond writes a dispatch response as JSON with its mapped status.
func respond(c echo.Context, resp dispatch.Response) error {
	status, ok := statusFor[resp.Tag]
	if !ok {
		status = http.StatusOK
	}
	return c.JSON(status, resp)
}
