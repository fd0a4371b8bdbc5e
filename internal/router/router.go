package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/deanbaranes/bpark-server/internal/config"
	"github.com/deanbaranes/bpark-server/internal/handler"
	"github.com/deanbaranes/bpark-server/internal/middleware"
	"github.com/deanbaranes/bpark-server/internal/model"
)

// Register wires every route of the server onto e. Three surfaces:
// unauthenticated auth endpoints, the subscriber parking API behind
// JWTAuth, and the management API behind JWTAuth plus a role check.
func Register(e *echo.Echo, auth *handler.AuthHandler, parking *handler.ParkingHandler, staff *handler.StaffHandler,
	jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {

	e.Use(middleware.RequestID())

	e.GET("/healthz", handler.Health)

	// Unauthenticated: registration and the two login flows. Rate
	// limited so credential guessing against the gate is throttled.
	rl := middleware.NewRateLimiter(rlCfg, rdb)
	a := e.Group("/v1/auth", rl)
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.POST("/staff-login", auth.StaffLogin)

	// Subscriber API. Every handler reads the acting subscriber from
	// the token subject.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	sub := v1.Group("")
	sub.Use(middleware.RequireRole(handler.RoleSubscriber))
	sub.GET("/me", parking.Me)
	sub.PUT("/me/contact", parking.UpdateContact)
	sub.GET("/me/history", parking.History)
	sub.POST("/parking/reservations", parking.Reserve)
	sub.DELETE("/parking/reservations/:id", parking.CancelReservation)
	sub.POST("/parking/activate", parking.Activate)
	sub.POST("/parking/dropoff", parking.Dropoff)
	sub.POST("/parking/pickup", parking.Pickup)
	sub.POST("/parking/extend", parking.Extend)

	// Management API. Attendants see the activity board; reports are
	// manager-only.
	mgmt := v1.Group("/management")
	mgmt.Use(middleware.RequireRole(model.RoleManager, model.RoleAttendant))
	mgmt.GET("/activity", staff.SiteActivity)

	reports := mgmt.Group("/reports")
	reports.Use(middleware.RequireRole(model.RoleManager))
	reports.GET("/duration", staff.DurationReport)
	reports.GET("/status", staff.StatusReport)
}
