package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deanbaranes/bpark-server/internal/dispatch"
	"github.com/deanbaranes/bpark-server/internal/model"
	"github.com/deanbaranes/bpark-server/internal/utils"
)

// RoleSubscriber is the role claim carried by subscriber tokens.
// Staff tokens carry model.RoleManager or model.RoleAttendant.
const RoleSubscriber = "subscriber"

// AuthHandler serves registration and the two login flows. On a
// successful login it issues the access token protected routes
// require.
type AuthHandler struct {
	Dispatcher *dispatch.Dispatcher
	JWTSecret  string
	TokenTTL   int // minutes
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(d *dispatch.Dispatcher, secret string, ttlMin int) *AuthHandler {
	if d == nil {
		panic("nil dispatcher passed to NewAuthHandler")
	}
	return &AuthHandler{Dispatcher: d, JWTSecret: secret, TokenTTL: ttlMin}
}

// Register handles POST /v1/auth/register. The body carries the new
// subscriber's details; the response carries the issued subscription
// code, shown exactly once.
func (h *AuthHandler) Register(c echo.Context) error {
	var body struct {
		FullName      string `json:"full_name"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		VehicleID     string `json:"vehicle_id"`
		CreditCardRef string `json:"credit_card_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FullName == "" || body.Email == "" || body.VehicleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name, email and vehicle_id are required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.RegisterSubscriber{
		FullName:      body.FullName,
		Email:         body.Email,
		Phone:         body.Phone,
		VehicleID:     body.VehicleID,
		CreditCardRef: body.CreditCardRef,
	})
	return respond(c, resp)
}

// Login handles POST /v1/auth/login for subscribers. Source "app"
// gets the profile back alongside the token; the kiosk only needs
// the token.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		SubscriberID uint64 `json:"subscriber_id"`
		Code         string `json:"code"`
		Source       string `json:"source"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SubscriberID == 0 || body.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subscriber_id and code are required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.Login{
		SubscriberID: body.SubscriberID,
		Code:         body.Code,
		Source:       body.Source,
	})
	if resp.Tag != dispatch.TagLoginSuccess {
		return respond(c, resp)
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, body.SubscriberID, RoleSubscriber, h.TokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issuance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tag":          resp.Tag,
		"data":         resp.Data,
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
	})
}

// StaffLogin handles POST /v1/auth/staff-login for management
// accounts. The issued token carries the account's role so the
// management routes can distinguish managers from attendants.
func (h *AuthHandler) StaffLogin(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Username == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.ManagementLogin{
		Username: body.Username,
		Password: body.Password,
	})
	if resp.Tag != dispatch.TagManagementLoginSuccess {
		return respond(c, resp)
	}
	role := resp.Detail
	if role != model.RoleManager && role != model.RoleAttendant {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unknown role"})
	}
	// Staff tokens have no numeric subject of interest; the role claim
	// is what the management routes check.
	tok, err := utils.NewAccessToken(h.JWTSecret, 0, role, h.TokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issuance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tag":          resp.Tag,
		"role":         role,
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
	})
}
