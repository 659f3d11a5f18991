package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
	userSvc UserServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface, userSvc UserServiceInterface) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		userSvc: userSvc,
	}
}

// @Summary Login
// @Description Authenticate with email and password and return a token
// @Tags auth
// @Accept json
// @Produce json
// @Param action query string true "login"
// @Param loginRequest body dto.LoginRequest true "Login credentials"
// @Success 200 {object} shared.Response{data=dto.LoginResponse}
// @Router /api/v1/auth [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	resp, err := h.authSvc.Login(req, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Login successful", resp)
}

// @Summary Logout
// @Description Revoke the presented token
// @Tags auth
// @Produce json
// @Security Bearer
// @Param action query string true "logout"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/auth [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authSvc.LogoutCurrent(c); err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusOK, "Logout successful", dto.MessageResponse{Message: "Logged out"})
}

// @Summary Verify token
// @Description Return the claims of the presented token
// @Tags auth
// @Produce json
// @Security Bearer
// @Param action query string true "verify"
// @Success 200 {object} shared.Response{data=dto.ClaimsResponse}
// @Router /api/v1/auth [get]
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	claims, err := h.authSvc.CurrentClaims(c)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, claims)
}

// @Summary Current user
// @Description Return the profile of the authenticated user
// @Tags auth
// @Produce json
// @Security Bearer
// @Param action query string true "me"
// @Success 200 {object} shared.Response{data=dto.UserResponse}
// @Router /api/v1/auth [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.userSvc.GetProfile(shared.ActorFromCtx(c).UserID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, user)
}

// Post dispatches POST /auth by action. Logout must be routed behind the auth middleware.
func (h *AuthHandler) Post(c *fiber.Ctx) error {
	switch action := c.Query("action"); action {
	case "login":
		return h.Login(c)
	case "logout":
		return h.Logout(c)
	default:
		return unknownAction(action)
	}
}

// Get dispatches GET /auth by action. It runs behind the auth middleware.
func (h *AuthHandler) Get(c *fiber.Ctx) error {
	switch action := c.Query("action", "verify"); action {
	case "verify":
		return h.Verify(c)
	case "me":
		return h.Me(c)
	default:
		return unknownAction(action)
	}
}
