package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/core/auth"
	"github.com/mojisejr/oeng-api/internal/modules/coach/services"
	"github.com/mojisejr/oeng-api/internal/shared/response"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Create an account and seed the welcome credit bonus
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterRequest true "Registration payload"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, response.CodeInvalidInput, "invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" {
		return response.Fail(c, response.CodeInvalidInput, "email is required")
	}
	if req.Password == "" {
		return response.Fail(c, response.CodeInvalidInput, "password is required")
	}

	resp, err := h.accountService.Register(c.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return response.Fail(c, response.CodeInvalidInput, "email already registered")
		}
		if strings.Contains(err.Error(), "invalid email") || strings.Contains(err.Error(), "password must") {
			return response.Fail(c, response.CodeInvalidInput, err.Error())
		}
		utils.LogError("Registration failed", err, nil)
		return response.Fail(c, response.CodeDatabaseError, "registration failed")
	}

	return response.SuccessMessage(c, "Account created", resp)
}

// Login godoc
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginRequest true "Login payload"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, response.CodeInvalidInput, "invalid request body")
	}

	resp, err := h.accountService.Login(c.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return response.Fail(c, response.CodeUnauthorized, "invalid email or password")
		}
		utils.LogError("Login failed", err, nil)
		return response.Fail(c, response.CodeDatabaseError, "login failed")
	}

	return response.Success(c, resp)
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (h *AccountHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return response.Fail(c, response.CodeInvalidInput, "refresh_token is required")
	}

	resp, err := h.accountService.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return response.Fail(c, response.CodeUnauthorized, "invalid refresh token")
	}

	return response.Success(c, resp)
}

// Me godoc
// @Summary Current account profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	user, err := h.accountService.GetProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, response.CodeUserNotFound, "user not found")
		}
		utils.LogError("Profile lookup failed", err, map[string]interface{}{"user_id": userID})
		return response.Fail(c, response.CodeDatabaseError, "failed to load profile")
	}

	return response.Success(c, user)
}
