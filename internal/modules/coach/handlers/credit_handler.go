package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/core/auth"
	"github.com/mojisejr/oeng-api/internal/modules/coach/services"
	"github.com/mojisejr/oeng-api/internal/shared/response"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

const (
	historyDefaultLimit = 20
	historyMaxLimit     = 100
)

type CreditHandler struct {
	creditService   *services.CreditService
	purchaseService *services.PurchaseService
	accountService  *services.AccountService
}

func NewCreditHandler(creditService *services.CreditService, purchaseService *services.PurchaseService, accountService *services.AccountService) *CreditHandler {
	return &CreditHandler{
		creditService:   creditService,
		purchaseService: purchaseService,
		accountService:  accountService,
	}
}

// GetBalance godoc
// @Summary Current credit balance
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/credits/balance [get]
func (h *CreditHandler) GetBalance(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	// Balance endpoint promises the full account view, so a missing user
	// row is a 404 here, unlike the ledger's zero-balance read.
	user, err := h.accountService.GetProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, response.CodeUserNotFound, "user not found")
		}
		utils.LogError("Balance lookup failed", err, map[string]interface{}{"user_id": userID})
		return response.Fail(c, response.CodeDatabaseError, "failed to load balance")
	}

	return response.Success(c, fiber.Map{
		"creditBalance":         user.CreditBalance,
		"totalCreditsUsed":      user.TotalCreditsUsed,
		"totalCreditsPurchased": user.TotalCreditsPurchased,
		"lastCreditUsed":        user.LastCreditUsed,
		"accountCreated":        user.CreatedAt,
	})
}

// GetHistory godoc
// @Summary Credit transaction history
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (1-100, default 20)"
// @Success 200 {object} map[string]interface{}
// @Router /api/credits/history [get]
func (h *CreditHandler) GetHistory(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	limit := historyDefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > historyMaxLimit {
			return response.Fail(c, response.CodeInvalidInput, "limit must be between 1 and 100")
		}
		limit = n
	}

	// Fetch one extra row to tell whether more history exists.
	entries, err := h.creditService.History(c.Context(), userID, limit+1)
	if err != nil {
		utils.LogError("History lookup failed", err, map[string]interface{}{"user_id": userID})
		return response.Fail(c, response.CodeDatabaseError, "failed to load history")
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return response.Success(c, fiber.Map{
		"transactions": entries,
		"pagination": fiber.Map{
			"limit":   limit,
			"count":   len(entries),
			"hasMore": hasMore,
		},
	})
}

// GetPacks godoc
// @Summary Available credit packs
// @Tags Credits
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/credits/packs [get]
func (h *CreditHandler) GetPacks(c *fiber.Ctx) error {
	return response.Success(c, fiber.Map{"packs": h.purchaseService.Packs()})
}

// CreatePurchase godoc
// @Summary Buy a credit pack
// @Tags Credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/credits/purchase [post]
func (h *CreditHandler) CreatePurchase(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	var req struct {
		PackID string `json:"pack_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.PackID == "" {
		return response.Fail(c, response.CodeInvalidInput, "pack_id is required")
	}

	outcome, err := h.purchaseService.Create(c.Context(), userID, req.PackID)
	if err != nil {
		if errors.Is(err, services.ErrPackNotFound) {
			return response.Fail(c, response.CodeNotFound, "credit pack not found")
		}
		utils.LogError("Purchase creation failed", err, map[string]interface{}{"user_id": userID})
		return response.Fail(c, response.CodeDatabaseError, "failed to create purchase")
	}

	return response.SuccessMessage(c, outcome.Message, outcome)
}

// ConfirmPurchase godoc
// @Summary Confirm a pending purchase (manual gateway)
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purchase ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/credits/purchase/{id}/confirm [post]
func (h *CreditHandler) ConfirmPurchase(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	purchaseID := c.Params("id")

	result, err := h.purchaseService.Confirm(c.Context(), userID, purchaseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPurchaseNotFound):
			return response.Fail(c, response.CodeNotFound, "purchase not found")
		case errors.Is(err, services.ErrNotOwner):
			return response.Fail(c, response.CodeAccessDenied, "purchase belongs to another user")
		case errors.Is(err, services.ErrPurchaseClosed):
			return response.Fail(c, response.CodeInvalidInput, "purchase already completed or cancelled")
		default:
			utils.LogError("Purchase confirmation failed", err, map[string]interface{}{"purchase_id": purchaseID})
			return response.Fail(c, response.CodeDatabaseError, "failed to confirm purchase")
		}
	}
	if !result.Success {
		return response.Fail(c, result.Code, result.Message)
	}

	return response.SuccessMessage(c, "Credits granted", result)
}
