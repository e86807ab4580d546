package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mojisejr/oeng-api/internal/core/analyze"
	"github.com/mojisejr/oeng-api/internal/core/auth"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
	"github.com/mojisejr/oeng-api/internal/modules/coach/services"
	"github.com/mojisejr/oeng-api/internal/shared/response"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

type SentenceHandler struct {
	sentenceService *services.SentenceService
}

func NewSentenceHandler(sentenceService *services.SentenceService) *SentenceHandler {
	return &SentenceHandler{
		sentenceService: sentenceService,
	}
}

// Create godoc
// @Summary Submit a sentence for later analysis
// @Tags Sentences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateSentenceRequest true "Sentence payload"
// @Success 200 {object} map[string]interface{}
// @Router /api/sentences [post]
func (h *SentenceHandler) Create(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	var req services.CreateSentenceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, response.CodeInvalidInput, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return response.Fail(c, response.CodeInvalidInput, "text is required")
	}

	sentence, err := h.sentenceService.Create(c.Context(), userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "exceeds") || strings.Contains(err.Error(), "required") {
			return response.Fail(c, response.CodeInvalidInput, err.Error())
		}
		utils.LogError("Sentence creation failed", err, map[string]interface{}{"user_id": userID})
		return response.Fail(c, response.CodeDatabaseError, "failed to create sentence")
	}

	return response.SuccessMessage(c, "Sentence submitted", sentence)
}

// List godoc
// @Summary List own sentences, newest first
// @Tags Sentences
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 20)"
// @Success 200 {object} map[string]interface{}
// @Router /api/sentences [get]
func (h *SentenceHandler) List(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return response.Fail(c, response.CodeInvalidInput, "limit must be between 1 and 100")
		}
		limit = n
	}

	sentences, err := h.sentenceService.List(c.Context(), userID, limit)
	if err != nil {
		utils.LogError("Sentence list failed", err, map[string]interface{}{"user_id": userID})
		return response.Fail(c, response.CodeDatabaseError, "failed to list sentences")
	}

	return response.Success(c, fiber.Map{"sentences": sentences})
}

// Get godoc
// @Summary Fetch one sentence
// @Tags Sentences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sentence ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/sentences/{id} [get]
func (h *SentenceHandler) Get(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	sentence, err := h.sentenceService.Get(c.Context(), userID, c.Params("id"))
	if err != nil {
		return h.mapSentenceError(c, err, "fetch")
	}

	return response.Success(c, sentence)
}

// Delete godoc
// @Summary Delete one sentence
// @Tags Sentences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sentence ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/sentences/{id} [delete]
func (h *SentenceHandler) Delete(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	if err := h.sentenceService.Delete(c.Context(), userID, c.Params("id")); err != nil {
		return h.mapSentenceError(c, err, "delete")
	}

	return response.SuccessMessage(c, "Sentence deleted", nil)
}

// Analyze godoc
// @Summary Analyze a pending sentence (costs one credit)
// @Tags Sentences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/sentences/analyze [post]
func (h *SentenceHandler) Analyze(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	var req struct {
		SentenceID string `json:"sentence_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.SentenceID == "" {
		return response.Fail(c, response.CodeInvalidInput, "sentence_id is required")
	}

	result, err := h.sentenceService.Analyze(c.Context(), userID, req.SentenceID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSentenceNotFound):
			return response.Fail(c, response.CodeNotFound, "sentence not found")
		case errors.Is(err, services.ErrNotOwner):
			return response.Fail(c, response.CodeAccessDenied, "sentence belongs to another user")
		case errors.Is(err, services.ErrAlreadyAnalyzed):
			return response.Fail(c, response.CodeAlreadyAnalyzed, "sentence already analyzed")
		case errors.Is(err, repositories.ErrInsufficientCredits):
			return response.Fail(c, response.CodeInsufficientCredits, "insufficient credits")
		case errors.Is(err, repositories.ErrUserNotFound):
			return response.Fail(c, response.CodeUserNotFound, "user not found")
		}

		var analyzeErr *analyze.Error
		if errors.As(err, &analyzeErr) {
			return response.Fail(c, string(analyzeErr.Code), "sentence analysis failed")
		}

		utils.LogError("Analysis failed", err, map[string]interface{}{
			"user_id":     userID,
			"sentence_id": req.SentenceID,
		})
		return response.Fail(c, response.CodeAPIError, "sentence analysis failed")
	}

	return response.Success(c, result)
}

func (h *SentenceHandler) mapSentenceError(c *fiber.Ctx, err error, op string) error {
	switch {
	case errors.Is(err, services.ErrSentenceNotFound):
		return response.Fail(c, response.CodeNotFound, "sentence not found")
	case errors.Is(err, services.ErrNotOwner):
		return response.Fail(c, response.CodeAccessDenied, "sentence belongs to another user")
	default:
		utils.LogError("Sentence operation failed", err, map[string]interface{}{"op": op})
		return response.Fail(c, response.CodeDatabaseError, "sentence operation failed")
	}
}
