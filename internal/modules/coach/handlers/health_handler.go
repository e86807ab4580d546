package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mojisejr/oeng-api/internal/shared/database"
)

type HealthHandler struct {
	db        *database.DB
	startedAt time.Time
}

func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startedAt: time.Now(),
	}
}

// GetHealth godoc
// @Summary Liveness and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	dbStatus := "ok"
	status := fiber.StatusOK
	if err := h.db.Ping(); err != nil {
		dbStatus = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":    dbStatus,
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
