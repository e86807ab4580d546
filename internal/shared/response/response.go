package response

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by every handler. Ledger and analysis services return
// these as data, handlers translate them into HTTP statuses here.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeNotFound            = "NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeAlreadyAnalyzed     = "ALREADY_ANALYZED"
	CodeQuotaExceeded       = "QUOTA_EXCEEDED"
	CodeNetworkError        = "NETWORK_ERROR"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeAPIError            = "API_ERROR"
	CodeParsingError        = "PARSING_ERROR"
)

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeInvalidInput, CodeAlreadyAnalyzed:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeInsufficientCredits:
		return fiber.StatusPaymentRequired
	case CodeAccessDenied:
		return fiber.StatusForbidden
	case CodeNotFound, CodeUserNotFound:
		return fiber.StatusNotFound
	case CodeQuotaExceeded:
		return fiber.StatusTooManyRequests
	case CodeNetworkError:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Success writes the standard success envelope.
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SuccessMessage writes a success envelope with a human message alongside data.
func SuccessMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Fail writes the standard error envelope with the status derived from code.
func Fail(c *fiber.Ctx, code, message string) error {
	return c.Status(StatusFor(code)).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
