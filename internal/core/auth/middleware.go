package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mojisejr/oeng-api/internal/shared/response"
)

// Middleware validates the Bearer token and stores the caller's identity
// in request locals under "userID" and "email".
func Middleware(jwtService *JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Fail(c, response.CodeUnauthorized, "Missing authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Fail(c, response.CodeUnauthorized, "Invalid authorization header format. Use: Bearer <token>")
		}

		claims, err := jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			return response.Fail(c, response.CodeUnauthorized, "Invalid or expired token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}

// UserID returns the authenticated caller's id from request locals.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
