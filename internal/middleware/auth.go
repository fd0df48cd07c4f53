package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hireflow/api/internal/auth"
	"github.com/hireflow/api/pkg/response"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtSecret string
}

// NewAuthMiddleware creates auth middleware using HMAC-signed tokens
func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate validates the JWT token from the Authorization header
// and stores the caller's identity in context locals.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		claims, err := auth.ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userId", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("name", claims.Name)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// GetUserID returns the authenticated user id from context locals.
func GetUserID(c *fiber.Ctx) string {
	if v, ok := c.Locals("userId").(string); ok {
		return v
	}
	return ""
}

// GetEmail returns the authenticated user's email from context locals.
func GetEmail(c *fiber.Ctx) string {
	if v, ok := c.Locals("email").(string); ok {
		return v
	}
	return ""
}

// GetName returns the authenticated user's display name from context locals.
func GetName(c *fiber.Ctx) string {
	if v, ok := c.Locals("name").(string); ok {
		return v
	}
	return ""
}
