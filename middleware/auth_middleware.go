package middleware

import (
	config "github.com/JohnEstano/Graduate-School-System-sub002/configs"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.Config("JWT_SECRET")),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// RoleRequired gates a route to a closed set of roles. The check happens
// once at the boundary; handlers never re-compare role strings.
func RoleRequired(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Locals("user").(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		role, _ := claims["role"].(string)

		for _, allowed := range roles {
			if models.UserRole(role) == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: insufficient role",
		})
	}
}

// CoordinatorCapable admits any role that may act as a coordinator.
func CoordinatorCapable() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Locals("user").(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		role, _ := claims["role"].(string)

		if !models.UserRole(role).CanCoordinate() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: coordinator access required",
			})
		}
		return c.Next()
	}
}
