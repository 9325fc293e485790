package handlers

import (
	"errors"
	"log"

	"github.com/JohnEstano/Graduate-School-System-sub002/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// respondServiceError maps the service error taxonomy onto HTTP responses.
// Everything typed is recoverable and leaves the request in its prior state;
// anything else is a storage failure already rolled back by the transaction.
func respondServiceError(c *fiber.Ctx, err error) error {
	var guard *services.GuardViolationError
	if errors.As(err, &guard) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         guard.Error(),
			"current_state": guard.Current,
		})
	}
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":          "validation failed",
			"missing_fields": validation.Missing,
		})
	}
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     conflict.Error(),
			"conflicts": conflict.Conflicts,
		})
	}
	var routing *services.RoutingError
	if errors.As(err, &routing) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": routing.Error()})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Record not found"})
	}

	log.Printf("🔥 Storage failure: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
