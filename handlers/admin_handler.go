package handlers

import (
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/database"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/JohnEstano/Graduate-School-System-sub002/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HonorariumSpecRequest struct {
	Role   string  `json:"role" validate:"required,oneof=chairperson panel-member"`
	Stage  string  `json:"stage" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

func ListHonorariumSpecs(c *fiber.Ctx) error {
	var specs []models.HonorariumSpec
	if err := database.DB.Order("role, stage").Find(&specs).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(specs)
}

// UpsertHonorariumSpec creates or updates the rate for one (role, stage)
// pair. Existing payment rows keep their snapshotted amounts.
func UpsertHonorariumSpec(c *fiber.Ctx) error {
	var req HonorariumSpecRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	stage := models.NormalizeStage(req.Stage)
	var spec models.HonorariumSpec
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("role = ? AND stage = ?", req.Role, stage).First(&spec).Error
		if err == gorm.ErrRecordNotFound {
			spec = models.HonorariumSpec{Role: req.Role, Stage: stage, Amount: req.Amount}
			return tx.Create(&spec).Error
		}
		if err != nil {
			return err
		}
		spec.Amount = req.Amount
		return tx.Save(&spec).Error
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(spec)
}

type CoordinatorAssignmentRequest struct {
	Program       string `json:"program" validate:"required"`
	CoordinatorID string `json:"coordinator_id" validate:"required,uuid"`
}

func ListCoordinatorAssignments(c *fiber.Ctx) error {
	q := database.DB.Preload("Coordinator").Order("program")
	if c.Query("all") == "" {
		q = q.Where("is_active = ?", true)
	}
	var assignments []models.CoordinatorAssignment
	if err := q.Find(&assignments).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(assignments)
}

// CreateCoordinatorAssignment activates a coordinator for a program. The
// target must actually hold a coordinator-capable role; any previous active
// row for the program is deactivated, never deleted.
func CreateCoordinatorAssignment(c *fiber.Ctx) error {
	var req CoordinatorAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	coordinatorID, _ := uuid.Parse(req.CoordinatorID)
	program := services.NormalizeProgram(req.Program)

	var assignment models.CoordinatorAssignment
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", coordinatorID).Error; err != nil {
			return err
		}
		if !user.Role.CanCoordinate() {
			return &services.ValidationError{Missing: []string{"coordinator-capable role for " + user.FullName}}
		}

		if err := tx.Model(&models.CoordinatorAssignment{}).
			Where("program = ? AND is_active = ?", program, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		assignment = models.CoordinatorAssignment{
			Program:       program,
			CoordinatorID: coordinatorID,
			IsActive:      true,
		}
		return tx.Create(&assignment).Error
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// DeactivateCoordinatorAssignment soft-deletes one assignment row.
func DeactivateCoordinatorAssignment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("assignmentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	var assignment models.CoordinatorAssignment
	if err := database.DB.First(&assignment, "id = ?", id).Error; err != nil {
		return respondServiceError(c, err)
	}
	assignment.IsActive = false
	if err := database.DB.Save(&assignment).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Assignment deactivated"})
}

func ListPayments(c *fiber.Ctx) error {
	q := database.DB.Model(&models.HonorariumPayment{}).Order("created_at desc")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if requestID := c.Query("defense_request_id"); requestID != "" {
		id, err := uuid.Parse(requestID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid defense_request_id"})
		}
		q = q.Where("defense_request_id = ?", id)
	}
	var payments []models.HonorariumPayment
	if err := q.Find(&payments).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(payments)
}

// MarkPaymentPaid settles one honorarium line item.
func MarkPaymentPaid(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	var payment models.HonorariumPayment
	if err := database.DB.First(&payment, "id = ?", id).Error; err != nil {
		return respondServiceError(c, err)
	}
	if payment.Status == models.PaymentPaid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment is already settled"})
	}

	now := time.Now()
	payment.Status = models.PaymentPaid
	payment.PaidAt = &now
	if err := database.DB.Save(&payment).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(payment)
}
