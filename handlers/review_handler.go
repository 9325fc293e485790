package handlers

import (
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/database"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/JohnEstano/Graduate-School-System-sub002/notifications"
	"github.com/JohnEstano/Graduate-School-System-sub002/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=review approve reject"`
	Comment  string `json:"comment"`
}

// AdviserDecision records the adviser's action on a request. Approval
// requires a routable coordinator for the student's program; the routing
// result is committed together with the approval.
func AdviserDecision(c *fiber.Ctx) error {
	actor := currentActor(c)

	id, perr := uuid.Parse(c.Params("id"))
	if perr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var request *models.DefenseRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if request, err = services.LockRequest(tx, id); err != nil {
			return err
		}
		now := time.Now()
		switch req.Decision {
		case "review":
			return services.BeginAdviserReview(tx, request, actor, now)
		case "approve":
			return services.AdviserApprove(tx, request, req.Comment, actor, now)
		default:
			return services.AdviserReject(tx, request, req.Comment, actor, now)
		}
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	go notifyDecision(request, "adviser", req.Decision)

	return c.JSON(fiber.Map{"message": "Decision recorded", "state": request.WorkflowState})
}

// CoordinatorDecision records the coordinator's action. Approval collects
// every missing schedule/panel item into one list instead of failing on the
// first gap.
func CoordinatorDecision(c *fiber.Ctx) error {
	actor := currentActor(c)

	id, perr := uuid.Parse(c.Params("id"))
	if perr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var request *models.DefenseRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if request, err = services.LockRequest(tx, id); err != nil {
			return err
		}
		now := time.Now()
		switch req.Decision {
		case "review":
			return services.BeginCoordinatorReview(tx, request, actor, now)
		case "approve":
			return services.CoordinatorApprove(tx, request, req.Comment, actor, now)
		default:
			return services.CoordinatorReject(tx, request, req.Comment, actor, now)
		}
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	go notifyDecision(request, "coordinator", req.Decision)

	return c.JSON(fiber.Map{"message": "Decision recorded", "state": request.WorkflowState})
}

type DeanDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Comment  string `json:"comment"`
}

// DeanDecision records the dean's sign-off flag on the request.
func DeanDecision(c *fiber.Ctx) error {
	actor := currentActor(c)

	id, perr := uuid.Parse(c.Params("id"))
	if perr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req DeanDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	status := models.ReviewApproved
	if req.Decision == "reject" {
		status = models.ReviewRejected
	}

	var request *models.DefenseRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if request, err = services.LockRequest(tx, id); err != nil {
			return err
		}
		return services.DeanDecision(tx, request, status, req.Comment, actor, time.Now())
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Decision recorded", "dean_status": request.DeanStatus})
}

// RouteCoordinator resolves and pins the approving coordinator for the
// request's program without changing the workflow state.
func RouteCoordinator(c *fiber.Ctx) error {
	actor := currentActor(c)

	id, perr := uuid.Parse(c.Params("id"))
	if perr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var request *models.DefenseRequest
	var coordinator *models.User
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if request, err = services.LockRequest(tx, id); err != nil {
			return err
		}
		coordinator, err = services.RouteCoordinator(tx, request.Program)
		if err != nil {
			return err
		}
		request.CoordinatorID = &coordinator.ID
		request.LastStatusUpdatedBy = actor.ID
		return tx.Save(request).Error
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"coordinator_id":   coordinator.ID,
		"coordinator_name": coordinator.FullName,
		"program":          request.Program,
	})
}

// notifyDecision e-mails the student about a recorded decision;
// fire-and-continue, failures only logged.
func notifyDecision(request *models.DefenseRequest, stage, decision string) {
	if decision == "review" {
		return
	}
	var student models.User
	if err := database.DB.First(&student, "id = ?", request.StudentID).Error; err != nil {
		return
	}
	subject := "Update on Your Defense Request"
	body := "<h1>Defense Request Update</h1><p>Your defense request " + request.ReferenceNo +
		" was " + decision + "d at the " + stage + " stage.</p>"
	notifications.SendEmail(student.FullName, student.Email, subject, body)
}
