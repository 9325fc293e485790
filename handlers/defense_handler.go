package handlers

import (
	"fmt"
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/database"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/JohnEstano/Graduate-School-System-sub002/notifications"
	"github.com/JohnEstano/Graduate-School-System-sub002/services"
	"github.com/JohnEstano/Graduate-School-System-sub002/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// currentActor pulls the acting user out of the JWT claims.
func currentActor(c *fiber.Ctx) services.Actor {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	id, _ := uuid.Parse(claims["user_id"].(string))
	name, _ := claims["full_name"].(string)
	return services.Actor{ID: &id, Name: name}
}

func currentRole(c *fiber.Ctx) models.UserRole {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	role, _ := claims["role"].(string)
	return models.UserRole(role)
}

// PanelMemberInput accepts either a resolved panelist id or a free-text
// name, mirroring the tagged panel-slot variant.
type PanelMemberInput struct {
	PanelistID *string `json:"panelist_id" validate:"omitempty,uuid"`
	Name       string  `json:"name"`
}

func (in PanelMemberInput) toMember() models.PanelMember {
	m := models.PanelMember{Name: in.Name}
	if in.PanelistID != nil && *in.PanelistID != "" {
		if id, err := uuid.Parse(*in.PanelistID); err == nil {
			m.PanelistID = &id
		}
	}
	return m
}

// parseSlot combines a date string with wall-clock start/end times into
// instants on that day.
func parseSlot(dateStr, startStr, endStr string) (date, start, end time.Time, err error) {
	date, err = time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return date, start, end, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr)
	}
	st, err := time.Parse("15:04", startStr)
	if err != nil {
		return date, start, end, fmt.Errorf("invalid start time %q, expected HH:MM", startStr)
	}
	et, err := time.Parse("15:04", endStr)
	if err != nil {
		return date, start, end, fmt.Errorf("invalid end time %q, expected HH:MM", endStr)
	}
	start = time.Date(date.Year(), date.Month(), date.Day(), st.Hour(), st.Minute(), 0, 0, time.Local)
	end = time.Date(date.Year(), date.Month(), date.Day(), et.Hour(), et.Minute(), 0, 0, time.Local)
	return date, start, end, nil
}

type CreateDefenseRequest struct {
	StudentName  string  `json:"student_name" validate:"required,min=2"`
	Program      string  `json:"program" validate:"required"`
	ThesisTitle  string  `json:"thesis_title" validate:"required,min=5"`
	DefenseStage string  `json:"defense_stage" validate:"required"`
	AdviserID    *string `json:"adviser_id" validate:"omitempty,uuid"`
}

// CreateDefense is the student-submission boundary: the request enters the
// workflow in the submitted state.
func CreateDefense(c *fiber.Ctx) error {
	actor := currentActor(c)

	var req CreateDefenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var request models.DefenseRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		refNo, err := utils.GenerateReferenceNo(tx)
		if err != nil {
			return err
		}
		request = models.DefenseRequest{
			ReferenceNo:  refNo,
			StudentID:    *actor.ID,
			StudentName:  req.StudentName,
			Program:      req.Program,
			ThesisTitle:  req.ThesisTitle,
			DefenseStage: models.NormalizeStage(req.DefenseStage),
		}
		if req.AdviserID != nil {
			if id, err := uuid.Parse(*req.AdviserID); err == nil {
				request.AdviserID = &id
			}
		}
		services.SubmitRequest(&request, actor, time.Now())
		return tx.Create(&request).Error
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

// ListDefenses scopes the listing by role: students see their own requests,
// advisers and coordinators the ones referencing them, dean and staff see
// everything.
func ListDefenses(c *fiber.Ctx) error {
	actor := currentActor(c)

	q := database.DB.Model(&models.DefenseRequest{}).Order("created_at desc")
	switch currentRole(c) {
	case models.RoleStudent:
		q = q.Where("student_id = ?", *actor.ID)
	case models.RoleAdviser:
		q = q.Where("adviser_id = ?", *actor.ID)
	case models.RoleCoordinator:
		q = q.Where("coordinator_id = ?", *actor.ID)
	}
	if state := c.Query("state"); state != "" {
		q = q.Where("workflow_state = ?", state)
	}

	var requests []models.DefenseRequest
	if err := q.Find(&requests).Error; err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// GetDefense returns one request. The lazy auto-complete check runs here:
// a scheduled request whose defense window has passed flips to completed on
// read, attributed to the system actor.
func GetDefense(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var request models.DefenseRequest
	if err := database.DB.First(&request, "id = ?", id).Error; err != nil {
		return respondServiceError(c, err)
	}

	if _, err := services.MaybeComplete(database.DB, &request, time.Now()); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(request)
}

type AssignPanelsRequest struct {
	Chairperson PanelMemberInput    `json:"chairperson"`
	Panelists   [4]PanelMemberInput `json:"panelists"`
}

// AssignPanels commits the panel and derives honorarium payments in one
// transaction.
func AssignPanels(c *fiber.Ctx) error {
	actor := currentActor(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req AssignPanelsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	panel := services.PanelAssignment{Chairperson: req.Chairperson.toMember()}
	for i, p := range req.Panelists {
		panel.Panelists[i] = p.toMember()
	}

	var request *models.DefenseRequest
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if request, err = services.LockRequest(tx, id); err != nil {
			return err
		}
		return services.AssignPanels(tx, request, panel, actor, time.Now())
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Panel assigned and honorarium payments generated",
		"state":   request.WorkflowState,
		"request": request,
	})
}

type ScheduleDefenseRequest struct {
	Date  string `json:"date" validate:"required"`
	Start string `json:"start_time" validate:"required"`
	End   string `json:"end_time" validate:"required"`
	Venue string `json:"venue" validate:"required"`
	Mode  string `json:"mode" validate:"required,oneof=face-to-face online"`
	Notes string `json:"notes"`
}

// ScheduleDefense commits a conflict-free schedule for the request.
func ScheduleDefense(c *fiber.Ctx) error {
	actor := currentActor(c)

	id, perr := uuid.Parse(c.Params("id"))
	if perr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req ScheduleDefenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	date, start, end, err := parseSlot(req.Date, req.Start, req.End)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	sched := services.Schedule{
		Date:  date,
		Start: start,
		End:   end,
		Venue: req.Venue,
		Mode:  models.DefenseMode(req.Mode),
		Notes: req.Notes,
	}

	var request *models.DefenseRequest
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if request, err = services.LockRequest(tx, id); err != nil {
			return err
		}
		return services.ScheduleDefense(tx, request, sched, actor, time.Now())
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	go notifyScheduled(request)

	return c.JSON(fiber.Map{
		"message": "Defense scheduled",
		"state":   request.WorkflowState,
		"request": request,
	})
}

// notifyScheduled e-mails affected parties. Delivery failures are logged by
// the notification layer and never roll back the committed schedule.
func notifyScheduled(request *models.DefenseRequest) {
	var student models.User
	if err := database.DB.First(&student, "id = ?", request.StudentID).Error; err != nil {
		return
	}
	body := fmt.Sprintf(
		"<h1>Defense Scheduled</h1><p>Your %s defense has been scheduled on %s at %s, venue: %s.</p>",
		request.DefenseStage,
		request.DefenseDate.Format("January 2, 2006"),
		request.StartAt.Format("3:04 PM"),
		request.Venue,
	)
	notifications.SendEmail(student.FullName, student.Email, "Your Defense Schedule", body)
}

type CheckConflictsRequest struct {
	Date      string             `json:"date" validate:"required"`
	Start     string             `json:"start_time" validate:"required"`
	End       string             `json:"end_time" validate:"required"`
	Venue     string             `json:"venue"`
	ExcludeID *string            `json:"exclude_id" validate:"omitempty,uuid"`
	Panel     []PanelMemberInput `json:"panel"`
}

// CheckConflicts is the dry-run preview used before committing a schedule.
func CheckConflicts(c *fiber.Ctx) error {
	var req CheckConflictsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	date, start, end, err := parseSlot(req.Date, req.Start, req.End)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var excludeID *uuid.UUID
	if req.ExcludeID != nil {
		if id, perr := uuid.Parse(*req.ExcludeID); perr == nil {
			excludeID = &id
		}
	}

	slots := make([]models.PanelSlot, 0, len(req.Panel))
	names := []models.PanelSlotName{
		models.SlotChairperson, models.SlotPanelist1, models.SlotPanelist2,
		models.SlotPanelist3, models.SlotPanelist4,
	}
	for i, in := range req.Panel {
		if i >= len(names) {
			break
		}
		slots = append(slots, models.PanelSlot{Slot: names[i], Member: in.toMember()})
	}

	conflicts, err := services.FindConflicts(database.DB, excludeID, slots, date, start, end)
	if err != nil {
		return respondServiceError(c, err)
	}
	if req.Venue != "" {
		taken, err := services.HasVenueConflict(database.DB, excludeID, req.Venue, date, start, end)
		if err != nil {
			return respondServiceError(c, err)
		}
		if taken {
			conflicts = append(conflicts, services.Conflict{
				Type:      "venue",
				Venue:     req.Venue,
				TimeRange: start.Format("3:04 PM") + " - " + end.Format("3:04 PM"),
				Message:   fmt.Sprintf("%s is already booked during this time", req.Venue),
			})
		}
	}

	return c.JSON(fiber.Map{"conflicts": conflicts, "count": len(conflicts)})
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// CancelDefense moves the request to the terminal cancelled state; the row
// itself is never deleted.
func CancelDefense(c *fiber.Ctx) error {
	actor := currentActor(c)

	id, perr := uuid.Parse(c.Params("id"))
	if perr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req CancelRequest
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
		return services.Cancel(tx, request, req.Reason, actor, time.Now())
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Defense request cancelled", "state": request.WorkflowState})
}
