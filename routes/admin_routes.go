package routes

import (
	"github.com/JohnEstano/Graduate-School-System-sub002/handlers"
	"github.com/JohnEstano/Graduate-School-System-sub002/middleware"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	rates := api.Group("/honorarium-specs", middleware.Protected())
	rates.Get("", handlers.ListHonorariumSpecs)
	rates.Put("", middleware.RoleRequired(models.RoleDean, models.RoleAdmin), handlers.UpsertHonorariumSpec)

	assignments := api.Group("/coordinator-assignments", middleware.Protected(), middleware.RoleRequired(models.RoleDean, models.RoleAssistant, models.RoleAdmin))
	assignments.Get("", handlers.ListCoordinatorAssignments)
	assignments.Post("", handlers.CreateCoordinatorAssignment)
	assignments.Delete("/:assignmentId", handlers.DeactivateCoordinatorAssignment)

	payments := api.Group("/honorarium-payments", middleware.Protected(), middleware.RoleRequired(models.RoleDean, models.RoleAssistant, models.RoleAdmin))
	payments.Get("", handlers.ListPayments)
	payments.Post("/:paymentId/mark-paid", handlers.MarkPaymentPaid)
}
