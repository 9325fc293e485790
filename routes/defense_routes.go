package routes

import (
	"github.com/JohnEstano/Graduate-School-System-sub002/handlers"
	"github.com/JohnEstano/Graduate-School-System-sub002/middleware"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/gofiber/fiber/v2"
)

func DefenseRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	defense := api.Group("/defense-requests", middleware.Protected())
	defense.Get("", handlers.ListDefenses)
	defense.Post("", middleware.RoleRequired(models.RoleStudent, models.RoleAssistant, models.RoleAdmin), handlers.CreateDefense)
	defense.Post("/check-conflicts", handlers.CheckConflicts)
	defense.Get("/:id", handlers.GetDefense)
	defense.Post("/:id/cancel", handlers.CancelDefense)

	defense.Put("/:id/panels", middleware.CoordinatorCapable(), handlers.AssignPanels)
	defense.Put("/:id/schedule", middleware.CoordinatorCapable(), handlers.ScheduleDefense)
	defense.Post("/:id/route-coordinator", middleware.CoordinatorCapable(), handlers.RouteCoordinator)

	defense.Post("/:id/adviser-decision", middleware.RoleRequired(models.RoleAdviser, models.RoleAdmin), handlers.AdviserDecision)
	defense.Post("/:id/coordinator-decision", middleware.CoordinatorCapable(), handlers.CoordinatorDecision)
	defense.Post("/:id/dean-decision", middleware.RoleRequired(models.RoleDean, models.RoleAdmin), handlers.DeanDecision)
}
