package routes

import (
	"github.com/JohnEstano/Graduate-School-System-sub002/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")
	api.Post("/auth/login", handlers.Login)
}
