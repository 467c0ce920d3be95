package handlers

import (
	"chess-wager-system/middleware"
	"chess-wager-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService, jwtSecret []byte) {
	// 🔓 Public
	app.Post("/auth/register", authService.Register)
	app.Post("/auth/login", authService.Login)

	// 🔐 Authenticated profile routes
	secured := app.Group("/user", middleware.RequireAuth(jwtSecret))
	secured.Get("/profile", authService.GetProfile)
	secured.Post("/lichess-link", authService.LinkLichess)
}
