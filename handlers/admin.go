package handlers

import (
	"chess-wager-system/middleware"
	"chess-wager-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes registers the operator surface: oversight listings, appeal
// resolution, withdrawal processing and the manual ledger correction used for
// disputed matches.
func SetupAdminRoutes(app *fiber.App, adminService *services.AdminService, jwtSecret []byte) {
	// 🔒 Admin-only
	admin := app.Group("/admin", middleware.RequireAuth(jwtSecret), middleware.RequireAdmin())

	admin.Get("/stats", adminService.GetStats)
	admin.Get("/users", adminService.GetUsers)
	admin.Get("/matches", adminService.GetMatches)
	admin.Get("/challenges", adminService.GetChallenges)
	admin.Get("/appeals", adminService.GetAppeals)
	admin.Get("/withdrawals", adminService.GetWithdrawals)

	admin.Post("/appeals/:id/resolve", adminService.ResolveAppeal)
	admin.Post("/withdrawals/:id/approve", adminService.ApproveWithdrawal)
	admin.Post("/withdrawals/:id/reject", adminService.RejectWithdrawal)
	admin.Post("/users/:id/adjust", adminService.AdjustBalance)
}
