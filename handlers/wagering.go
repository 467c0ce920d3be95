package handlers

import (
	"chess-wager-system/middleware"
	"chess-wager-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupWageringRoutes registers the wallet, challenge and match surface.
// Everything here requires a bearer token.
func SetupWageringRoutes(
	app *fiber.App,
	walletService *services.WalletService,
	challengeService *services.ChallengeService,
	matchService *services.MatchService,
	jwtSecret []byte,
) {
	secured := app.Group("/", middleware.RequireAuth(jwtSecret))

	// Wallet
	secured.Get("/wallet/balance", walletService.GetBalance)
	secured.Get("/wallet/transactions", walletService.GetTransactions)
	secured.Post("/wallet/deposit", walletService.Deposit)
	secured.Post("/wallet/withdraw", walletService.Withdraw)

	// Challenges
	secured.Post("/challenges/send", challengeService.Send)
	secured.Get("/challenges/pending", challengeService.Pending)
	secured.Get("/challenges/sent", challengeService.Sent)
	secured.Post("/challenges/:code/accept", challengeService.Accept)
	secured.Post("/challenges/:code/decline", challengeService.Decline)
	secured.Post("/challenges/:code/cancel", challengeService.Cancel)

	// Matches
	secured.Post("/matches/:id/submit-result", matchService.SubmitResult)
	secured.Post("/matches/:id/appeal", matchService.Appeal)
	secured.Post("/matches/:id/process-disbursement", matchService.ProcessDisbursement)
	secured.Get("/matches/active", matchService.Active)
	secured.Get("/matches/completed", matchService.Completed)
}
