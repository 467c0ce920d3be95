package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Failure taxonomy for the wagering core. Handlers wrap these with context via
// fmt.Errorf("%w: ...") and map them to HTTP statuses in one place so every
// endpoint reports the same class the same way.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not allowed")
	ErrInvalidState      = errors.New("invalid state for this operation")
	ErrInsufficientFunds = errors.New("insufficient available balance")
	ErrUnverifiable      = errors.New("game result could not be verified")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.StatusPaymentRequired
	case errors.Is(err, ErrUnverifiable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// fail renders a core error as the standard JSON error body.
func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}
