// services/challenge_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"chess-wager-system/models"
	"chess-wager-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeService struct {
	DB  *gorm.DB
	Cfg Config
}

func NewChallengeService(db *gorm.DB, cfg Config) *ChallengeService {
	return &ChallengeService{DB: db, Cfg: cfg}
}

// Send creates a pending challenge. No funds are locked here — both stakes
// lock together at acceptance. The returned fee preview is informational;
// the authoritative quote is recomputed when the match settles.
func (s *ChallengeService) Send(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		TargetUsername string `json:"target_username" form:"target_username"`
		Stake          int64  `json:"stake" form:"stake"`
		TimeControl    string `json:"time_control" form:"time_control"`
		Rated          bool   `json:"rated" form:"rated"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Stake < s.Cfg.MinStake {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("stake must be at least %d", s.Cfg.MinStake),
		})
	}
	if req.TimeControl == "" {
		req.TimeControl = "10+0"
	}

	var proposer models.Account
	if err := s.DB.First(&proposer, "id = ?", userID).Error; err != nil {
		return fail(c, fmt.Errorf("%w: account", ErrNotFound))
	}
	if proposer.AvailableBalance < req.Stake {
		return fail(c, fmt.Errorf("%w: stake %d exceeds available %d",
			ErrInsufficientFunds, req.Stake, proposer.AvailableBalance))
	}

	var target models.Account
	if err := s.DB.First(&target, "username = ?", req.TargetUsername).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fmt.Errorf("%w: no user %q", ErrNotFound, req.TargetUsername))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if target.ID == proposer.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "you cannot challenge yourself"})
	}

	// One live challenge per ordered pair at a time.
	var open int64
	if err := s.DB.Model(&models.Challenge{}).
		Where("proposer_id = ? AND target_id = ? AND status = ? AND expires_at > ?",
			proposer.ID, target.ID, models.ChallengePending, time.Now()).
		Count(&open).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if open > 0 {
		return fail(c, fmt.Errorf("%w: you already have a pending challenge to %s",
			ErrInvalidState, target.Username))
	}

	ch := models.Challenge{
		Code:        utils.ChallengeCode(proposer.Username),
		ProposerID:  proposer.ID,
		TargetID:    target.ID,
		Stake:       req.Stake,
		TimeControl: req.TimeControl,
		Rated:       req.Rated,
		Status:      models.ChallengePending,
		ExpiresAt:   time.Now().Add(s.Cfg.ChallengeTTL),
	}
	if err := s.DB.Create(&ch).Error; err != nil {
		log.Printf("DB Error creating challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create challenge"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"challenge":   ch,
		"fee_preview": QuoteFees(req.Stake, s.Cfg.FeeRateBps),
	})
}

// Accept locks both stakes and opens a match, all in one transaction — if
// either lock fails, neither side's balance changes.
func (s *ChallengeService) Accept(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	code := c.Params("code")

	var match models.Match
	var expired error
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ch, "code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: challenge %s", ErrNotFound, code)
			}
			return err
		}
		if ch.Status != models.ChallengePending {
			return fmt.Errorf("%w: challenge is %s", ErrInvalidState, ch.Status)
		}
		if time.Now().After(ch.ExpiresAt) {
			// Lazy expiry: commit the terminal status (returning an error here
			// would roll it back), then report the failure after the transaction.
			expired = fmt.Errorf("%w: challenge has expired", ErrInvalidState)
			return tx.Model(&ch).Update("status", models.ChallengeExpired).Error
		}
		if ch.TargetID != userID {
			return fmt.Errorf("%w: challenge is not addressed to you", ErrForbidden)
		}

		var proposer, accepter models.Account
		if err := tx.First(&proposer, "id = ?", ch.ProposerID).Error; err != nil {
			return err
		}
		if err := tx.First(&accepter, "id = ?", ch.TargetID).Error; err != nil {
			return err
		}
		if proposer.LichessHandle == "" || accepter.LichessHandle == "" {
			return fmt.Errorf("%w: both players must link a lichess account first", ErrInvalidState)
		}

		// Lock in deterministic order so two concurrent accepts touching the
		// same accounts cannot deadlock.
		first, second := ch.ProposerID, ch.TargetID
		if second < first {
			first, second = second, first
		}
		if err := lockStake(tx, first, ch.Stake, ch.Code); err != nil {
			return err
		}
		if err := lockStake(tx, second, ch.Stake, ch.Code); err != nil {
			return err
		}

		if err := tx.Model(&ch).Update("status", models.ChallengeAccepted).Error; err != nil {
			return err
		}

		quote := QuoteFees(ch.Stake, s.Cfg.FeeRateBps)
		match = models.Match{
			ChallengeID: ch.ID,
			ProposerID:  ch.ProposerID,
			AccepterID:  ch.TargetID,
			Stake:       ch.Stake,
			FeeAmount:   quote.Fee,
			Payout:      quote.Payout,
			TimeControl: ch.TimeControl,
			Rated:       ch.Rated,
			Status:      models.MatchInProgress,
		}
		return tx.Create(&match).Error
	})
	if err == nil {
		err = expired
	}
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "challenge accepted, stakes locked",
		"match":   match,
	})
}

func (s *ChallengeService) Decline(c *fiber.Ctx) error {
	return s.close(c, models.ChallengeDeclined)
}

func (s *ChallengeService) Cancel(c *fiber.Ctx) error {
	return s.close(c, models.ChallengeCancelled)
}

// close handles decline (by target) and cancel (by proposer). Nothing was
// locked at send time, so there is nothing to unlock.
func (s *ChallengeService) close(c *fiber.Ctx, terminal string) error {
	userID := c.Locals("user_id").(string)
	code := c.Params("code")

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ch, "code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: challenge %s", ErrNotFound, code)
			}
			return err
		}
		if ch.Status != models.ChallengePending {
			return fmt.Errorf("%w: challenge is %s", ErrInvalidState, ch.Status)
		}
		switch terminal {
		case models.ChallengeDeclined:
			if ch.TargetID != userID {
				return fmt.Errorf("%w: only the challenged player may decline", ErrForbidden)
			}
		case models.ChallengeCancelled:
			if ch.ProposerID != userID {
				return fmt.Errorf("%w: only the proposer may cancel", ErrForbidden)
			}
		}
		return tx.Model(&ch).Update("status", terminal).Error
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "challenge " + terminal})
}

// Pending lists unexpired incoming challenges, sweeping any that lapsed.
func (s *ChallengeService) Pending(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	s.expireStale(userID)

	var challenges []models.Challenge
	if err := s.DB.Preload("Proposer").
		Where("target_id = ? AND status = ?", userID, models.ChallengePending).
		Order("created_at DESC").
		Find(&challenges).Error; err != nil {
		log.Printf("DB Error fetching pending challenges: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch challenges"})
	}

	return c.JSON(s.withPreviews(challenges))
}

// Sent lists the caller's outgoing challenges, newest first.
func (s *ChallengeService) Sent(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	s.expireStale(userID)

	var challenges []models.Challenge
	if err := s.DB.Preload("Target").
		Where("proposer_id = ?", userID).
		Order("created_at DESC").Limit(50).
		Find(&challenges).Error; err != nil {
		log.Printf("DB Error fetching sent challenges: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch challenges"})
	}

	return c.JSON(s.withPreviews(challenges))
}

// expireStale lazily flips lapsed pending challenges involving the user.
// Best effort — listings also filter on status, and Accept re-checks expiry.
func (s *ChallengeService) expireStale(userID string) {
	err := s.DB.Model(&models.Challenge{}).
		Where("(proposer_id = ? OR target_id = ?) AND status = ? AND expires_at <= ?",
			userID, userID, models.ChallengePending, time.Now()).
		Update("status", models.ChallengeExpired).Error
	if err != nil {
		log.Printf("DB Error expiring challenges for %s: %v", userID, err)
	}
}

type challengeView struct {
	models.Challenge
	FeePreview FeeQuote `json:"fee_preview"`
}

func (s *ChallengeService) withPreviews(challenges []models.Challenge) []challengeView {
	views := make([]challengeView, len(challenges))
	for i, ch := range challenges {
		views[i] = challengeView{Challenge: ch, FeePreview: QuoteFees(ch.Stake, s.Cfg.FeeRateBps)}
	}
	return views
}
