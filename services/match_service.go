// services/match_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"chess-wager-system/models"
	"chess-wager-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EvidenceStore is the object store appeal screenshots land in.
type EvidenceStore interface {
	Enabled() bool
	Upload(file *multipart.FileHeader, key string) (string, error)
}

// r2EvidenceStore backs EvidenceStore with the R2 bucket from utils.
type r2EvidenceStore struct{}

func (r2EvidenceStore) Enabled() bool { return utils.EvidenceStoreEnabled() }

func (r2EvidenceStore) Upload(file *multipart.FileHeader, key string) (string, error) {
	return utils.UploadEvidence(file, key)
}

type MatchService struct {
	DB       *gorm.DB
	Cfg      Config
	Verifier *LichessClient
	Evidence EvidenceStore
}

func NewMatchService(db *gorm.DB, cfg Config, verifier *LichessClient) *MatchService {
	return &MatchService{DB: db, Cfg: cfg, Verifier: verifier, Evidence: r2EvidenceStore{}}
}

// SubmitResult verifies the linked Lichess game and moves the match out of
// in_progress. Verification happens before any mutation: an unverifiable
// game leaves the match untouched and reports the failure to the caller.
func (s *MatchService) SubmitResult(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	matchID := c.Params("id")

	var req struct {
		GameID string `json:"game_id" form:"game_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "game_id is required"})
	}

	var match models.Match
	if err := s.DB.Preload("Proposer").Preload("Accepter").
		First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fmt.Errorf("%w: match %s", ErrNotFound, matchID))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if match.ProposerID != userID && match.AccepterID != userID {
		return fail(c, fmt.Errorf("%w: you are not a participant in this match", ErrForbidden))
	}
	if match.Status != models.MatchInProgress {
		return fail(c, fmt.Errorf("%w: match is %s", ErrInvalidState, match.Status))
	}

	// Network call stays outside the transaction.
	game, err := s.Verifier.FetchGame(c.Context(), req.GameID)
	if err != nil {
		return fail(c, err)
	}
	outcome, winnerID, err := mapOutcome(game, &match.Proposer, &match.Accepter)
	if err != nil {
		return fail(c, err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "id = ?", matchID).Error; err != nil {
			return err
		}

		event := models.EventResultSubmitted
		if outcome == models.OutcomeDraw && !s.Cfg.DrawAppealWindow {
			event = models.EventDrawRecorded
		}
		next, err := models.NextMatchStatus(m.Status, event)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		updates := map[string]interface{}{
			"status":    next,
			"outcome":   outcome,
			"game_id":   game.ID,
			"game_url":  game.URL,
			"winner_id": winnerID,
		}
		if next == models.MatchAwaitingAppeal {
			updates["appeal_deadline"] = time.Now().Add(s.Cfg.AppealWindow)
		}
		return tx.Model(&m).Updates(updates).Error
	})
	if err != nil {
		return fail(c, err)
	}

	if err := s.DB.First(&match, "id = ?", matchID).Error; err == nil {
		return c.JSON(fiber.Map{"message": "result recorded", "match": match})
	}
	return c.JSON(fiber.Map{"message": "result recorded"})
}

// mapOutcome maps the game's white/black sides onto the match participants
// through their linked handles, case-insensitively. It never guesses: unless
// each participant matches exactly one distinct side of a finished game, the
// result is unverifiable.
func mapOutcome(game *GameRecord, proposer, accepter *models.Account) (string, *string, error) {
	if !game.Finished() {
		return "", nil, fmt.Errorf("%w: game %s has not finished (status %s)",
			ErrUnverifiable, game.ID, game.Status)
	}

	proposerIsWhite := strings.EqualFold(proposer.LichessHandle, game.White)
	proposerIsBlack := strings.EqualFold(proposer.LichessHandle, game.Black)
	accepterIsWhite := strings.EqualFold(accepter.LichessHandle, game.White)
	accepterIsBlack := strings.EqualFold(accepter.LichessHandle, game.Black)

	var proposerSide string
	switch {
	case proposerIsWhite && accepterIsBlack && !proposerIsBlack:
		proposerSide = "white"
	case proposerIsBlack && accepterIsWhite && !proposerIsWhite:
		proposerSide = "black"
	default:
		return "", nil, fmt.Errorf("%w: players %q/%q do not map onto game sides %q/%q",
			ErrUnverifiable, proposer.LichessHandle, accepter.LichessHandle, game.White, game.Black)
	}

	switch game.Winner {
	case "":
		return models.OutcomeDraw, nil, nil
	case proposerSide:
		return models.OutcomeProposerWon, &proposer.ID, nil
	default:
		return models.OutcomeAccepterWon, &accepter.ID, nil
	}
}

// appealGate checks that filerID may appeal m right now: participant, match in
// an appealable status, window still open, no prior appeal from them. Returns
// the status the match moves to. Runs once before the evidence upload and
// again inside the transaction under the row lock.
func appealGate(db *gorm.DB, m *models.Match, filerID string) (string, error) {
	if m.ProposerID != filerID && m.AccepterID != filerID {
		return "", fmt.Errorf("%w: you are not a participant in this match", ErrForbidden)
	}
	next, err := models.NextMatchStatus(m.Status, models.EventAppealFiled)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if m.AppealDeadline == nil || time.Now().After(*m.AppealDeadline) {
		return "", fmt.Errorf("%w: appeal window has closed", ErrInvalidState)
	}

	var existing int64
	if err := db.Model(&models.Appeal{}).
		Where("match_id = ? AND filer_id = ?", m.ID, filerID).
		Count(&existing).Error; err != nil {
		return "", err
	}
	if existing > 0 {
		return "", fmt.Errorf("%w: you already appealed this match", ErrInvalidState)
	}
	return next, nil
}

// Appeal disputes the determined outcome within the appeal window. One appeal
// per participant per match; an optional evidence screenshot is stored
// off-database and referenced by URL.
func (s *MatchService) Appeal(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	matchID := c.Params("id")

	var req struct {
		Reason   string `json:"reason" form:"reason"`
		Evidence string `json:"evidence" form:"evidence"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reason is required"})
	}

	// Gate before touching the object store so a rejected appeal cannot
	// leave an orphaned upload behind.
	var m models.Match
	if err := s.DB.First(&m, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fmt.Errorf("%w: match %s", ErrNotFound, matchID))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if _, err := appealGate(s.DB, &m, userID); err != nil {
		return fail(c, err)
	}

	evidenceURL := ""
	if file, err := c.FormFile("evidence_image"); err == nil && file != nil {
		if !s.Evidence.Enabled() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "evidence uploads are not enabled, submit text evidence instead",
			})
		}
		url, upErr := s.Evidence.Upload(file, fmt.Sprintf("appeals/%s/%s-%s", matchID, userID, uuid.NewString()))
		if upErr != nil {
			log.Printf("Evidence upload failed for match %s: %v", matchID, upErr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store evidence"})
		}
		evidenceURL = url
	}

	var appeal models.Appeal
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match %s", ErrNotFound, matchID)
			}
			return err
		}
		next, err := appealGate(tx, &m, userID)
		if err != nil {
			return err
		}

		appeal = models.Appeal{
			MatchID:     m.ID,
			FilerID:     userID,
			Reason:      req.Reason,
			Evidence:    req.Evidence,
			EvidenceURL: evidenceURL,
			Status:      models.AppealPending,
		}
		if err := tx.Create(&appeal).Error; err != nil {
			return err
		}
		return tx.Model(&m).Update("status", next).Error
	})
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "appeal filed, disbursement is on hold",
		"appeal":  appeal,
	})
}

// ProcessDisbursement releases escrowed funds once the appeal window has run
// out. Anyone may trigger it — the operation itself decides whether the match
// is releasable.
func (s *MatchService) ProcessDisbursement(c *fiber.Ctx) error {
	matchID := c.Params("id")

	if err := s.Disburse(matchID); err != nil {
		return fail(c, err)
	}

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err == nil {
		return c.JSON(fiber.Map{"message": "match disbursed", "match": match})
	}
	return c.JSON(fiber.Map{"message": "match disbursed"})
}

// Disburse settles a match: draw → both stakes refunded, no fee; decisive →
// winner credited pot minus fee, loser's locked stake removed, fee booked as
// platform revenue. The FOR UPDATE re-fetch plus the transition table make a
// second call fail with a state error instead of paying twice.
func (s *MatchService) Disburse(matchID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match %s", ErrNotFound, matchID)
			}
			return err
		}

		next, err := models.NextMatchStatus(m.Status, models.EventDisbursed)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		if m.Status == models.MatchAwaitingAppeal {
			if m.AppealDeadline == nil || time.Now().Before(*m.AppealDeadline) {
				return fmt.Errorf("%w: appeal window still open", ErrInvalidState)
			}
			var pending int64
			if err := tx.Model(&models.Appeal{}).
				Where("match_id = ? AND status = ?", m.ID, models.AppealPending).
				Count(&pending).Error; err != nil {
				return err
			}
			if pending > 0 {
				return fmt.Errorf("%w: a pending appeal blocks disbursement", ErrInvalidState)
			}
		}

		if m.Outcome == models.OutcomeDraw || m.WinnerID == nil {
			// Draws carry no fee; both players get their stake back exactly.
			if err := unlockToCredit(tx, m.ProposerID, m.Stake, m.Stake,
				models.TxRefund, "stake refunded (draw)", m.ID); err != nil {
				return err
			}
			if err := unlockToCredit(tx, m.AccepterID, m.Stake, m.Stake,
				models.TxRefund, "stake refunded (draw)", m.ID); err != nil {
				return err
			}
			if err := tx.Model(&models.Account{}).
				Where("id IN ?", []string{m.ProposerID, m.AccepterID}).
				Update("draws", gorm.Expr("draws + 1")).Error; err != nil {
				return err
			}
		} else {
			winnerID := *m.WinnerID
			loserID := m.ProposerID
			if winnerID == m.ProposerID {
				loserID = m.AccepterID
			}

			if err := unlockToCredit(tx, winnerID, m.Stake, m.Payout,
				models.TxWinning, "match winnings (pot minus fee)", m.ID); err != nil {
				return err
			}
			// Loser's locked stake is forfeited into the pot already paid out.
			if err := unlockToCredit(tx, loserID, m.Stake, 0, "", "", m.ID); err != nil {
				return err
			}
			if err := recordPlatformFee(tx, m.FeeAmount, m.ID); err != nil {
				return err
			}

			if err := tx.Model(&models.Account{}).Where("id = ?", winnerID).
				Updates(map[string]interface{}{
					"wins":           gorm.Expr("wins + 1"),
					"total_winnings": gorm.Expr("total_winnings + ?", m.Payout),
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Account{}).Where("id = ?", loserID).
				Update("losses", gorm.Expr("losses + 1")).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&m).Updates(map[string]interface{}{
			"status":       next,
			"disbursed_at": &now,
		}).Error
	})
}

// Active lists the caller's matches still holding locked funds.
func (s *MatchService) Active(c *fiber.Ctx) error {
	return s.list(c, []string{
		models.MatchInProgress, models.MatchAwaitingAppeal,
		models.MatchAppealed, models.MatchDraw,
	})
}

// Completed lists settled and disputed matches.
func (s *MatchService) Completed(c *fiber.Ctx) error {
	return s.list(c, []string{models.MatchDisbursed, models.MatchDisputed})
}

func (s *MatchService) list(c *fiber.Ctx, statuses []string) error {
	userID := c.Locals("user_id").(string)

	var matches []models.Match
	if err := s.DB.Preload("Proposer").Preload("Accepter").
		Where("(proposer_id = ? OR accepter_id = ?) AND status IN ?", userID, userID, statuses).
		Order("created_at DESC").Limit(100).
		Find(&matches).Error; err != nil {
		log.Printf("DB Error fetching matches: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch matches"})
	}

	return c.JSON(matches)
}
