// services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"chess-wager-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

func (s *AdminService) GetStats(c *fiber.Ctx) error {
	var (
		users, activeMatches, openAppeals, pendingWithdrawals int64
		feeRevenue                                            int64
	)

	if err := s.DB.Model(&models.Account{}).Count(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Model(&models.Match{}).
		Where("status NOT IN ?", []string{models.MatchDisbursed, models.MatchDisputed}).
		Count(&activeMatches).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Model(&models.Appeal{}).
		Where("status = ?", models.AppealPending).Count(&openAppeals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Model(&models.Transaction{}).
		Where("kind = ? AND status = ?", models.TxWithdrawal, models.TxPending).
		Count(&pendingWithdrawals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Model(&models.Transaction{}).
		Where("account_id = ? AND kind = ?", models.PlatformAccountID, models.TxPlatformFee).
		Select("COALESCE(SUM(amount), 0)").Scan(&feeRevenue).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{
		"users":               users,
		"active_matches":      activeMatches,
		"open_appeals":        openAppeals,
		"pending_withdrawals": pendingWithdrawals,
		"fee_revenue":         feeRevenue,
	})
}

func (s *AdminService) GetUsers(c *fiber.Ctx) error {
	var accounts []models.Account
	if err := s.DB.Order("created_at DESC").Limit(500).Find(&accounts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch users"})
	}
	return c.JSON(accounts)
}

func (s *AdminService) GetMatches(c *fiber.Ctx) error {
	var matches []models.Match
	q := s.DB.Preload("Proposer").Preload("Accepter").Order("created_at DESC").Limit(500)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&matches).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch matches"})
	}
	return c.JSON(matches)
}

func (s *AdminService) GetChallenges(c *fiber.Ctx) error {
	var challenges []models.Challenge
	q := s.DB.Preload("Proposer").Preload("Target").Order("created_at DESC").Limit(500)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&challenges).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch challenges"})
	}
	return c.JSON(challenges)
}

func (s *AdminService) GetAppeals(c *fiber.Ctx) error {
	var appeals []models.Appeal
	q := s.DB.Preload("Filer").Order("created_at DESC").Limit(500)
	if status := c.Query("status", models.AppealPending); status != "all" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&appeals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch appeals"})
	}
	return c.JSON(appeals)
}

func (s *AdminService) GetWithdrawals(c *fiber.Ctx) error {
	var withdrawals []models.Transaction
	q := s.DB.Where("kind = ?", models.TxWithdrawal).Order("created_at DESC").Limit(500)
	if status := c.Query("status", models.TxPending); status != "all" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&withdrawals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch withdrawals"})
	}
	return c.JSON(withdrawals)
}

// ResolveAppeal marks a pending appeal upheld or rejected. Upheld moves the
// match to disputed — funds stay locked until an admin corrects the ledger
// manually (AdjustBalance). Rejected returns the match to awaiting_appeal;
// disbursement is NOT triggered here and must be invoked separately.
func (s *AdminService) ResolveAppeal(c *fiber.Ctx) error {
	adminID := c.Locals("user_id").(string)
	appealID := c.Params("id")

	var req struct {
		Decision string `json:"decision" form:"decision"` // upheld | rejected
		Note     string `json:"note" form:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Decision != models.AppealUpheld && req.Decision != models.AppealRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "decision must be upheld or rejected"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var appeal models.Appeal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&appeal, "id = ?", appealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: appeal %s", ErrNotFound, appealID)
			}
			return err
		}
		if appeal.Status != models.AppealPending {
			return fmt.Errorf("%w: appeal already %s", ErrInvalidState, appeal.Status)
		}

		var m models.Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "id = ?", appeal.MatchID).Error; err != nil {
			return err
		}

		event := models.EventAppealRejected
		if req.Decision == models.AppealUpheld {
			event = models.EventAppealUpheld
		}
		next, err := models.NextMatchStatus(m.Status, event)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		now := time.Now()
		if err := tx.Model(&appeal).Updates(map[string]interface{}{
			"status":      req.Decision,
			"resolved_by": &adminID,
			"resolved_at": &now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&m).Update("status", next).Error
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "appeal " + req.Decision})
}

func (s *AdminService) ApproveWithdrawal(c *fiber.Ctx) error {
	return s.settleWithdrawal(c, models.TxApproved)
}

func (s *AdminService) RejectWithdrawal(c *fiber.Ctx) error {
	return s.settleWithdrawal(c, models.TxRejected)
}

// settleWithdrawal finalizes a pending withdrawal. The amount already left
// the available balance at request time: approval just marks it paid out,
// rejection puts it back.
func (s *AdminService) settleWithdrawal(c *fiber.Ctx, terminal string) error {
	withdrawalID := c.Params("id")

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var wd models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&wd, "id = ?", withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: withdrawal %s", ErrNotFound, withdrawalID)
			}
			return err
		}
		if wd.Kind != models.TxWithdrawal {
			return fmt.Errorf("%w: transaction %s is not a withdrawal", ErrInvalidState, withdrawalID)
		}
		if wd.Status != models.TxPending {
			return fmt.Errorf("%w: withdrawal already %s", ErrInvalidState, wd.Status)
		}

		if terminal == models.TxRejected {
			var acct models.Account
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&acct, "id = ?", wd.AccountID).Error; err != nil {
				return err
			}
			if err := tx.Model(&acct).
				Update("available_balance", acct.AvailableBalance+wd.Amount).Error; err != nil {
				return err
			}
		}

		return tx.Model(&wd).Update("status", terminal).Error
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "withdrawal " + terminal})
}

// AdjustBalance is the manual correction path for disputed matches. Positive
// amounts credit available, negative debit it (never below zero). Every
// adjustment leaves an audit row naming the admin.
func (s *AdminService) AdjustBalance(c *fiber.Ctx) error {
	adminID := c.Locals("user_id").(string)
	accountID := c.Params("id")

	var req struct {
		Amount      int64  `json:"amount" form:"amount"`
		Description string `json:"description" form:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Amount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be non-zero"})
	}
	if req.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description is required"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var acct models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&acct, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
			}
			return err
		}
		newBalance := acct.AvailableBalance + req.Amount
		if newBalance < 0 {
			return fmt.Errorf("%w: adjustment would leave balance negative", ErrInsufficientFunds)
		}
		if err := tx.Model(&acct).Update("available_balance", newBalance).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			AccountID:   accountID,
			Kind:        models.TxAdjustment,
			Amount:      req.Amount,
			Description: fmt.Sprintf("admin adjustment by %s: %s", adminID, req.Description),
			Status:      models.TxCompleted,
		}).Error
	})
	if err != nil {
		return fail(c, err)
	}

	log.Printf("Admin %s adjusted account %s by %d", adminID, accountID, req.Amount)
	return c.JSON(fiber.Map{"message": "balance adjusted"})
}
