// services/wallet_service.go
package services

import (
	"fmt"
	"log"
	"strconv"

	"chess-wager-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletService struct {
	DB  *gorm.DB
	Cfg Config
}

func NewWalletService(db *gorm.DB, cfg Config) *WalletService {
	return &WalletService{DB: db, Cfg: cfg}
}

// --- Ledger core ---
//
// Every balance-affecting mutation runs inside a caller-supplied transaction
// and re-fetches the account row FOR UPDATE, so concurrent operations on the
// same account serialize at the database. Validation happens before any
// mutation; on error the enclosing transaction rolls back as a unit.

// lockStake moves amount from available to locked and appends a stake record.
func lockStake(tx *gorm.DB, accountID string, amount int64, ref string) error {
	var acct models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&acct, "id = ?", accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return err
	}
	if acct.AvailableBalance < amount {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount, acct.AvailableBalance)
	}

	updates := map[string]interface{}{
		"available_balance": acct.AvailableBalance - amount,
		"locked_balance":    acct.LockedBalance + amount,
		"total_staked":      acct.TotalStaked + amount,
	}
	if err := tx.Model(&acct).Updates(updates).Error; err != nil {
		return err
	}

	return tx.Create(&models.Transaction{
		AccountID:   accountID,
		Kind:        models.TxStake,
		Amount:      amount,
		Description: "stake locked in escrow",
		Reference:   ref,
		Status:      models.TxCompleted,
	}).Error
}

// unlockToCredit removes lockedAmount from locked and adds creditAmount to
// available. creditAmount above the lock expresses winnings, equal expresses a
// refund, zero a forfeited stake. A transaction row is written only when
// something is credited — the original stake row already records the lock.
func unlockToCredit(tx *gorm.DB, accountID string, lockedAmount, creditAmount int64, kind, desc, ref string) error {
	var acct models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&acct, "id = ?", accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return err
	}
	if acct.LockedBalance < lockedAmount {
		return fmt.Errorf("%w: unlock %d exceeds locked %d on %s",
			ErrInvalidState, lockedAmount, acct.LockedBalance, accountID)
	}

	updates := map[string]interface{}{
		"available_balance": acct.AvailableBalance + creditAmount,
		"locked_balance":    acct.LockedBalance - lockedAmount,
	}
	if err := tx.Model(&acct).Updates(updates).Error; err != nil {
		return err
	}

	if creditAmount == 0 {
		return nil
	}
	return tx.Create(&models.Transaction{
		AccountID:   accountID,
		Kind:        kind,
		Amount:      creditAmount,
		Description: desc,
		Reference:   ref,
		Status:      models.TxCompleted,
	}).Error
}

// recordPlatformFee books fee revenue against the sentinel platform account.
func recordPlatformFee(tx *gorm.DB, amount int64, ref string) error {
	return tx.Create(&models.Transaction{
		AccountID:   models.PlatformAccountID,
		Kind:        models.TxPlatformFee,
		Amount:      amount,
		Description: "platform fee on match settlement",
		Reference:   ref,
		Status:      models.TxCompleted,
	}).Error
}

// --- Endpoints ---

func (s *WalletService) GetBalance(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var acct models.Account
	if err := s.DB.First(&acct, "id = ?", userID).Error; err != nil {
		return fail(c, fmt.Errorf("%w: account", ErrNotFound))
	}

	return c.JSON(fiber.Map{
		"available_balance": acct.AvailableBalance,
		"locked_balance":    acct.LockedBalance,
		"total_staked":      acct.TotalStaked,
		"total_winnings":    acct.TotalWinnings,
	})
}

func (s *WalletService) GetTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	var txs []models.Transaction
	if err := s.DB.Where("account_id = ?", userID).
		Order("created_at DESC").Limit(limit).
		Find(&txs).Error; err != nil {
		log.Printf("DB Error fetching transactions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch transactions"})
	}

	return c.JSON(txs)
}

// Deposit records external funding into the available balance. The payment
// itself happens off-platform; Reference carries the processor's code.
func (s *WalletService) Deposit(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Amount    int64  `json:"amount" form:"amount"`
		Reference string `json:"reference" form:"reference"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be positive"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var acct models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&acct, "id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Model(&acct).
			Update("available_balance", acct.AvailableBalance+req.Amount).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			AccountID:   userID,
			Kind:        models.TxDeposit,
			Amount:      req.Amount,
			Description: "wallet deposit",
			Reference:   req.Reference,
			Status:      models.TxCompleted,
		}).Error
	})
	if err != nil {
		log.Printf("DB Error on deposit for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "deposit failed"})
	}

	return s.GetBalance(c)
}

// Withdraw moves the amount out of available into a pending withdrawal record.
// The money leaves the spendable balance immediately; an admin later approves
// the payout or rejects it (which recredits available).
func (s *WalletService) Withdraw(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Amount      int64  `json:"amount" form:"amount"`
		Destination string `json:"destination" form:"destination"` // bank / payment handle
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be positive"})
	}

	var pending models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var acct models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&acct, "id = ?", userID).Error; err != nil {
			return err
		}
		if acct.AvailableBalance < req.Amount {
			return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, req.Amount, acct.AvailableBalance)
		}
		if err := tx.Model(&acct).
			Update("available_balance", acct.AvailableBalance-req.Amount).Error; err != nil {
			return err
		}
		pending = models.Transaction{
			AccountID:   userID,
			Kind:        models.TxWithdrawal,
			Amount:      req.Amount,
			Description: "withdrawal to " + req.Destination,
			Status:      models.TxPending,
		}
		return tx.Create(&pending).Error
	})
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "withdrawal requested, pending approval",
		"withdrawal": pending,
	})
}
