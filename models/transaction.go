package models

// Transaction kinds
const (
	TxDeposit     = "deposit"
	TxWithdrawal  = "withdrawal"
	TxStake       = "stake"
	TxWinning     = "winning"
	TxRefund      = "refund"
	TxPlatformFee = "platform_fee"
	TxAdjustment  = "adjustment"
)

// Transaction statuses. Everything is written as completed except
// withdrawals, which start pending and move to approved or rejected.
const (
	TxCompleted = "completed"
	TxPending   = "pending"
	TxApproved  = "approved"
	TxRejected  = "rejected"
)

// PlatformAccountID is the sentinel account fee revenue is booked against.
const PlatformAccountID = "00000000-0000-0000-0000-000000000000"

// Transaction is the append-only wallet audit trail. Rows are never mutated
// after creation except a pending withdrawal's status.
type Transaction struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AccountID string `gorm:"type:uuid;not null;index" json:"account_id"`

	Kind        string `gorm:"not null;index" json:"kind"`
	Amount      int64  `gorm:"not null" json:"amount"`
	Description string `json:"description"`
	Reference   string `gorm:"index" json:"reference,omitempty"` // match id, challenge code, external payment ref

	Status string `gorm:"not null;default:'completed';index" json:"status"`

	Timestamps
}
