package models

import "time"

// Match statuses. Transitions between them are enforced by NextMatchStatus;
// handlers never assign a status string that didn't come out of the table.
const (
	MatchInProgress     = "in_progress"
	MatchAwaitingAppeal = "awaiting_appeal"
	MatchAppealed       = "appealed"
	MatchDraw           = "draw"
	MatchDisputed       = "disputed"
	MatchDisbursed      = "disbursed"
)

const (
	OutcomeProposerWon = "proposer_won"
	OutcomeAccepterWon = "accepter_won"
	OutcomeDraw        = "draw"
)

// Match is an accepted challenge being played out on Lichess. Both stakes sit
// in the participants' locked balances from creation until disbursement.
type Match struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChallengeID string `gorm:"type:uuid;not null;uniqueIndex" json:"challenge_id"`
	ProposerID  string `gorm:"type:uuid;not null;index" json:"proposer_id"`
	AccepterID  string `gorm:"type:uuid;not null;index" json:"accepter_id"`

	Stake       int64  `gorm:"not null" json:"stake"`
	FeeAmount   int64  `gorm:"not null" json:"fee_amount"`
	Payout      int64  `gorm:"not null" json:"payout"`
	TimeControl string `json:"time_control"`
	Rated       bool   `json:"rated"`

	Status  string `gorm:"not null;default:'in_progress';index" json:"status"`
	Outcome string `json:"outcome,omitempty"` // set on result submission

	GameID   string  `gorm:"index" json:"game_id,omitempty"` // Lichess game id
	GameURL  string  `json:"game_url,omitempty"`
	WinnerID *string `gorm:"type:uuid" json:"winner_id,omitempty"`

	AppealDeadline *time.Time `json:"appeal_deadline,omitempty"`
	DisbursedAt    *time.Time `json:"disbursed_at,omitempty"`

	Proposer Account  `json:"proposer,omitempty" gorm:"foreignKey:ProposerID"`
	Accepter Account  `json:"accepter,omitempty" gorm:"foreignKey:AccepterID"`
	Appeals  []Appeal `json:"appeals,omitempty" gorm:"foreignKey:MatchID"`

	Timestamps
}

const (
	AppealPending  = "pending"
	AppealUpheld   = "upheld"
	AppealRejected = "rejected"
)

// Appeal disputes a determined outcome during the appeal window. At most one
// per (match, filer); resolved only by an admin.
type Appeal struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MatchID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_appeal_match_filer" json:"match_id"`
	FilerID string `gorm:"type:uuid;not null;uniqueIndex:idx_appeal_match_filer" json:"filer_id"`

	Reason      string `gorm:"type:text;not null" json:"reason"`
	Evidence    string `gorm:"type:text" json:"evidence,omitempty"`
	EvidenceURL string `json:"evidence_url,omitempty"`

	Status     string     `gorm:"not null;default:'pending';index" json:"status"`
	ResolvedBy *string    `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	Filer Account `json:"filer,omitempty" gorm:"foreignKey:FilerID"`

	Timestamps
}
