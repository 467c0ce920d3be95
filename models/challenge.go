package models

import "time"

const (
	ChallengePending   = "pending"
	ChallengeAccepted  = "accepted"
	ChallengeDeclined  = "declined"
	ChallengeCancelled = "cancelled"
	ChallengeExpired   = "expired"
)

// Challenge is a staked game proposal from one player to another. Expiry is
// evaluated lazily against ExpiresAt; there is no background sweep dependency.
// Once in a terminal status the row is never mutated again.
type Challenge struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code       string `gorm:"uniqueIndex;not null" json:"code"` // human-shareable, e.g. "magnus-4f09a1"
	ProposerID string `gorm:"type:uuid;not null;index" json:"proposer_id"`
	TargetID   string `gorm:"type:uuid;not null;index" json:"target_id"`

	Stake       int64  `gorm:"not null" json:"stake"`
	TimeControl string `gorm:"not null" json:"time_control"` // e.g. "5+3"
	Rated       bool   `gorm:"default:false" json:"rated"`

	Status    string    `gorm:"not null;default:'pending';index" json:"status"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`

	Proposer Account `json:"proposer,omitempty" gorm:"foreignKey:ProposerID"`
	Target   Account `json:"target,omitempty" gorm:"foreignKey:TargetID"`

	Timestamps
}
