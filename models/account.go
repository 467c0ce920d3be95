package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is a registered player and their wallet. All monetary amounts in
// this package are int64 minor units (kobo) — never floats.
type Account struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username      string `gorm:"uniqueIndex;not null" json:"username"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	IsAdmin       bool   `gorm:"default:false" json:"is_admin"`
	LichessHandle string `gorm:"index" json:"lichess_handle"`
	LichessRating int    `gorm:"default:0" json:"lichess_rating"`

	// Wallet. Available and locked are both kept non-negative; locked only
	// grows via a stake lock and only shrinks by the exact locked amount at
	// settlement or refund.
	AvailableBalance int64 `gorm:"not null;default:0;check:available_balance >= 0" json:"available_balance"`
	LockedBalance    int64 `gorm:"not null;default:0;check:locked_balance >= 0" json:"locked_balance"`

	// Lifetime counters
	TotalStaked   int64 `gorm:"not null;default:0" json:"total_staked"`
	TotalWinnings int64 `gorm:"not null;default:0" json:"total_winnings"`
	Wins          int   `gorm:"default:0" json:"wins"`
	Losses        int   `gorm:"default:0" json:"losses"`
	Draws         int   `gorm:"default:0" json:"draws"`

	Timestamps
}

// Timestamps adds GORM auto-times plus soft delete (accounts are never hard
// deleted — history only).
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
