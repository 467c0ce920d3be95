package workers

import (
	"context"
	"log"
	"time"

	"chess-wager-system/models"
	"chess-wager-system/services"

	"gorm.io/gorm"
)

// RatingSyncClient refreshes linked Lichess handles' blitz ratings into the
// local accounts table. Ratings are display-only — settlement never reads
// them — so the poller is allowed to lag or fail without consequence.
type RatingSyncClient struct {
	DB      *gorm.DB
	Lichess *services.LichessClient
}

func NewRatingSyncClient(db *gorm.DB, lichess *services.LichessClient) *RatingSyncClient {
	return &RatingSyncClient{DB: db, Lichess: lichess}
}

func (c *RatingSyncClient) syncOnce(ctx context.Context) {
	var accounts []models.Account
	if err := c.DB.Where("lichess_handle <> ''").
		Order("updated_at ASC").Limit(50).
		Find(&accounts).Error; err != nil {
		log.Printf("❌ Rating sync DB error: %v", err)
		return
	}

	updated := 0
	for _, acct := range accounts {
		profile, err := c.Lichess.FetchUser(ctx, acct.LichessHandle)
		if err != nil {
			log.Printf("Rating sync: skipping %s: %v", acct.LichessHandle, err)
			continue
		}
		if profile.BlitzRating == acct.LichessRating {
			continue
		}
		if err := c.DB.Model(&models.Account{}).
			Where("id = ?", acct.ID).
			Update("lichess_rating", profile.BlitzRating).Error; err != nil {
			log.Printf("Rating sync: failed to update %s: %v", acct.Username, err)
			continue
		}
		updated++
	}

	if updated > 0 {
		log.Printf("📥 Rating sync refreshed %d account(s)", updated)
	}
}

// PollRatings runs the refresh loop until the context is cancelled.
func PollRatings(ctx context.Context, client *RatingSyncClient, pollInterval time.Duration) {
	log.Println("Starting lichess rating polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Rating polling stopped.")
			return
		case <-ticker.C:
			client.syncOnce(ctx)
		}
	}
}
