// services/scheduler.go
package services

import (
	"log"
	"time"

	"chess-wager-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartHousekeeping runs the minutely sweep: flip lapsed pending challenges
// to expired, and release matches whose appeal window has run out. Lazy
// checks on the request path remain authoritative — the sweep is just the
// scheduled caller the disbursement contract expects, and it reuses the same
// idempotent Disburse path, so a racing manual call is harmless.
func (s *MatchService) StartHousekeeping() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: expire stale challenges
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			res := s.DB.Model(&models.Challenge{}).
				Where("status = ? AND expires_at <= ?", models.ChallengePending, time.Now()).
				Update("status", models.ChallengeExpired)
			if res.Error != nil {
				log.Printf("[Housekeeping] challenge expiry DB error: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("✅ Expired %d stale challenge(s)", res.RowsAffected)
			}
		}),
	)

	// Every minute: disburse releasable matches
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var matches []models.Match
			now := time.Now()
			err := s.DB.
				Where("(status = ? AND appeal_deadline <= ?) OR status = ?",
					models.MatchAwaitingAppeal, now, models.MatchDraw).
				Find(&matches).Error
			if err != nil {
				log.Printf("[Housekeeping] DB error: %v", err)
				return
			}

			for _, m := range matches {
				if err := s.Disburse(m.ID); err != nil {
					// pending appeals and races with manual disbursement land
					// here; both resolve themselves on a later sweep
					log.Printf("[Housekeeping] match %s not disbursed: %v", m.ID, err)
				} else {
					log.Printf("✅ Auto-disbursed match %s", m.ID)
				}
			}
		}),
	)
}
