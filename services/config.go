package services

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config carries the wagering knobs, loaded once at startup from the
// environment. Amounts are minor units; the fee rate is basis points so fee
// arithmetic stays integral (150 = 1.5%).
type Config struct {
	MinStake         int64
	FeeRateBps       int64
	ChallengeTTL     time.Duration
	AppealWindow     time.Duration
	DrawAppealWindow bool // when true, draws get the same appeal window as decisive results
}

func LoadConfig() Config {
	return Config{
		MinStake:         envInt64("MIN_STAKE", 1000),
		FeeRateBps:       envInt64("PLATFORM_FEE_BPS", 150),
		ChallengeTTL:     time.Duration(envInt64("CHALLENGE_TTL_MINUTES", 15)) * time.Minute,
		AppealWindow:     time.Duration(envInt64("APPEAL_WINDOW_HOURS", 24)) * time.Hour,
		DrawAppealWindow: os.Getenv("DRAW_APPEAL_WINDOW") == "true",
	}
}

func envInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️  invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}
