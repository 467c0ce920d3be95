package services

// FeeQuote breaks a stake down into pot, platform fee and winner payout.
// Pure integer arithmetic: fee + payout == pot always holds exactly.
type FeeQuote struct {
	Stake   int64 `json:"stake"`
	Pot     int64 `json:"pot"`
	Fee     int64 `json:"fee"`
	Payout  int64 `json:"payout"`
	RateBps int64 `json:"rate_bps"`
}

// QuoteFees computes the settlement for a stake at rateBps basis points.
// The pot is both stakes; the fee is taken from the pot before the winner is
// paid. Division truncates toward the player, never the platform's favor
// exceeding the rate.
func QuoteFees(stake, rateBps int64) FeeQuote {
	pot := stake * 2
	fee := pot * rateBps / 10000
	return FeeQuote{
		Stake:   stake,
		Pot:     pot,
		Fee:     fee,
		Payout:  pot - fee,
		RateBps: rateBps,
	}
}
