package services

import "testing"

func TestQuoteFees(t *testing.T) {
	// stake 1000 minor units at 1.5% → pot 2000, fee 30, payout 1970
	q := QuoteFees(1000, 150)
	if q.Pot != 2000 {
		t.Fatalf("pot: expected 2000 got %d", q.Pot)
	}
	if q.Fee != 30 {
		t.Fatalf("fee: expected 30 got %d", q.Fee)
	}
	if q.Payout != 1970 {
		t.Fatalf("payout: expected 1970 got %d", q.Payout)
	}
}

func TestQuoteFeesConservation(t *testing.T) {
	// fee + payout must equal the pot exactly, for any stake and rate.
	// Floating point would drift here; integer basis points must not.
	stakes := []int64{1, 3, 7, 999, 1000, 12345, 1_000_000, 99_999_999}
	rates := []int64{0, 1, 150, 333, 9999, 10000}

	for _, stake := range stakes {
		for _, rate := range rates {
			q := QuoteFees(stake, rate)
			if q.Fee+q.Payout != q.Pot {
				t.Fatalf("stake=%d rate=%d: fee %d + payout %d != pot %d",
					stake, rate, q.Fee, q.Payout, q.Pot)
			}
			if q.Pot != stake*2 {
				t.Fatalf("stake=%d: pot %d != 2*stake", stake, q.Pot)
			}
			if q.Fee < 0 || q.Payout < 0 {
				t.Fatalf("stake=%d rate=%d: negative component in %+v", stake, rate, q)
			}
		}
	}
}

func TestQuoteFeesTruncatesTowardPlayer(t *testing.T) {
	// 2*3 = 6 at 1.5% → 0.09, truncates to 0: the platform absorbs the
	// remainder, the fee never exceeds the nominal rate
	q := QuoteFees(3, 150)
	if q.Fee != 0 {
		t.Fatalf("expected fee 0 got %d", q.Fee)
	}
	if q.Payout != 6 {
		t.Fatalf("expected payout 6 got %d", q.Payout)
	}
}
