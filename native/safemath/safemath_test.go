package safemath

import (
	"errors"
	"math"
	"testing"
)

func TestAddDetectsOverflow(t *testing.T) {
	if sum, err := Add(1, 2); err != nil || sum != 3 {
		t.Fatalf("expected 3, got %d err %v", sum, err)
	}
	if _, err := Add(math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if sum, err := Add(math.MaxUint64, 0); err != nil || sum != math.MaxUint64 {
		t.Fatalf("max+0 should succeed, got %d err %v", sum, err)
	}
}

func TestSubDetectsUnderflow(t *testing.T) {
	if diff, err := Sub(5, 3); err != nil || diff != 2 {
		t.Fatalf("expected 2, got %d err %v", diff, err)
	}
	if _, err := Sub(3, 5); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected underflow error, got %v", err)
	}
}

func TestMulDetectsOverflow(t *testing.T) {
	if product, err := Mul(1_000_000, 1_000_000); err != nil || product != 1_000_000_000_000 {
		t.Fatalf("expected 1e12, got %d err %v", product, err)
	}
	if product, err := Mul(0, math.MaxUint64); err != nil || product != 0 {
		t.Fatalf("zero factor should short-circuit, got %d err %v", product, err)
	}
	if _, err := Mul(math.MaxUint64, 2); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestFeeAmount(t *testing.T) {
	cases := []struct {
		amount uint64
		feeBps uint32
		want   uint64
	}{
		{2_000_000_000, 1000, 200_000_000},
		{1_000_000_000, 500, 50_000_000},
		{9999, 1, 0},
		{0, 1000, 0},
		// The widened intermediate must survive amounts whose raw
		// amount*feeBps product would wrap uint64.
		{math.MaxUint64, 1000, math.MaxUint64 / 10},
	}
	for _, tc := range cases {
		fee, err := FeeAmount(tc.amount, tc.feeBps)
		if err != nil {
			t.Fatalf("FeeAmount(%d, %d): %v", tc.amount, tc.feeBps, err)
		}
		if fee != tc.want {
			t.Fatalf("FeeAmount(%d, %d) = %d, want %d", tc.amount, tc.feeBps, fee, tc.want)
		}
	}
	if _, err := FeeAmount(100, 10_001); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow for out-of-range bps, got %v", err)
	}
}

func TestAmountAfterFee(t *testing.T) {
	payout, err := AmountAfterFee(2_000_000_000, 1000)
	if err != nil {
		t.Fatalf("AmountAfterFee: %v", err)
	}
	if payout != 1_800_000_000 {
		t.Fatalf("expected 1800000000, got %d", payout)
	}
	if _, err := AmountAfterFee(100, 10_001); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected underflow on bps > denominator, got %v", err)
	}
	full, err := AmountAfterFee(12345, 0)
	if err != nil || full != 12345 {
		t.Fatalf("zero fee should return full amount, got %d err %v", full, err)
	}
}

func TestProportionalShare(t *testing.T) {
	share, err := ProportionalShare(10_000_000, 95_000_000, 50_000_000)
	if err != nil {
		t.Fatalf("ProportionalShare: %v", err)
	}
	if share != 19_000_000 {
		t.Fatalf("expected 19000000, got %d", share)
	}

	if _, err := ProportionalShare(1, 1, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}

	// stake == winningPool degenerates to the whole pool.
	share, err = ProportionalShare(50, 1000, 50)
	if err != nil || share != 1000 {
		t.Fatalf("expected 1000, got %d err %v", share, err)
	}

	// Result wider than uint64 must fail rather than truncate.
	if _, err := ProportionalShare(math.MaxUint64, math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow on widened result, got %v", err)
	}
}

func TestShareFloorsTowardsZero(t *testing.T) {
	// 3 * 10 / 7 = 4.28..., payouts always round down.
	share, err := ProportionalShare(3, 10, 7)
	if err != nil || share != 4 {
		t.Fatalf("expected 4, got %d err %v", share, err)
	}
}
