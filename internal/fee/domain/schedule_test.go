package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculatePercentagePlusFlat(t *testing.T) {
	s := &Schedule{
		TransactionType: "withdraw",
		Currency:        "UGX",
		PercentageFee:   dec("1"),
		FlatFee:         dec("2000"),
	}

	fee := s.Calculate(dec("80000"))
	if fee.String() != "2800" {
		t.Fatalf("expected fee 2800, got %s", fee)
	}
}

func TestCalculateMinimumClamp(t *testing.T) {
	s := &Schedule{
		Currency:      "UGX",
		PercentageFee: dec("1"),
		MinimumFee:    dec("500"),
	}

	fee := s.Calculate(dec("1000"))
	if fee.String() != "500" {
		t.Fatalf("expected minimum fee 500, got %s", fee)
	}
}

func TestCalculateMaximumClamp(t *testing.T) {
	s := &Schedule{
		Currency:      "UGX",
		PercentageFee: dec("2"),
		MaximumFee:    dec("10000"),
	}

	fee := s.Calculate(dec("5000000"))
	if fee.String() != "10000" {
		t.Fatalf("expected maximum fee 10000, got %s", fee)
	}
}

func TestCalculateZeroMaximumMeansUncapped(t *testing.T) {
	s := &Schedule{
		Currency:      "UGX",
		PercentageFee: dec("2"),
	}

	fee := s.Calculate(dec("5000000"))
	if fee.String() != "100000" {
		t.Fatalf("expected uncapped fee 100000, got %s", fee)
	}
}

func TestCalculateRoundsToMinorUnits(t *testing.T) {
	ugx := &Schedule{Currency: "UGX", PercentageFee: dec("0.333")}
	if got := ugx.Calculate(dec("1000")).String(); got != "3" {
		t.Fatalf("UGX fee should round to whole units, got %s", got)
	}

	usd := &Schedule{Currency: "USD", PercentageFee: dec("0.333")}
	if got := usd.Calculate(dec("1000")).String(); got != "3.33" {
		t.Fatalf("USD fee should round to cents, got %s", got)
	}
}

func TestCalculateHalfRoundsUp(t *testing.T) {
	s := &Schedule{Currency: "UGX", FlatFee: dec("10.5")}
	if got := s.Calculate(dec("100")).String(); got != "11" {
		t.Fatalf("expected half-up rounding to 11, got %s", got)
	}
}

func TestCalculateMonotonicInAmount(t *testing.T) {
	s := &Schedule{
		Currency:      "UGX",
		PercentageFee: dec("1.5"),
		FlatFee:       dec("100"),
		MinimumFee:    dec("200"),
		MaximumFee:    dec("50000"),
	}

	prev := decimal.Zero
	for _, amount := range []string{"100", "1000", "50000", "200000", "1000000", "10000000"} {
		fee := s.Calculate(dec(amount))
		if fee.LessThan(prev) {
			t.Fatalf("fee decreased from %s to %s at amount %s", prev, fee, amount)
		}
		prev = fee
	}
}

func TestMinorUnits(t *testing.T) {
	cases := map[string]int32{
		"UGX": 0,
		"JPY": 0,
		"KRW": 0,
		"USD": 2,
		"KES": 2,
	}
	for currency, want := range cases {
		if got := MinorUnits(currency); got != want {
			t.Errorf("MinorUnits(%s) = %d, want %d", currency, got, want)
		}
	}
}
