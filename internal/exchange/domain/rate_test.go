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

// 10 USD at rate 3,800 with 1% spread: base 38,000, spread 380, net 37,620.
func TestConvertUSDToUGX(t *testing.T) {
	rate := &Rate{
		FromCurrency:  "USD",
		ToCurrency:    "UGX",
		Rate:          dec("3800"),
		SpreadPercent: dec("1"),
	}

	c := rate.Convert(dec("10"))
	if c.BaseConverted.String() != "38000" {
		t.Fatalf("expected base 38000, got %s", c.BaseConverted)
	}
	if c.SpreadAmount.String() != "380" {
		t.Fatalf("expected spread 380, got %s", c.SpreadAmount)
	}
	if c.Converted.String() != "37620" {
		t.Fatalf("expected converted 37620, got %s", c.Converted)
	}
}

func TestConvertZeroSpread(t *testing.T) {
	rate := &Rate{
		FromCurrency: "USD",
		ToCurrency:   "KES",
		Rate:         dec("130"),
	}

	c := rate.Convert(dec("25"))
	if c.SpreadAmount.String() != "0" {
		t.Fatalf("expected zero spread, got %s", c.SpreadAmount)
	}
	if c.Converted.String() != "3250" {
		t.Fatalf("expected converted 3250, got %s", c.Converted)
	}
}

func TestConvertRoundsToTargetMinorUnits(t *testing.T) {
	rate := &Rate{
		FromCurrency:  "USD",
		ToCurrency:    "UGX",
		Rate:          dec("3850.5"),
		SpreadPercent: dec("0.75"),
	}

	c := rate.Convert(dec("1.33"))
	if !c.Converted.Equal(c.Converted.Round(0)) {
		t.Fatalf("UGX conversion should carry no decimals, got %s", c.Converted)
	}
	if !c.SpreadAmount.Equal(c.SpreadAmount.Round(0)) {
		t.Fatalf("UGX spread should carry no decimals, got %s", c.SpreadAmount)
	}
}

func TestConvertSpreadNeverExceedsBase(t *testing.T) {
	rate := &Rate{
		FromCurrency:  "EUR",
		ToCurrency:    "USD",
		Rate:          dec("1.08"),
		SpreadPercent: dec("2.5"),
	}

	c := rate.Convert(dec("500"))
	if c.Converted.GreaterThan(c.BaseConverted) {
		t.Fatal("net converted amount must not exceed the base conversion")
	}
	if c.BaseConverted.Sub(c.SpreadAmount).Sub(c.Converted).Abs().GreaterThan(dec("0.01")) {
		t.Fatalf("breakdown should reconcile: base %s spread %s net %s",
			c.BaseConverted, c.SpreadAmount, c.Converted)
	}
}
