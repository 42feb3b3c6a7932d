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

func moneyDef() Definition {
	return Definition{
		TransactionType: "withdraw",
		MinAmount:       dec("1000"),
		MaxAmount:       dec("5000000"),
		DailyCap:        dec("10000000"),
		WeeklyCap:       dec("30000000"),
		MonthlyCap:      dec("60000000"),
	}
}

func TestValidateRejectsNonPositive(t *testing.T) {
	for _, amount := range []string{"0", "-100"} {
		res := Validate(CheckInput{Definition: moneyDef(), Amount: dec(amount)})
		if res.Valid {
			t.Fatalf("amount %s should be rejected", amount)
		}
	}
}

func TestValidateMinMaxBounds(t *testing.T) {
	def := moneyDef()

	if res := Validate(CheckInput{Definition: def, Amount: dec("999")}); res.Valid {
		t.Fatal("amount below minimum should be rejected")
	}
	if res := Validate(CheckInput{Definition: def, Amount: dec("1000")}); !res.Valid {
		t.Fatalf("amount at minimum should pass: %s", res.Reason)
	}
	if res := Validate(CheckInput{Definition: def, Amount: dec("5000000")}); !res.Valid {
		t.Fatalf("amount at maximum should pass: %s", res.Reason)
	}
	if res := Validate(CheckInput{Definition: def, Amount: dec("5000001")}); res.Valid {
		t.Fatal("amount above maximum should be rejected")
	}
}

// Boundary: usage U with cap L admits exactly L-U and nothing more.
func TestValidateDailyCapBoundary(t *testing.T) {
	def := moneyDef()
	usage := Usage{Daily: dec("9900000")}

	res := Validate(CheckInput{Definition: def, Usage: usage, Amount: dec("100000")})
	if !res.Valid {
		t.Fatalf("exactly remaining capacity should pass: %s", res.Reason)
	}

	res = Validate(CheckInput{Definition: def, Usage: usage, Amount: dec("100001")})
	if res.Valid {
		t.Fatal("one over remaining capacity should be rejected")
	}
	if res.Remaining.String() != "100000" {
		t.Fatalf("expected remaining 100000, got %s", res.Remaining)
	}
}

func TestValidateWeeklyAndMonthlyCaps(t *testing.T) {
	def := moneyDef()

	res := Validate(CheckInput{
		Definition: def,
		Usage:      Usage{Weekly: dec("29000000")},
		Amount:     dec("2000000"),
	})
	if res.Valid {
		t.Fatal("weekly overflow should be rejected")
	}

	res = Validate(CheckInput{
		Definition: def,
		Usage:      Usage{Monthly: dec("59500000")},
		Amount:     dec("1000000"),
	})
	if res.Valid {
		t.Fatal("monthly overflow should be rejected")
	}
}

func TestValidateZeroCapDisablesWindow(t *testing.T) {
	def := moneyDef()
	def.DailyCap = decimal.Zero

	res := Validate(CheckInput{
		Definition: def,
		Usage:      Usage{Daily: dec("999999999")},
		Amount:     dec("1000000"),
	})
	if !res.Valid {
		t.Fatalf("zero daily cap should disable the window: %s", res.Reason)
	}
}

func shareDef(transactionType string) Definition {
	return Definition{
		TransactionType: transactionType,
		MinAmount:       dec("5"),
		MaxAmount:       dec("10000"),
		DailyCap:        dec("10000"),
		QuantityBased:   true,
	}
}

func TestValidateDisposalCappedByHoldings(t *testing.T) {
	def := shareDef("sell_shares")

	res := Validate(CheckInput{
		Definition:  def,
		Amount:      dec("50"),
		OwnedShares: dec("40"),
	})
	if res.Valid {
		t.Fatal("selling more shares than owned should be rejected")
	}

	res = Validate(CheckInput{
		Definition:    def,
		Amount:        dec("40"),
		OwnedShares:   dec("40"),
		TotalHoldings: dec("40"),
	})
	if !res.Valid {
		t.Fatalf("selling exactly what is owned should pass: %s", res.Reason)
	}
}

// Buying tops up against shares already owned: with min 5 and 3 owned,
// buying 2 completes the minimum position.
func TestValidateEffectiveBuyMinimum(t *testing.T) {
	def := shareDef("buy_shares")

	res := Validate(CheckInput{
		Definition:  def,
		Amount:      dec("2"),
		OwnedShares: dec("3"),
	})
	if !res.Valid {
		t.Fatalf("top-up to minimum should pass: %s", res.Reason)
	}

	res = Validate(CheckInput{
		Definition:  def,
		Amount:      dec("1"),
		OwnedShares: dec("3"),
	})
	if res.Valid {
		t.Fatal("buy below effective minimum should be rejected")
	}

	// fully covered minimum still requires at least one share
	res = Validate(CheckInput{
		Definition:  def,
		Amount:      dec("1"),
		OwnedShares: dec("100"),
	})
	if !res.Valid {
		t.Fatalf("single-share top-up should pass once minimum is met: %s", res.Reason)
	}
}

func TestValidatePercentOfHoldings(t *testing.T) {
	def := shareDef("sell_shares")
	def.DailyPercent = dec("25")

	res := Validate(CheckInput{
		Definition:    def,
		Amount:        dec("25"),
		OwnedShares:   dec("100"),
		TotalHoldings: dec("100"),
	})
	if !res.Valid {
		t.Fatalf("exactly 25%% of holdings should pass: %s", res.Reason)
	}

	res = Validate(CheckInput{
		Definition:    def,
		Amount:        dec("26"),
		OwnedShares:   dec("100"),
		TotalHoldings: dec("100"),
	})
	if res.Valid {
		t.Fatal("over 25% of holdings should be rejected")
	}
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	def, ok := DefaultDefinition("withdraw")
	if !ok {
		t.Fatal("withdraw should have a default definition")
	}
	if !def.MaxAmount.IsPositive() || !def.DailyCap.IsPositive() {
		t.Fatal("defaults must carry positive bounds, never unlimited")
	}

	for _, family := range ShareFamilies() {
		def, ok := DefaultDefinition(family)
		if !ok {
			t.Fatalf("share family %s should have a default definition", family)
		}
		if !def.QuantityBased {
			t.Fatalf("share family %s default should be quantity based", family)
		}
	}
}
