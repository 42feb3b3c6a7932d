package domain

import (
	"github.com/shopspring/decimal"
)

// CheckResult is surfaced directly to the UI; Reason must stay user-displayable.
type CheckResult struct {
	Valid     bool            `json:"valid"`
	Reason    string          `json:"reason,omitempty"`
	Remaining decimal.Decimal `json:"remaining,omitempty"`
}

// CheckInput carries everything one validation needs. Amount is denominated
// in currency units, or in shares for quantity-based families, in which case
// OwnedShares and TotalHoldings must be supplied by the caller.
type CheckInput struct {
	Definition    Definition
	Usage         Usage
	Amount        decimal.Decimal
	OwnedShares   decimal.Decimal
	TotalHoldings decimal.Decimal
}

func pass() CheckResult {
	return CheckResult{Valid: true}
}

func reject(reason string) CheckResult {
	return CheckResult{Valid: false, Reason: reason}
}

func rejectRemaining(reason string, remaining decimal.Decimal) CheckResult {
	return CheckResult{Valid: false, Reason: reason, Remaining: remaining}
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Validate runs the ordered limit checks, stopping at the first failure.
func Validate(in CheckInput) CheckResult {
	def := in.Definition
	unit := "amount"
	if def.QuantityBased {
		unit = "quantity"
	}

	// 1. positive amount/quantity
	if !in.Amount.IsPositive() {
		return reject(unit + " must be greater than zero")
	}

	// 2. cannot dispose of more shares than owned
	if def.QuantityBased && isDisposal(def.TransactionType) {
		if in.Amount.GreaterThan(in.OwnedShares) {
			return reject("quantity cannot exceed your current holdings of " + in.OwnedShares.String() + " shares")
		}
	}

	// 3. configured [min, max]; buying tops up against shares already owned
	minAmount := def.MinAmount
	if def.TransactionType == "buy_shares" {
		minAmount = effectiveBuyMinimum(def.MinAmount, in.OwnedShares)
	}
	if in.Amount.LessThan(minAmount) {
		return reject("minimum " + unit + " is " + minAmount.String())
	}
	if def.MaxAmount.IsPositive() && in.Amount.GreaterThan(def.MaxAmount) {
		return reject("maximum " + unit + " is " + def.MaxAmount.String())
	}

	// 4-6. rolling windows; a zero cap disables that window
	if def.DailyCap.IsPositive() && in.Usage.Daily.Add(in.Amount).GreaterThan(def.DailyCap) {
		remaining := nonNegative(def.DailyCap.Sub(in.Usage.Daily))
		return rejectRemaining("daily limit exceeded: "+remaining.String()+" remaining today", remaining)
	}
	if def.WeeklyCap.IsPositive() && in.Usage.Weekly.Add(in.Amount).GreaterThan(def.WeeklyCap) {
		remaining := nonNegative(def.WeeklyCap.Sub(in.Usage.Weekly))
		return rejectRemaining("weekly limit exceeded: "+remaining.String()+" remaining this week", remaining)
	}
	if def.MonthlyCap.IsPositive() && in.Usage.Monthly.Add(in.Amount).GreaterThan(def.MonthlyCap) {
		remaining := nonNegative(def.MonthlyCap.Sub(in.Usage.Monthly))
		return rejectRemaining("monthly limit exceeded: "+remaining.String()+" remaining this month", remaining)
	}

	// 7. percentage-of-holdings cap
	if def.QuantityBased && def.DailyPercent.IsPositive() && in.TotalHoldings.IsPositive() {
		percent := in.Amount.Div(in.TotalHoldings).Mul(hundred)
		if percent.GreaterThan(def.DailyPercent) {
			return reject("quantity exceeds " + def.DailyPercent.String() + "% of your total holdings")
		}
	}

	return pass()
}

// effectiveBuyMinimum lets a partially filled booking top up without
// re-hitting the full configured minimum: max(1, configuredMin − owned).
func effectiveBuyMinimum(configuredMin, owned decimal.Decimal) decimal.Decimal {
	m := configuredMin.Sub(owned)
	if m.LessThan(one) {
		return one
	}
	return m
}

func isDisposal(transactionType string) bool {
	return transactionType == "sell_shares" || transactionType == "transfer_shares"
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
