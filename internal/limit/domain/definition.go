package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType tiers drive which limit definition applies.
type AccountType string

const (
	AccountTypeBasic    AccountType = "basic"
	AccountTypePremium  AccountType = "premium"
	AccountTypeBusiness AccountType = "business"
)

// Definition configures min/max and rolling-window caps for one
// (transaction_type, account_type, currency) family. Quantity-based
// families (share trading) express every bound in share units.
type Definition struct {
	ID              uint64          `json:"id"`
	TransactionType string          `json:"transaction_type"`
	AccountType     AccountType     `json:"account_type"`
	Currency        string          `json:"currency"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	MaxAmount       decimal.Decimal `json:"max_amount"`
	DailyCap        decimal.Decimal `json:"daily_cap"`
	WeeklyCap       decimal.Decimal `json:"weekly_cap"`
	MonthlyCap      decimal.Decimal `json:"monthly_cap"`
	QuantityBased   bool            `json:"quantity_based"`
	// DailyPercent caps quantity as a percentage of total holdings; zero disables.
	DailyPercent decimal.Decimal `json:"daily_percent"`
	IsActive     bool            `json:"is_active"`
}

// defaultDefinitions is the named fallback table applied when no configured
// definition matches. Bounds are deliberately conservative; a missing
// configuration must never mean unlimited.
var defaultDefinitions = map[string]Definition{
	"deposit": {
		TransactionType: "deposit",
		MinAmount:       decimal.NewFromInt(1000),
		MaxAmount:       decimal.NewFromInt(10_000_000),
		DailyCap:        decimal.NewFromInt(20_000_000),
		WeeklyCap:       decimal.NewFromInt(50_000_000),
		MonthlyCap:      decimal.NewFromInt(100_000_000),
	},
	"withdraw": {
		TransactionType: "withdraw",
		MinAmount:       decimal.NewFromInt(1000),
		MaxAmount:       decimal.NewFromInt(5_000_000),
		DailyCap:        decimal.NewFromInt(10_000_000),
		WeeklyCap:       decimal.NewFromInt(30_000_000),
		MonthlyCap:      decimal.NewFromInt(60_000_000),
	},
	"transfer": {
		TransactionType: "transfer",
		MinAmount:       decimal.NewFromInt(500),
		MaxAmount:       decimal.NewFromInt(5_000_000),
		DailyCap:        decimal.NewFromInt(10_000_000),
		WeeklyCap:       decimal.NewFromInt(30_000_000),
		MonthlyCap:      decimal.NewFromInt(60_000_000),
	},
	"exchange": {
		TransactionType: "exchange",
		MinAmount:       decimal.NewFromInt(1000),
		MaxAmount:       decimal.NewFromInt(10_000_000),
		DailyCap:        decimal.NewFromInt(20_000_000),
		WeeklyCap:       decimal.NewFromInt(50_000_000),
		MonthlyCap:      decimal.NewFromInt(100_000_000),
	},
	"buy_shares": {
		TransactionType: "buy_shares",
		MinAmount:       decimal.NewFromInt(1),
		MaxAmount:       decimal.NewFromInt(10_000),
		DailyCap:        decimal.NewFromInt(10_000),
		WeeklyCap:       decimal.NewFromInt(30_000),
		MonthlyCap:      decimal.NewFromInt(50_000),
		QuantityBased:   true,
	},
	"sell_shares": {
		TransactionType: "sell_shares",
		MinAmount:       decimal.NewFromInt(1),
		MaxAmount:       decimal.NewFromInt(10_000),
		DailyCap:        decimal.NewFromInt(10_000),
		WeeklyCap:       decimal.NewFromInt(30_000),
		MonthlyCap:      decimal.NewFromInt(50_000),
		QuantityBased:   true,
		DailyPercent:    decimal.NewFromInt(25),
	},
	"transfer_shares": {
		TransactionType: "transfer_shares",
		MinAmount:       decimal.NewFromInt(1),
		MaxAmount:       decimal.NewFromInt(10_000),
		DailyCap:        decimal.NewFromInt(10_000),
		WeeklyCap:       decimal.NewFromInt(30_000),
		MonthlyCap:      decimal.NewFromInt(50_000),
		QuantityBased:   true,
		DailyPercent:    decimal.NewFromInt(25),
	},
}

// DefaultDefinition returns the fallback definition for a transaction family.
func DefaultDefinition(transactionType string) (Definition, bool) {
	def, ok := defaultDefinitions[transactionType]
	return def, ok
}

// ShareFamilies are the quantity-denominated transaction families.
func ShareFamilies() []string {
	return []string{"buy_shares", "sell_shares", "transfer_shares"}
}
