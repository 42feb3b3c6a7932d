package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefinitionRepository resolves configured limit definitions.
type DefinitionRepository interface {
	// Find returns the active definition for the exact (type, accountType,
	// currency) key, or nil when none is configured.
	Find(ctx context.Context, transactionType string, accountType AccountType, currency string) (*Definition, error)
	Save(ctx context.Context, def *Definition) error
	List(ctx context.Context) ([]*Definition, error)
}

// ShareHoldingReader reports a user's current share position.
type ShareHoldingReader interface {
	Holdings(ctx context.Context, userID string) (decimal.Decimal, error)
}

// Resolve picks the configured definition, falling back to the named
// default table. The bool reports whether the fallback was used.
func Resolve(ctx context.Context, repo DefinitionRepository, transactionType string, accountType AccountType, currency string) (Definition, bool, error) {
	def, err := repo.Find(ctx, transactionType, accountType, currency)
	if err != nil {
		return Definition{}, false, err
	}
	if def != nil {
		return *def, false, nil
	}

	fallback, ok := DefaultDefinition(transactionType)
	if !ok {
		// unknown family: conservative generic bounds rather than unlimited
		fallback = Definition{
			TransactionType: transactionType,
			MinAmount:       decimal.NewFromInt(1),
			MaxAmount:       decimal.NewFromInt(10_000),
			DailyCap:        decimal.NewFromInt(10_000),
			WeeklyCap:       decimal.NewFromInt(30_000),
			MonthlyCap:      decimal.NewFromInt(50_000),
		}
	}
	fallback.AccountType = accountType
	fallback.Currency = currency
	return fallback, true, nil
}
