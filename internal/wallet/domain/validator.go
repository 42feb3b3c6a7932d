package domain

import (
	"github.com/shopspring/decimal"
)

// OperationKind 资金流向
type OperationKind int

const (
	OpDebit OperationKind = iota
	OpCredit
)

// ValidateWallet 余额与状态校验。
// 借记操作要求余额覆盖 amount+fee；贷记（充值、兑换入账腿）跳过余额充足性检查。
func ValidateWallet(w *Wallet, amount, fee decimal.Decimal, kind OperationKind) error {
	if w == nil {
		return &NotFoundError{Entity: "wallet", Key: ""}
	}

	switch w.Status {
	case WalletStatusActive:
	case WalletStatusSuspended:
		return NewValidationError("wallet is suspended; transactions are not allowed")
	case WalletStatusClosed:
		return NewValidationError("wallet is closed; transactions are not allowed")
	default:
		return NewValidationError("wallet status %q does not allow transactions", w.Status)
	}

	if w.Balance.IsNegative() {
		return &FatalDataError{Reason: "wallet balance is inconsistent, please contact support"}
	}

	if kind == OpDebit {
		required := amount.Add(fee)
		if w.Balance.LessThan(required) {
			return NewValidationError(
				"insufficient balance: available %s %s, required %s (amount %s + fee %s)",
				w.Balance.String(), w.Currency, required.String(), amount.String(), fee.String(),
			)
		}
	}

	return nil
}
