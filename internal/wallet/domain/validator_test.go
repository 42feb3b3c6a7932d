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

func activeWallet(balance string) *Wallet {
	return &Wallet{
		WalletID: "WAL-1",
		UserID:   "user-1",
		Currency: "UGX",
		Balance:  dec(balance),
		Status:   WalletStatusActive,
	}
}

func TestValidateWalletNil(t *testing.T) {
	err := ValidateWallet(nil, dec("100"), decimal.Zero, OpDebit)
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestValidateWalletStatuses(t *testing.T) {
	w := activeWallet("100000")

	w.Status = WalletStatusSuspended
	if err := ValidateWallet(w, dec("100"), decimal.Zero, OpDebit); !IsValidation(err) {
		t.Fatalf("suspended wallet should fail validation, got %v", err)
	}

	w.Status = WalletStatusClosed
	if err := ValidateWallet(w, dec("100"), decimal.Zero, OpCredit); !IsValidation(err) {
		t.Fatalf("closed wallet should fail validation even for credits, got %v", err)
	}
}

// 80,000 at 1% + 2,000 flat needs 82,800 available.
func TestValidateWalletSufficiency(t *testing.T) {
	amount, fee := dec("80000"), dec("2800")

	if err := ValidateWallet(activeWallet("82800"), amount, fee, OpDebit); err != nil {
		t.Fatalf("exact cover should pass, got %v", err)
	}
	if err := ValidateWallet(activeWallet("82799"), amount, fee, OpDebit); !IsValidation(err) {
		t.Fatalf("one short of amount+fee should fail, got %v", err)
	}
}

func TestValidateWalletCreditSkipsSufficiency(t *testing.T) {
	if err := ValidateWallet(activeWallet("0"), dec("80000"), dec("2800"), OpCredit); err != nil {
		t.Fatalf("credits should skip the sufficiency check, got %v", err)
	}
}

func TestValidateWalletNegativeBalanceIsFatal(t *testing.T) {
	err := ValidateWallet(activeWallet("-1"), dec("100"), decimal.Zero, OpDebit)
	if !IsFatalData(err) {
		t.Fatalf("negative balance should be a fatal data error, got %v", err)
	}
	// a credit must not silently repair corrupted state either
	err = ValidateWallet(activeWallet("-1"), dec("100"), decimal.Zero, OpCredit)
	if !IsFatalData(err) {
		t.Fatalf("negative balance should be fatal for credits too, got %v", err)
	}
}
