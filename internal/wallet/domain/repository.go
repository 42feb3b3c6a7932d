package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// WalletRepository 钱包仓储接口
type WalletRepository interface {
	// Save 保存钱包
	Save(ctx context.Context, wallet *Wallet) error
	// Get 根据钱包 ID 获取钱包
	Get(ctx context.Context, walletID string) (*Wallet, error)
	// GetForUpdate 带行锁获取钱包，必须在事务内调用
	GetForUpdate(ctx context.Context, walletID string) (*Wallet, error)
	// GetByUserAndCurrency 获取用户在某币种下的钱包
	GetByUserAndCurrency(ctx context.Context, userID, currency string) (*Wallet, error)
	// GetByUserAndCurrencyForUpdate 带行锁获取用户币种钱包，必须在事务内调用
	GetByUserAndCurrencyForUpdate(ctx context.Context, userID, currency string) (*Wallet, error)
	// ListByUser 获取用户的全部钱包
	ListByUser(ctx context.Context, userID string) ([]*Wallet, error)
	// UpdateBalance 余额的 compare-and-set 更新；expected 不匹配时返回 ConcurrencyError
	UpdateBalance(ctx context.Context, walletID string, expected, next decimal.Decimal) error
}

// TransactionRepository 交易记录仓储接口
type TransactionRepository interface {
	// Save 保存交易记录
	Save(ctx context.Context, transaction *Transaction) error
	// GetByReference 按引用号获取交易
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	// ListByWallet 获取钱包交易历史分页列表
	ListByWallet(ctx context.Context, walletID string, page, pageSize int) ([]*Transaction, int64, error)
	// Settle 由外部结算回调将 pending 交易置为 completed/failed
	Settle(ctx context.Context, reference string, status TransactionStatus, approval ApprovalStatus) error
}
