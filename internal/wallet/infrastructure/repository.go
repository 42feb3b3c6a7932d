package infrastructure

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/db"
)

// GormWalletRepository 钱包仓储的 GORM 实现
type GormWalletRepository struct {
	db *gorm.DB
}

func NewGormWalletRepository(gdb *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: gdb}
}

func (r *GormWalletRepository) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *GormWalletRepository) Save(ctx context.Context, wallet *domain.Wallet) error {
	return r.conn(ctx).Save(wallet).Error
}

func (r *GormWalletRepository) Get(ctx context.Context, walletID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.conn(ctx).Where("wallet_id = ?", walletID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *GormWalletRepository) GetForUpdate(ctx context.Context, walletID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wallet_id = ?", walletID).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *GormWalletRepository) GetByUserAndCurrency(ctx context.Context, userID, currency string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.conn(ctx).Where("user_id = ? AND currency = ?", userID, currency).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *GormWalletRepository) GetByUserAndCurrencyForUpdate(ctx context.Context, userID, currency string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *GormWalletRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	var wallets []*domain.Wallet
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("currency ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

// UpdateBalance 余额 compare-and-set：expected 与当前余额不一致时零行命中，
// 说明有并发变更，返回 ConcurrencyError 由调用方回滚。
func (r *GormWalletRepository) UpdateBalance(ctx context.Context, walletID string, expected, next decimal.Decimal) error {
	result := r.conn(ctx).
		Model(&domain.Wallet{}).
		Where("wallet_id = ? AND balance = ?", walletID, expected).
		Update("balance", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &domain.ConcurrencyError{Reason: "wallet balance changed concurrently, please retry"}
	}
	return nil
}

// GormTransactionRepository 交易记录仓储的 GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(gdb *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: gdb}
}

func (r *GormTransactionRepository) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *GormTransactionRepository) Save(ctx context.Context, transaction *domain.Transaction) error {
	return r.conn(ctx).Save(transaction).Error
}

func (r *GormTransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	err := r.conn(ctx).Where("reference = ?", reference).First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *GormTransactionRepository) ListByWallet(ctx context.Context, walletID string, page, pageSize int) ([]*domain.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.conn(ctx).Model(&domain.Transaction{}).Where("wallet_id = ?", walletID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []*domain.Transaction
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// Settle 只允许 pending 行迁移到终态，重复回调零行命中时不报错。
func (r *GormTransactionRepository) Settle(ctx context.Context, reference string, status domain.TransactionStatus, approval domain.ApprovalStatus) error {
	return r.conn(ctx).
		Model(&domain.Transaction{}).
		Where("reference = ? AND status = ?", reference, domain.StatusPending).
		Updates(map[string]any{
			"status":          status,
			"approval_status": approval,
		}).Error
}
