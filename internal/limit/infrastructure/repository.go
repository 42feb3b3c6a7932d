package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mwangaza/sharewallet/internal/limit/domain"
	"github.com/mwangaza/sharewallet/pkg/db"
)

type DefinitionPO struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionType string          `gorm:"column:transaction_type;type:varchar(32);index:idx_def_key,unique;not null"`
	AccountType     string          `gorm:"column:account_type;type:varchar(20);index:idx_def_key,unique;not null"`
	Currency        string          `gorm:"column:currency;type:varchar(10);index:idx_def_key,unique"`
	MinAmount       decimal.Decimal `gorm:"column:min_amount;type:decimal(32,8);not null"`
	MaxAmount       decimal.Decimal `gorm:"column:max_amount;type:decimal(32,8);not null"`
	DailyCap        decimal.Decimal `gorm:"column:daily_cap;type:decimal(32,8);not null"`
	WeeklyCap       decimal.Decimal `gorm:"column:weekly_cap;type:decimal(32,8);not null"`
	MonthlyCap      decimal.Decimal `gorm:"column:monthly_cap;type:decimal(32,8);not null"`
	QuantityBased   bool            `gorm:"column:quantity_based;default:false"`
	DailyPercent    decimal.Decimal `gorm:"column:daily_percent;type:decimal(10,4);default:0"`
	IsActive        bool            `gorm:"column:is_active;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (DefinitionPO) TableName() string { return "limit_definitions" }

func toDefinitionPO(d *domain.Definition) *DefinitionPO {
	return &DefinitionPO{
		ID:              d.ID,
		TransactionType: d.TransactionType,
		AccountType:     string(d.AccountType),
		Currency:        d.Currency,
		MinAmount:       d.MinAmount,
		MaxAmount:       d.MaxAmount,
		DailyCap:        d.DailyCap,
		WeeklyCap:       d.WeeklyCap,
		MonthlyCap:      d.MonthlyCap,
		QuantityBased:   d.QuantityBased,
		DailyPercent:    d.DailyPercent,
		IsActive:        d.IsActive,
	}
}

func toDefinition(po *DefinitionPO) *domain.Definition {
	return &domain.Definition{
		ID:              po.ID,
		TransactionType: po.TransactionType,
		AccountType:     domain.AccountType(po.AccountType),
		Currency:        po.Currency,
		MinAmount:       po.MinAmount,
		MaxAmount:       po.MaxAmount,
		DailyCap:        po.DailyCap,
		WeeklyCap:       po.WeeklyCap,
		MonthlyCap:      po.MonthlyCap,
		QuantityBased:   po.QuantityBased,
		DailyPercent:    po.DailyPercent,
		IsActive:        po.IsActive,
	}
}

type GormDefinitionRepository struct {
	db *gorm.DB
}

func NewGormDefinitionRepository(gdb *gorm.DB) *GormDefinitionRepository {
	return &GormDefinitionRepository{db: gdb}
}

func (r *GormDefinitionRepository) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *GormDefinitionRepository) Find(ctx context.Context, transactionType string, accountType domain.AccountType, currency string) (*domain.Definition, error) {
	var po DefinitionPO
	err := r.conn(ctx).
		Where("transaction_type = ? AND account_type = ? AND currency = ? AND is_active = ?",
			transactionType, string(accountType), currency, true).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDefinition(&po), nil
}

func (r *GormDefinitionRepository) Save(ctx context.Context, def *domain.Definition) error {
	po := toDefinitionPO(def)
	if err := r.conn(ctx).Save(po).Error; err != nil {
		return err
	}
	def.ID = po.ID
	return nil
}

func (r *GormDefinitionRepository) List(ctx context.Context) ([]*domain.Definition, error) {
	var pos []*DefinitionPO
	err := r.conn(ctx).
		Order("transaction_type ASC, account_type ASC, currency ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	defs := make([]*domain.Definition, 0, len(pos))
	for _, po := range pos {
		defs = append(defs, toDefinition(po))
	}
	return defs, nil
}

// GormUsageReader 从 transactions 表聚合窗口用量。
// pending 和 completed 都计入：pending 行是窗口容量的预留。
type GormUsageReader struct {
	db *gorm.DB
}

func NewGormUsageReader(gdb *gorm.DB) *GormUsageReader {
	return &GormUsageReader{db: gdb}
}

func (r *GormUsageReader) SumWindow(ctx context.Context, userID, transactionType, currency string, from, to time.Time) (decimal.Decimal, error) {
	query := db.FromContext(ctx, r.db).WithContext(ctx).
		Table("transactions").
		Where("user_id = ? AND status IN ? AND created_at >= ? AND created_at <= ?",
			userID, []string{"pending", "completed"}, from, to)
	if transactionType != "" {
		query = query.Where("type = ?", transactionType)
	}
	if currency != "" {
		query = query.Where("currency = ?", currency)
	}

	var total decimal.Decimal
	row := query.Select("COALESCE(SUM(ABS(amount)), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

type ShareHoldingPO struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string          `gorm:"column:user_id;type:varchar(64);uniqueIndex;not null"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:decimal(32,8);default:0;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShareHoldingPO) TableName() string { return "share_holdings" }

// GormShareHoldingReader 读取用户当前持股数量，无记录视为 0。
type GormShareHoldingReader struct {
	db *gorm.DB
}

func NewGormShareHoldingReader(gdb *gorm.DB) *GormShareHoldingReader {
	return &GormShareHoldingReader{db: gdb}
}

func (r *GormShareHoldingReader) Holdings(ctx context.Context, userID string) (decimal.Decimal, error) {
	var po ShareHoldingPO
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return po.Quantity, nil
}
