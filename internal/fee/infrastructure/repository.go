package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mwangaza/sharewallet/internal/fee/domain"
	"github.com/mwangaza/sharewallet/pkg/db"
)

type SchedulePO struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionType string          `gorm:"column:transaction_type;type:varchar(32);index:idx_fee_key,unique;not null"`
	Currency        string          `gorm:"column:currency;type:varchar(10);index:idx_fee_key,unique;not null"`
	PercentageFee   decimal.Decimal `gorm:"column:percentage_fee;type:decimal(10,4);default:0;not null"`
	FlatFee         decimal.Decimal `gorm:"column:flat_fee;type:decimal(32,8);default:0;not null"`
	MinimumFee      decimal.Decimal `gorm:"column:minimum_fee;type:decimal(32,8);default:0;not null"`
	MaximumFee      decimal.Decimal `gorm:"column:maximum_fee;type:decimal(32,8);default:0;not null"`
	IsActive        bool            `gorm:"column:is_active;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (SchedulePO) TableName() string { return "fee_schedules" }

func toSchedulePO(s *domain.Schedule) *SchedulePO {
	return &SchedulePO{
		ID:              s.ID,
		TransactionType: s.TransactionType,
		Currency:        s.Currency,
		PercentageFee:   s.PercentageFee,
		FlatFee:         s.FlatFee,
		MinimumFee:      s.MinimumFee,
		MaximumFee:      s.MaximumFee,
		IsActive:        s.IsActive,
	}
}

func toSchedule(po *SchedulePO) *domain.Schedule {
	return &domain.Schedule{
		ID:              po.ID,
		TransactionType: po.TransactionType,
		Currency:        po.Currency,
		PercentageFee:   po.PercentageFee,
		FlatFee:         po.FlatFee,
		MinimumFee:      po.MinimumFee,
		MaximumFee:      po.MaximumFee,
		IsActive:        po.IsActive,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
	}
}

type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(gdb *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: gdb}
}

func (r *GormScheduleRepository) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *GormScheduleRepository) GetActive(ctx context.Context, transactionType, currency string) (*domain.Schedule, error) {
	var po SchedulePO
	err := r.conn(ctx).
		Where("transaction_type = ? AND currency = ? AND is_active = ?", transactionType, currency, true).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toSchedule(&po), nil
}

func (r *GormScheduleRepository) Save(ctx context.Context, s *domain.Schedule) error {
	po := toSchedulePO(s)
	if err := r.conn(ctx).Save(po).Error; err != nil {
		return err
	}
	s.ID = po.ID
	return nil
}

func (r *GormScheduleRepository) List(ctx context.Context) ([]*domain.Schedule, error) {
	var pos []*SchedulePO
	err := r.conn(ctx).
		Order("transaction_type ASC, currency ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	schedules := make([]*domain.Schedule, 0, len(pos))
	for _, po := range pos {
		schedules = append(schedules, toSchedule(po))
	}
	return schedules, nil
}
