package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mwangaza/sharewallet/internal/exchange/domain"
	"github.com/mwangaza/sharewallet/pkg/cache"
	"github.com/mwangaza/sharewallet/pkg/db"
	"github.com/mwangaza/sharewallet/pkg/logger"
)

type RatePO struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	FromCurrency  string          `gorm:"column:from_currency;type:varchar(10);index:idx_rate_pair,unique;not null"`
	ToCurrency    string          `gorm:"column:to_currency;type:varchar(10);index:idx_rate_pair,unique;not null"`
	Rate          decimal.Decimal `gorm:"column:rate;type:decimal(32,8);not null"`
	SpreadPercent decimal.Decimal `gorm:"column:spread_percent;type:decimal(10,4);default:0;not null"`
	IsActive      bool            `gorm:"column:is_active;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (RatePO) TableName() string { return "exchange_rates" }

func toRatePO(r *domain.Rate) *RatePO {
	return &RatePO{
		ID:            r.ID,
		FromCurrency:  r.FromCurrency,
		ToCurrency:    r.ToCurrency,
		Rate:          r.Rate,
		SpreadPercent: r.SpreadPercent,
		IsActive:      r.IsActive,
	}
}

func toRate(po *RatePO) *domain.Rate {
	return &domain.Rate{
		ID:            po.ID,
		FromCurrency:  po.FromCurrency,
		ToCurrency:    po.ToCurrency,
		Rate:          po.Rate,
		SpreadPercent: po.SpreadPercent,
		IsActive:      po.IsActive,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
	}
}

type GormRateRepository struct {
	db *gorm.DB
}

func NewGormRateRepository(gdb *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: gdb}
}

func (r *GormRateRepository) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *GormRateRepository) GetActive(ctx context.Context, fromCurrency, toCurrency string) (*domain.Rate, error) {
	var po RatePO
	err := r.conn(ctx).
		Where("from_currency = ? AND to_currency = ? AND is_active = ?", fromCurrency, toCurrency, true).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toRate(&po), nil
}

func (r *GormRateRepository) Save(ctx context.Context, rate *domain.Rate) error {
	po := toRatePO(rate)
	if err := r.conn(ctx).Save(po).Error; err != nil {
		return err
	}
	rate.ID = po.ID
	return nil
}

const rateCacheTTL = 30 * time.Second

// CachedRateRepository 给汇率查询加 Redis 短缓存。
// 缓存故障时降级直查数据库，只记日志不报错。
type CachedRateRepository struct {
	inner domain.RateRepository
	cache *cache.RedisCache
}

func NewCachedRateRepository(inner domain.RateRepository, rc *cache.RedisCache) *CachedRateRepository {
	return &CachedRateRepository{inner: inner, cache: rc}
}

func rateCacheKey(fromCurrency, toCurrency string) string {
	return fmt.Sprintf("exchange:rate:%s:%s", fromCurrency, toCurrency)
}

func (r *CachedRateRepository) GetActive(ctx context.Context, fromCurrency, toCurrency string) (*domain.Rate, error) {
	key := rateCacheKey(fromCurrency, toCurrency)

	var cached domain.Rate
	hit, err := r.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warn(ctx, "exchange rate cache read failed", "key", key, "error", err)
	} else if hit {
		return &cached, nil
	}

	rate, err := r.inner.GetActive(ctx, fromCurrency, toCurrency)
	if err != nil {
		return nil, err
	}
	if rate != nil {
		if err := r.cache.SetJSON(ctx, key, rate, rateCacheTTL); err != nil {
			logger.Warn(ctx, "exchange rate cache write failed", "key", key, "error", err)
		}
	}
	return rate, nil
}

func (r *CachedRateRepository) Save(ctx context.Context, rate *domain.Rate) error {
	if err := r.inner.Save(ctx, rate); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, rateCacheKey(rate.FromCurrency, rate.ToCurrency)); err != nil {
		logger.Warn(ctx, "exchange rate cache invalidation failed", "error", err)
	}
	return nil
}
