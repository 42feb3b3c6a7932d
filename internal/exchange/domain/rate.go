package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	feedomain "github.com/mwangaza/sharewallet/internal/fee/domain"
)

// Rate 币种兑换汇率，按 (from_currency, to_currency) 取一条生效记录
type Rate struct {
	ID            uint64          `json:"id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	SpreadPercent decimal.Decimal `json:"spread_percent"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RateRepository 汇率仓储接口
type RateRepository interface {
	// GetActive 获取生效汇率，不存在时返回 nil
	GetActive(ctx context.Context, fromCurrency, toCurrency string) (*Rate, error)
	Save(ctx context.Context, rate *Rate) error
}

// Conversion 一次兑换的金额拆解
type Conversion struct {
	BaseConverted decimal.Decimal `json:"base_converted_amount"`
	SpreadAmount  decimal.Decimal `json:"spread_amount"`
	Converted     decimal.Decimal `json:"converted_amount"`
}

var hundred = decimal.NewFromInt(100)

// Convert 计算兑换拆解：
// baseConverted = amount × rate；spread = baseConverted × spread%/100；
// converted = baseConverted − spread，按目标币种最小单位舍入。
func (r *Rate) Convert(fromAmount decimal.Decimal) Conversion {
	base := fromAmount.Mul(r.Rate)
	spread := base.Mul(r.SpreadPercent).Div(hundred)
	converted := base.Sub(spread)

	exp := feedomain.MinorUnits(r.ToCurrency)
	return Conversion{
		BaseConverted: base.Round(exp),
		SpreadAmount:  spread.Round(exp),
		Converted:     converted.Round(exp),
	}
}
