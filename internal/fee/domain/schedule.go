package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Schedule 手续费率表，按 (transaction_type, currency) 取费
type Schedule struct {
	ID              uint64          `json:"id"`
	TransactionType string          `json:"transaction_type"`
	Currency        string          `json:"currency"`
	PercentageFee   decimal.Decimal `json:"percentage_fee"`
	FlatFee         decimal.Decimal `json:"flat_fee"`
	MinimumFee      decimal.Decimal `json:"minimum_fee"`
	MaximumFee      decimal.Decimal `json:"maximum_fee"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ScheduleRepository 仓储接口
type ScheduleRepository interface {
	GetActive(ctx context.Context, transactionType, currency string) (*Schedule, error)
	Save(ctx context.Context, s *Schedule) error
	List(ctx context.Context) ([]*Schedule, error)
}

var hundred = decimal.NewFromInt(100)

// minorUnits 币种最小货币单位的小数位数
var minorUnits = map[string]int32{
	"UGX": 0,
	"JPY": 0,
	"KRW": 0,
}

// MinorUnits 返回币种的小数位数，未登记的币种按 2 处理
func MinorUnits(currency string) int32 {
	if exp, ok := minorUnits[currency]; ok {
		return exp
	}
	return 2
}

// Calculate 计算手续费：amount × percentage/100 + flat，
// 夹在 [minimum_fee, maximum_fee] 区间内（maximum 为 0 时不设上限），
// 最后按币种最小单位四舍五入（round half-up）。
func (s *Schedule) Calculate(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(s.PercentageFee).Div(hundred).Add(s.FlatFee)
	if s.MinimumFee.IsPositive() && fee.LessThan(s.MinimumFee) {
		fee = s.MinimumFee
	}
	if s.MaximumFee.IsPositive() && fee.GreaterThan(s.MaximumFee) {
		fee = s.MaximumFee
	}
	return fee.Round(MinorUnits(s.Currency))
}
