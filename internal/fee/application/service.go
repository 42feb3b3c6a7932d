// 包 手续费报价的用例逻辑
package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mwangaza/sharewallet/internal/fee/domain"
	walletdomain "github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/logger"
)

// QuoteResponse 手续费报价 DTO
type QuoteResponse struct {
	TransactionType string `json:"transactionType"`
	Currency        string `json:"currency"`
	Amount          string `json:"amount"`
	FeeAmount       string `json:"feeAmount"`
	TotalAmount     string `json:"totalAmount"`
	// ScheduleFound 为 false 表示无生效费率表，按零费报价
	ScheduleFound bool `json:"scheduleFound"`
}

// FeeService 手续费报价服务
type FeeService struct {
	scheduleRepo domain.ScheduleRepository
}

func NewFeeService(scheduleRepo domain.ScheduleRepository) *FeeService {
	return &FeeService{scheduleRepo: scheduleRepo}
}

// Quote 报价；无生效费率表时零费放行并告警，与下单时行为一致
func (s *FeeService) Quote(ctx context.Context, transactionType, currency string, amount decimal.Decimal) (*QuoteResponse, error) {
	if transactionType == "" || currency == "" {
		return nil, walletdomain.NewValidationError("transactionType and currency are required")
	}
	if !amount.IsPositive() {
		return nil, walletdomain.NewValidationError("amount must be greater than zero")
	}

	schedule, err := s.scheduleRepo.GetActive(ctx, transactionType, currency)
	if err != nil {
		return nil, err
	}

	fee := decimal.Zero
	found := schedule != nil
	if found {
		fee = schedule.Calculate(amount)
	} else {
		logger.Warn(ctx, "No active fee schedule, quoting zero fee",
			"type", transactionType, "currency", currency)
	}

	return &QuoteResponse{
		TransactionType: transactionType,
		Currency:        currency,
		Amount:          amount.String(),
		FeeAmount:       fee.String(),
		TotalAmount:     amount.Add(fee).String(),
		ScheduleFound:   found,
	}, nil
}

// Schedules 列出全部费率表
func (s *FeeService) Schedules(ctx context.Context) ([]*domain.Schedule, error) {
	return s.scheduleRepo.List(ctx)
}
