// 包 币种兑换的用例逻辑
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	auditdomain "github.com/mwangaza/sharewallet/internal/audit/domain"
	"github.com/mwangaza/sharewallet/internal/exchange/domain"
	feedomain "github.com/mwangaza/sharewallet/internal/fee/domain"
	limitdomain "github.com/mwangaza/sharewallet/internal/limit/domain"
	profiledomain "github.com/mwangaza/sharewallet/internal/profile/domain"
	walletdomain "github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/db"
	"github.com/mwangaza/sharewallet/pkg/logger"
	"github.com/mwangaza/sharewallet/pkg/metrics"
)

// ExchangeRequest 兑换请求 DTO
type ExchangeRequest struct {
	UserID       string          // 用户 ID（来自 token）
	FromCurrency string          // 源币种
	ToCurrency   string          // 目标币种
	Amount       decimal.Decimal // 源币种金额
}

// ExchangeResult 兑换结果 DTO，字段名是下游消费的稳定契约
type ExchangeResult struct {
	DebitID         string `json:"debit_id,omitempty"`
	CreditID        string `json:"credit_id,omitempty"`
	Reference       string `json:"reference,omitempty"`
	FromCurrency    string `json:"from_currency"`
	ToCurrency      string `json:"to_currency"`
	Amount          string `json:"amount"`
	Rate            string `json:"exchange_rate"`
	SpreadPercent   string `json:"spread_percentage"`
	BaseConverted   string `json:"base_converted_amount"`
	SpreadAmount    string `json:"spread_amount"`
	ConvertedAmount string `json:"converted_amount"`
	FeeAmount       string `json:"fee_amount"`
	TotalDeducted   string `json:"total_deducted"`
	Status          string `json:"status,omitempty"`
}

// ExchangeService 币种兑换编排服务
// 两腿在同一事务内写入：借记腿扣源钱包，贷记腿入目标钱包，
// 任何一步失败则整体回滚，不存在只扣不入的中间态。
type ExchangeService struct {
	rateRepo       domain.RateRepository
	walletRepo     walletdomain.WalletRepository
	txRepo         walletdomain.TransactionRepository
	scheduleRepo   feedomain.ScheduleRepository
	definitionRepo limitdomain.DefinitionRepository
	usageTracker   *limitdomain.UsageTracker
	profileRepo    profiledomain.ProfileRepository
	auditRecorder  auditdomain.Recorder
	txManager      db.TxManager
	metrics        *metrics.Metrics
	// 全站单用户单日总额上限，按源腿金额跨交易类型合计
	systemDailyCap decimal.Decimal
	now            func() time.Time
}

// NewExchangeService 创建兑换编排服务
func NewExchangeService(
	rateRepo domain.RateRepository,
	walletRepo walletdomain.WalletRepository,
	txRepo walletdomain.TransactionRepository,
	scheduleRepo feedomain.ScheduleRepository,
	definitionRepo limitdomain.DefinitionRepository,
	usageReader limitdomain.UsageReader,
	profileRepo profiledomain.ProfileRepository,
	auditRecorder auditdomain.Recorder,
	txManager db.TxManager,
	m *metrics.Metrics,
	systemDailyCap decimal.Decimal,
) *ExchangeService {
	return &ExchangeService{
		rateRepo:       rateRepo,
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		scheduleRepo:   scheduleRepo,
		definitionRepo: definitionRepo,
		usageTracker:   limitdomain.NewUsageTracker(usageReader),
		profileRepo:    profileRepo,
		auditRecorder:  auditRecorder,
		txManager:      txManager,
		metrics:        m,
		systemDailyCap: systemDailyCap,
		now:            time.Now,
	}
}

// Quote 查询兑换报价，不落库
func (s *ExchangeService) Quote(ctx context.Context, fromCurrency, toCurrency string, amount decimal.Decimal) (*ExchangeResult, error) {
	if !amount.IsPositive() {
		return nil, walletdomain.NewValidationError("amount must be greater than zero")
	}
	rate, err := s.rateRepo.GetActive(ctx, fromCurrency, toCurrency)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, &walletdomain.NotFoundError{Entity: "exchange rate", Key: fromCurrency + "/" + toCurrency}
	}

	conversion := rate.Convert(amount)
	fee, err := s.calculateFee(ctx, fromCurrency, amount)
	if err != nil {
		return nil, err
	}

	return &ExchangeResult{
		FromCurrency:    fromCurrency,
		ToCurrency:      toCurrency,
		Amount:          amount.String(),
		Rate:            rate.Rate.String(),
		SpreadPercent:   rate.SpreadPercent.String(),
		BaseConverted:   conversion.BaseConverted.String(),
		SpreadAmount:    conversion.SpreadAmount.String(),
		ConvertedAmount: conversion.Converted.String(),
		FeeAmount:       fee.String(),
		TotalDeducted:   amount.Add(fee).String(),
	}, nil
}

// Exchange 执行币种兑换
// 用例流程：
// 1. 档案准入检查
// 2. 取生效汇率
// 3. 事务内按固定顺序行锁两个钱包（按币种排序，避免交叉死锁）
// 4. 手续费按源币种计；余额须覆盖 amount+fee
// 5. 限额校验（exchange 族，按源币种金额）
// 6. CAS 扣源钱包、入目标钱包，写两条 completed 交易腿与审计记录
func (s *ExchangeService) Exchange(ctx context.Context, req *ExchangeRequest) (*ExchangeResult, error) {
	if err := validateExchangeRequest(req); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &walletdomain.NotFoundError{Entity: "profile", Key: req.UserID}
	}
	if !profile.CanTransact() {
		s.metrics.ValidationFailures.WithLabelValues("profile").Inc()
		return nil, walletdomain.NewValidationError("account is restricted; transactions are not allowed")
	}

	rate, err := s.rateRepo.GetActive(ctx, req.FromCurrency, req.ToCurrency)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, &walletdomain.NotFoundError{Entity: "exchange rate", Key: req.FromCurrency + "/" + req.ToCurrency}
	}

	var result *ExchangeResult
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		source, target, err := s.lockWallets(ctx, req)
		if err != nil {
			return err
		}

		fee, err := s.calculateFee(ctx, req.FromCurrency, req.Amount)
		if err != nil {
			return err
		}

		if err := walletdomain.ValidateWallet(source, req.Amount, fee, walletdomain.OpDebit); err != nil {
			s.metrics.ValidationFailures.WithLabelValues("wallet").Inc()
			return err
		}
		if err := walletdomain.ValidateWallet(target, decimal.Zero, decimal.Zero, walletdomain.OpCredit); err != nil {
			s.metrics.ValidationFailures.WithLabelValues("wallet").Inc()
			return err
		}

		if err := s.checkLimits(ctx, profile, req); err != nil {
			return err
		}

		conversion := rate.Convert(req.Amount)
		now := s.now()
		reference := walletdomain.NewReference(walletdomain.TypeExchange, req.UserID, now)
		totalDeducted := req.Amount.Add(fee)

		// 借记腿：源钱包扣 amount+fee
		if err := s.walletRepo.UpdateBalance(ctx, source.WalletID, source.Balance, source.Balance.Sub(totalDeducted)); err != nil {
			return err
		}
		// 贷记腿：目标钱包入净额
		if err := s.walletRepo.UpdateBalance(ctx, target.WalletID, target.Balance, target.Balance.Add(conversion.Converted)); err != nil {
			return err
		}

		debitLeg := &walletdomain.Transaction{
			Reference:      reference,
			WalletID:       source.WalletID,
			UserID:         req.UserID,
			Type:           walletdomain.TypeExchange,
			Amount:         req.Amount.Neg(),
			Currency:       req.FromCurrency,
			FeeAmount:      fee,
			Status:         walletdomain.StatusCompleted,
			ApprovalStatus: walletdomain.ApprovalApproved,
			Description:    fmt.Sprintf("exchange %s to %s at rate %s", req.FromCurrency, req.ToCurrency, rate.Rate),
		}
		if err := s.txRepo.Save(ctx, debitLeg); err != nil {
			return err
		}

		creditLeg := &walletdomain.Transaction{
			Reference:      reference + "-CR",
			WalletID:       target.WalletID,
			UserID:         req.UserID,
			Type:           walletdomain.TypeExchange,
			Amount:         conversion.Converted,
			Currency:       req.ToCurrency,
			FeeAmount:      decimal.Zero,
			Status:         walletdomain.StatusCompleted,
			ApprovalStatus: walletdomain.ApprovalApproved,
			Description:    fmt.Sprintf("exchange %s to %s at rate %s", req.FromCurrency, req.ToCurrency, rate.Rate),
		}
		if err := s.txRepo.Save(ctx, creditLeg); err != nil {
			return err
		}

		entry := &auditdomain.Entry{
			UserID:    req.UserID,
			Action:    auditdomain.ActionExchangeCompleted,
			Reference: reference,
			Detail: fmt.Sprintf("from=%s %s to=%s %s rate=%s spread=%s fee=%s",
				req.Amount, req.FromCurrency, conversion.Converted, req.ToCurrency,
				rate.Rate, conversion.SpreadAmount, fee),
		}
		if err := s.auditRecorder.Record(ctx, entry); err != nil {
			return err
		}

		result = &ExchangeResult{
			DebitID:         debitLeg.Reference,
			CreditID:        creditLeg.Reference,
			Reference:       reference,
			FromCurrency:    req.FromCurrency,
			ToCurrency:      req.ToCurrency,
			Amount:          req.Amount.String(),
			Rate:            rate.Rate.String(),
			SpreadPercent:   rate.SpreadPercent.String(),
			BaseConverted:   conversion.BaseConverted.String(),
			SpreadAmount:    conversion.SpreadAmount.String(),
			ConvertedAmount: conversion.Converted.String(),
			FeeAmount:       fee.String(),
			TotalDeducted:   totalDeducted.String(),
			Status:          string(walletdomain.StatusCompleted),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ExchangesTotal.Inc()
	s.metrics.TransactionsTotal.WithLabelValues(string(walletdomain.TypeExchange)).Inc()

	logger.Info(ctx, "Exchange executed",
		"reference", result.Reference,
		"from", req.FromCurrency, "to", req.ToCurrency,
		"amount", result.Amount, "converted", result.ConvertedAmount,
	)

	return result, nil
}

// lockWallets 按币种字典序加锁，保证并发兑换的加锁顺序一致
func (s *ExchangeService) lockWallets(ctx context.Context, req *ExchangeRequest) (source, target *walletdomain.Wallet, err error) {
	first, second := req.FromCurrency, req.ToCurrency
	if second < first {
		first, second = second, first
	}

	w1, err := s.walletRepo.GetByUserAndCurrencyForUpdate(ctx, req.UserID, first)
	if err != nil {
		return nil, nil, err
	}
	w2, err := s.walletRepo.GetByUserAndCurrencyForUpdate(ctx, req.UserID, second)
	if err != nil {
		return nil, nil, err
	}

	byCurrency := map[string]*walletdomain.Wallet{first: w1, second: w2}
	source = byCurrency[req.FromCurrency]
	target = byCurrency[req.ToCurrency]

	if source == nil {
		return nil, nil, &walletdomain.NotFoundError{Entity: "wallet", Key: req.UserID + "/" + req.FromCurrency}
	}
	if target == nil {
		return nil, nil, &walletdomain.NotFoundError{Entity: "wallet", Key: req.UserID + "/" + req.ToCurrency}
	}
	return source, target, nil
}

func (s *ExchangeService) calculateFee(ctx context.Context, currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	schedule, err := s.scheduleRepo.GetActive(ctx, string(walletdomain.TypeExchange), currency)
	if err != nil {
		return decimal.Zero, err
	}
	if schedule == nil {
		logger.Warn(ctx, "No active fee schedule, charging zero fee",
			"type", walletdomain.TypeExchange, "currency", currency)
		return decimal.Zero, nil
	}
	return schedule.Calculate(amount), nil
}

func (s *ExchangeService) checkLimits(ctx context.Context, profile *profiledomain.Profile, req *ExchangeRequest) error {
	def, usedFallback, err := limitdomain.Resolve(ctx, s.definitionRepo,
		string(walletdomain.TypeExchange), limitdomain.AccountType(profile.AccountType), req.FromCurrency)
	if err != nil {
		return err
	}
	if usedFallback {
		logger.Warn(ctx, "No configured limit definition, using defaults",
			"type", walletdomain.TypeExchange, "account_type", profile.AccountType, "currency", req.FromCurrency)
	}

	now := s.now()
	usage, err := s.usageTracker.Usage(ctx, req.UserID, string(walletdomain.TypeExchange), req.FromCurrency, now)
	if err != nil {
		return err
	}

	result := limitdomain.Validate(limitdomain.CheckInput{
		Definition: def,
		Usage:      usage,
		Amount:     req.Amount,
	})
	if !result.Valid {
		s.metrics.ValidationFailures.WithLabelValues("limit").Inc()
		return &walletdomain.ValidationError{Reason: result.Reason}
	}

	if s.systemDailyCap.IsPositive() {
		total, err := s.usageTracker.Usage(ctx, req.UserID, "", "", now)
		if err != nil {
			return err
		}
		if total.Daily.Add(req.Amount).GreaterThan(s.systemDailyCap) {
			s.metrics.ValidationFailures.WithLabelValues("system_cap").Inc()
			return walletdomain.NewValidationError("daily transaction ceiling reached, please try again tomorrow")
		}
	}
	return nil
}

func validateExchangeRequest(req *ExchangeRequest) error {
	if req.UserID == "" {
		return walletdomain.NewValidationError("userId is required")
	}
	if req.FromCurrency == "" || req.ToCurrency == "" {
		return walletdomain.NewValidationError("fromCurrency and toCurrency are required")
	}
	if req.FromCurrency == req.ToCurrency {
		return walletdomain.NewValidationError("fromCurrency and toCurrency must differ")
	}
	if !req.Amount.IsPositive() {
		return walletdomain.NewValidationError("amount must be greater than zero")
	}
	return nil
}
