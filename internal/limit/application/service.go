// 包 限额预检的用例逻辑
package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwangaza/sharewallet/internal/limit/domain"
	profiledomain "github.com/mwangaza/sharewallet/internal/profile/domain"
	walletdomain "github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/logger"
)

// CheckRequest 限额预检请求 DTO
type CheckRequest struct {
	UserID          string          // 用户 ID
	TransactionType string          // 交易族（deposit, buy_shares, ...）
	Currency        string          // 币种；股份族可为空
	Amount          decimal.Decimal // 金额或股数
	// OwnedShares 本次标的下已持有的股数，买入补足最低门槛用
	OwnedShares decimal.Decimal
}

// CheckResponse 限额预检结果 DTO
type CheckResponse struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Remaining string `json:"remaining,omitempty"`
	// UsedDefaults 为 true 表示该族未配置限额，使用了保守默认值
	UsedDefaults bool `json:"usedDefaults"`
}

// LimitService 限额预检服务，仅读不写，供前端在下单前提示用
type LimitService struct {
	definitionRepo domain.DefinitionRepository
	usageTracker   *domain.UsageTracker
	holdingReader  domain.ShareHoldingReader
	profileRepo    profiledomain.ProfileRepository
	now            func() time.Time
}

// NewLimitService 创建限额预检服务
func NewLimitService(
	definitionRepo domain.DefinitionRepository,
	usageReader domain.UsageReader,
	holdingReader domain.ShareHoldingReader,
	profileRepo profiledomain.ProfileRepository,
) *LimitService {
	return &LimitService{
		definitionRepo: definitionRepo,
		usageTracker:   domain.NewUsageTracker(usageReader),
		holdingReader:  holdingReader,
		profileRepo:    profileRepo,
		now:            time.Now,
	}
}

// Check 执行一次限额预检。结果只反映检查瞬间的窗口用量，
// 实际下单时仍会在事务内重新校验。
func (s *LimitService) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.UserID == "" || req.TransactionType == "" {
		return nil, walletdomain.NewValidationError("userId and transactionType are required")
	}

	profile, err := s.profileRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &walletdomain.NotFoundError{Entity: "profile", Key: req.UserID}
	}
	if !profile.CanTransact() {
		return &CheckResponse{Allowed: false, Reason: "account is restricted; transactions are not allowed"}, nil
	}

	def, usedFallback, err := domain.Resolve(ctx, s.definitionRepo,
		req.TransactionType, domain.AccountType(profile.AccountType), req.Currency)
	if err != nil {
		return nil, err
	}
	if usedFallback {
		logger.Warn(ctx, "No configured limit definition, using defaults",
			"type", req.TransactionType, "account_type", profile.AccountType, "currency", req.Currency)
	}

	usage, err := s.usageTracker.Usage(ctx, req.UserID, req.TransactionType, req.Currency, s.now())
	if err != nil {
		return nil, err
	}

	input := domain.CheckInput{
		Definition:  def,
		Usage:       usage,
		Amount:      req.Amount,
		OwnedShares: req.OwnedShares,
	}
	if def.QuantityBased {
		holdings, err := s.holdingReader.Holdings(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		input.TotalHoldings = holdings
		if input.OwnedShares.IsZero() {
			input.OwnedShares = holdings
		}
	}

	result := domain.Validate(input)
	resp := &CheckResponse{
		Allowed:      result.Valid,
		Reason:       result.Reason,
		UsedDefaults: usedFallback,
	}
	if !result.Remaining.IsZero() {
		resp.Remaining = result.Remaining.String()
	}
	return resp, nil
}

// Definitions 列出全部已配置的限额定义
func (s *LimitService) Definitions(ctx context.Context) ([]*domain.Definition, error) {
	return s.definitionRepo.List(ctx)
}
