// 包 钱包服务的用例逻辑
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	auditdomain "github.com/mwangaza/sharewallet/internal/audit/domain"
	feedomain "github.com/mwangaza/sharewallet/internal/fee/domain"
	limitdomain "github.com/mwangaza/sharewallet/internal/limit/domain"
	profiledomain "github.com/mwangaza/sharewallet/internal/profile/domain"
	"github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/db"
	"github.com/mwangaza/sharewallet/pkg/idgen"
	"github.com/mwangaza/sharewallet/pkg/logger"
	"github.com/mwangaza/sharewallet/pkg/metrics"
)

// CreateWalletRequest 创建钱包请求 DTO
type CreateWalletRequest struct {
	UserID   string // 用户 ID
	Currency string // 币种
}

// CreateTransactionRequest 创建交易请求 DTO
type CreateTransactionRequest struct {
	UserID      string                 // 发起用户 ID（来自 token）
	WalletID    string                 // 钱包 ID
	Type        domain.TransactionType // 交易类型
	Amount      decimal.Decimal        // 金额（正数）
	Currency    string                 // 币种（可选，填了必须与钱包币种一致）
	Description string                 // 描述
	Metadata    map[string]any         // 附加信息
}

// TransactionDTO 交易 DTO，字段名是下游消费的稳定契约
type TransactionDTO struct {
	ID             uint   `json:"id"`
	Reference      string `json:"reference"`
	WalletID       string `json:"wallet_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Fee            string `json:"fee"`
	Status         string `json:"status"`
	ApprovalStatus string `json:"approval_status"`
	Description    string `json:"description,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

// WalletDTO 钱包 DTO
type WalletDTO struct {
	WalletID string `json:"wallet_id"`
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Status   string `json:"status"`
}

// TransactionService 交易编排服务
// 校验顺序固定：档案 → 钱包归属 → 手续费 → 余额状态 → 限额，
// 全部通过后在同一事务内落 pending 交易与审计记录。
type TransactionService struct {
	walletRepo     domain.WalletRepository
	txRepo         domain.TransactionRepository
	scheduleRepo   feedomain.ScheduleRepository
	definitionRepo limitdomain.DefinitionRepository
	usageTracker   *limitdomain.UsageTracker
	profileRepo    profiledomain.ProfileRepository
	auditRecorder  auditdomain.Recorder
	auditPublisher auditdomain.Publisher
	txManager      db.TxManager
	metrics        *metrics.Metrics
	// 全站单用户单日总额上限，跨交易类型合计
	systemDailyCap decimal.Decimal
	now            func() time.Time
}

// NewTransactionService 创建交易编排服务
func NewTransactionService(
	walletRepo domain.WalletRepository,
	txRepo domain.TransactionRepository,
	scheduleRepo feedomain.ScheduleRepository,
	definitionRepo limitdomain.DefinitionRepository,
	usageReader limitdomain.UsageReader,
	profileRepo profiledomain.ProfileRepository,
	auditRecorder auditdomain.Recorder,
	auditPublisher auditdomain.Publisher,
	txManager db.TxManager,
	m *metrics.Metrics,
	systemDailyCap decimal.Decimal,
) *TransactionService {
	return &TransactionService{
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		scheduleRepo:   scheduleRepo,
		definitionRepo: definitionRepo,
		usageTracker:   limitdomain.NewUsageTracker(usageReader),
		profileRepo:    profileRepo,
		auditRecorder:  auditRecorder,
		auditPublisher: auditPublisher,
		txManager:      txManager,
		metrics:        m,
		systemDailyCap: systemDailyCap,
		now:            time.Now,
	}
}

// CreateWallet 为用户开通一个币种钱包；同币种重复开通返回校验错误
func (s *TransactionService) CreateWallet(ctx context.Context, req *CreateWalletRequest) (*WalletDTO, error) {
	if req.UserID == "" || req.Currency == "" {
		return nil, domain.NewValidationError("userId and currency are required")
	}

	existing, err := s.walletRepo.GetByUserAndCurrency(ctx, req.UserID, req.Currency)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError("wallet for currency %s already exists", req.Currency)
	}

	wallet := &domain.Wallet{
		WalletID: fmt.Sprintf("WAL-%d", idgen.GenID()),
		UserID:   req.UserID,
		Currency: req.Currency,
		Balance:  decimal.Zero,
		Status:   domain.WalletStatusActive,
	}
	if err := s.walletRepo.Save(ctx, wallet); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, req.UserID, auditdomain.ActionWalletCreated, wallet.WalletID,
		fmt.Sprintf("currency=%s", req.Currency))

	logger.Info(ctx, "Wallet created",
		"wallet_id", wallet.WalletID, "user_id", req.UserID, "currency", req.Currency)

	return toWalletDTO(wallet), nil
}

// GetWallet 查询钱包，校验归属
func (s *TransactionService) GetWallet(ctx context.Context, userID, walletID string) (*WalletDTO, error) {
	wallet, err := s.walletRepo.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, &domain.NotFoundError{Entity: "wallet", Key: walletID}
	}
	if wallet.UserID != userID {
		return nil, domain.ErrNotWalletOwner
	}
	return toWalletDTO(wallet), nil
}

// ListWallets 查询用户全部钱包
func (s *TransactionService) ListWallets(ctx context.Context, userID string) ([]*WalletDTO, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*WalletDTO, 0, len(wallets))
	for _, w := range wallets {
		dtos = append(dtos, toWalletDTO(w))
	}
	return dtos, nil
}

// ListTransactions 分页查询钱包交易历史，校验归属
func (s *TransactionService) ListTransactions(ctx context.Context, userID, walletID string, page, pageSize int) ([]*TransactionDTO, int64, error) {
	wallet, err := s.walletRepo.Get(ctx, walletID)
	if err != nil {
		return nil, 0, err
	}
	if wallet == nil {
		return nil, 0, &domain.NotFoundError{Entity: "wallet", Key: walletID}
	}
	if wallet.UserID != userID {
		return nil, 0, domain.ErrNotWalletOwner
	}

	transactions, total, err := s.txRepo.ListByWallet(ctx, walletID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, toTransactionDTO(t))
	}
	return dtos, total, nil
}

// CreateTransaction 创建交易
// 用例流程：
// 1. 档案准入检查（受限账户直接拒绝）
// 2. 事务内行锁加载钱包并校验归属
// 3. 计算手续费（无费率表时按零费计并告警）
// 4. 余额与状态校验
// 5. 限额校验（含全站单日上限），pending 行计入窗口实现预留
// 6. 生成引用号，落 pending 交易与审计记录
// 提交后异步发布审计事件。余额由结算流程变更，这里不动余额。
func (s *TransactionService) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*TransactionDTO, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &domain.NotFoundError{Entity: "profile", Key: req.UserID}
	}
	if !profile.CanTransact() {
		s.countRejection("profile")
		return nil, domain.NewValidationError("account is restricted; transactions are not allowed")
	}

	var created *domain.Transaction
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, req.WalletID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return &domain.NotFoundError{Entity: "wallet", Key: req.WalletID}
		}
		if wallet.UserID != req.UserID {
			return domain.ErrNotWalletOwner
		}
		if req.Currency != "" && req.Currency != wallet.Currency {
			s.countRejection("wallet")
			return domain.NewValidationError("currency %s does not match wallet currency %s", req.Currency, wallet.Currency)
		}

		fee, err := s.calculateFee(ctx, string(req.Type), wallet.Currency, req.Amount)
		if err != nil {
			return err
		}

		kind := domain.OpCredit
		if req.Type.IsDebit() {
			kind = domain.OpDebit
		}
		if err := domain.ValidateWallet(wallet, req.Amount, fee, kind); err != nil {
			s.countRejection("wallet")
			return err
		}

		if err := s.checkLimits(ctx, profile, wallet.Currency, req); err != nil {
			return err
		}

		now := s.now()
		transaction := &domain.Transaction{
			Reference:      domain.NewReference(req.Type, req.UserID, now),
			WalletID:       wallet.WalletID,
			UserID:         req.UserID,
			Type:           req.Type,
			Amount:         signedAmount(req.Type, req.Amount),
			Currency:       wallet.Currency,
			FeeAmount:      fee,
			Status:         domain.StatusPending,
			ApprovalStatus: domain.ApprovalPending,
			Description:    req.Description,
			Metadata:       encodeMetadata(req.Metadata),
		}
		if err := s.txRepo.Save(ctx, transaction); err != nil {
			return err
		}

		entry := &auditdomain.Entry{
			UserID:    req.UserID,
			Action:    auditdomain.ActionTransactionCreated,
			Reference: transaction.Reference,
			Detail:    fmt.Sprintf("type=%s amount=%s %s fee=%s", req.Type, req.Amount, wallet.Currency, fee),
		}
		if err := s.auditRecorder.Record(ctx, entry); err != nil {
			return err
		}

		created = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TransactionsTotal.WithLabelValues(string(req.Type)).Inc()
	s.metrics.PendingTransactions.Inc()
	s.publishAudit(ctx, created)

	logger.Info(ctx, "Transaction created",
		"reference", created.Reference,
		"wallet_id", created.WalletID,
		"type", created.Type,
		"amount", created.Amount.String(),
		"fee", created.FeeAmount.String(),
	)

	return toTransactionDTO(created), nil
}

// Settle 结算回调：pending 交易迁移到终态；completed 时变更余额（CAS）
func (s *TransactionService) Settle(ctx context.Context, reference string, succeeded bool) error {
	return s.txManager.Transaction(ctx, func(ctx context.Context) error {
		transaction, err := s.txRepo.GetByReference(ctx, reference)
		if err != nil {
			return err
		}
		if transaction == nil {
			return &domain.NotFoundError{Entity: "transaction", Key: reference}
		}
		if transaction.Status != domain.StatusPending {
			// 重复回调，幂等返回
			return nil
		}

		status, approval := domain.StatusCompleted, domain.ApprovalApproved
		if !succeeded {
			status, approval = domain.StatusFailed, domain.ApprovalRejected
		}
		if err := s.txRepo.Settle(ctx, reference, status, approval); err != nil {
			return err
		}

		if succeeded {
			wallet, err := s.walletRepo.GetForUpdate(ctx, transaction.WalletID)
			if err != nil {
				return err
			}
			if wallet == nil {
				return &domain.NotFoundError{Entity: "wallet", Key: transaction.WalletID}
			}
			// amount 带符号，借记已含负号；手续费始终扣减
			next := wallet.Balance.Add(transaction.Amount).Sub(transaction.FeeAmount)
			if next.IsNegative() {
				return &domain.FatalDataError{Reason: "settlement would drive wallet balance negative, please contact support"}
			}
			if err := s.walletRepo.UpdateBalance(ctx, wallet.WalletID, wallet.Balance, next); err != nil {
				return err
			}
		}

		s.metrics.PendingTransactions.Dec()
		return nil
	})
}

// calculateFee 取费率算费；仅在无生效费率表时零费放行并告警，查询失败原样上抛
func (s *TransactionService) calculateFee(ctx context.Context, transactionType, currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	schedule, err := s.scheduleRepo.GetActive(ctx, transactionType, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if schedule == nil {
		logger.Warn(ctx, "No active fee schedule, charging zero fee",
			"type", transactionType, "currency", currency)
		return decimal.Zero, nil
	}
	return schedule.Calculate(amount), nil
}

// checkLimits 档位限额 + 全站单日上限
func (s *TransactionService) checkLimits(ctx context.Context, profile *profiledomain.Profile, currency string, req *CreateTransactionRequest) error {
	def, usedFallback, err := limitdomain.Resolve(ctx, s.definitionRepo,
		string(req.Type), limitdomain.AccountType(profile.AccountType), currency)
	if err != nil {
		return err
	}
	if usedFallback {
		logger.Warn(ctx, "No configured limit definition, using defaults",
			"type", req.Type, "account_type", profile.AccountType, "currency", currency)
	}

	now := s.now()
	usage, err := s.usageTracker.Usage(ctx, req.UserID, string(req.Type), currency, now)
	if err != nil {
		return err
	}

	result := limitdomain.Validate(limitdomain.CheckInput{
		Definition: def,
		Usage:      usage,
		Amount:     req.Amount,
	})
	if !result.Valid {
		s.countRejection("limit")
		// 事务即将回滚，落库审计会被一并回滚，改走消息队列
		if s.auditPublisher != nil {
			_ = s.auditPublisher.Publish(ctx, &auditdomain.Entry{
				UserID: req.UserID,
				Action: auditdomain.ActionLimitRejected,
				Detail: fmt.Sprintf("type=%s amount=%s reason=%s", req.Type, req.Amount, result.Reason),
			})
		}
		return &domain.ValidationError{Reason: result.Reason}
	}

	if s.systemDailyCap.IsPositive() {
		total, err := s.usageTracker.Usage(ctx, req.UserID, "", "", now)
		if err != nil {
			return err
		}
		if total.Daily.Add(req.Amount).GreaterThan(s.systemDailyCap) {
			s.countRejection("system_cap")
			return domain.NewValidationError("daily transaction ceiling reached, please try again tomorrow")
		}
	}

	return nil
}

func (s *TransactionService) countRejection(kind string) {
	s.metrics.ValidationFailures.WithLabelValues(kind).Inc()
}

func (s *TransactionService) recordAudit(ctx context.Context, userID string, action auditdomain.Action, reference, detail string) {
	entry := &auditdomain.Entry{UserID: userID, Action: action, Reference: reference, Detail: detail}
	if err := s.auditRecorder.Record(ctx, entry); err != nil {
		logger.Error(ctx, "Audit record failed", "action", action, "error", err)
	}
}

func (s *TransactionService) publishAudit(ctx context.Context, transaction *domain.Transaction) {
	if s.auditPublisher == nil {
		return
	}
	entry := &auditdomain.Entry{
		UserID:    transaction.UserID,
		Action:    auditdomain.ActionTransactionCreated,
		Reference: transaction.Reference,
		Detail:    fmt.Sprintf("type=%s currency=%s", transaction.Type, transaction.Currency),
	}
	// 发布失败不回滚业务，错误已在 publisher 内记日志
	_ = s.auditPublisher.Publish(ctx, entry)
}

func validateCreateRequest(req *CreateTransactionRequest) error {
	if req.UserID == "" || req.WalletID == "" {
		return domain.NewValidationError("userId and walletId are required")
	}
	switch req.Type {
	case domain.TypeDeposit, domain.TypeWithdraw, domain.TypeTransfer:
	case domain.TypeExchange:
		return domain.NewValidationError("exchange transactions must use the exchange endpoint")
	default:
		return domain.NewValidationError("unsupported transaction type %q", req.Type)
	}
	if !req.Amount.IsPositive() {
		return domain.NewValidationError("amount must be greater than zero")
	}
	return nil
}

// signedAmount 贷记为正，借记为负
func signedAmount(t domain.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t.IsDebit() {
		return amount.Neg()
	}
	return amount
}

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(raw)
}

func toWalletDTO(w *domain.Wallet) *WalletDTO {
	return &WalletDTO{
		WalletID: w.WalletID,
		UserID:   w.UserID,
		Currency: w.Currency,
		Balance:  w.Balance.String(),
		Status:   string(w.Status),
	}
}

func toTransactionDTO(t *domain.Transaction) *TransactionDTO {
	return &TransactionDTO{
		ID:             t.ID,
		Reference:      t.Reference,
		WalletID:       t.WalletID,
		UserID:         t.UserID,
		Type:           string(t.Type),
		Amount:         t.Amount.String(),
		Currency:       t.Currency,
		Fee:            t.FeeAmount.String(),
		Status:         string(t.Status),
		ApprovalStatus: string(t.ApprovalStatus),
		Description:    t.Description,
		CreatedAt:      t.CreatedAt.Unix(),
	}
}
