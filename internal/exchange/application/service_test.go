package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	auditdomain "github.com/mwangaza/sharewallet/internal/audit/domain"
	"github.com/mwangaza/sharewallet/internal/exchange/domain"
	feedomain "github.com/mwangaza/sharewallet/internal/fee/domain"
	limitdomain "github.com/mwangaza/sharewallet/internal/limit/domain"
	profiledomain "github.com/mwangaza/sharewallet/internal/profile/domain"
	walletdomain "github.com/mwangaza/sharewallet/internal/wallet/domain"
	"github.com/mwangaza/sharewallet/pkg/metrics"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeStore struct {
	wallets      map[string]*walletdomain.Wallet
	transactions []*walletdomain.Transaction
	audits       []*auditdomain.Entry
}

type snapshot struct {
	wallets      map[string]walletdomain.Wallet
	transactions int
	audits       int
}

func (s *fakeStore) snapshot() snapshot {
	snap := snapshot{
		wallets:      map[string]walletdomain.Wallet{},
		transactions: len(s.transactions),
		audits:       len(s.audits),
	}
	for id, w := range s.wallets {
		snap.wallets[id] = *w
	}
	return snap
}

func (s *fakeStore) restore(snap snapshot) {
	s.wallets = map[string]*walletdomain.Wallet{}
	for id, w := range snap.wallets {
		copied := w
		s.wallets[id] = &copied
	}
	s.transactions = s.transactions[:snap.transactions]
	s.audits = s.audits[:snap.audits]
}

type fakeTxManager struct{ store *fakeStore }

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// fakeWalletRepo 可配置第 N 次 UpdateBalance 失败，模拟贷记腿写失败
type fakeWalletRepo struct {
	store         *fakeStore
	updates       int
	failAtUpdate  int
	failWithError error
}

func (r *fakeWalletRepo) Save(_ context.Context, w *walletdomain.Wallet) error {
	r.store.wallets[w.WalletID] = w
	return nil
}

func (r *fakeWalletRepo) Get(_ context.Context, walletID string) (*walletdomain.Wallet, error) {
	return r.store.wallets[walletID], nil
}

func (r *fakeWalletRepo) GetForUpdate(ctx context.Context, walletID string) (*walletdomain.Wallet, error) {
	return r.Get(ctx, walletID)
}

func (r *fakeWalletRepo) GetByUserAndCurrency(_ context.Context, userID, currency string) (*walletdomain.Wallet, error) {
	for _, w := range r.store.wallets {
		if w.UserID == userID && w.Currency == currency {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWalletRepo) GetByUserAndCurrencyForUpdate(ctx context.Context, userID, currency string) (*walletdomain.Wallet, error) {
	return r.GetByUserAndCurrency(ctx, userID, currency)
}

func (r *fakeWalletRepo) ListByUser(_ context.Context, _ string) ([]*walletdomain.Wallet, error) {
	return nil, nil
}

func (r *fakeWalletRepo) UpdateBalance(_ context.Context, walletID string, expected, next decimal.Decimal) error {
	r.updates++
	if r.failAtUpdate > 0 && r.updates == r.failAtUpdate {
		return r.failWithError
	}
	w, ok := r.store.wallets[walletID]
	if !ok || !w.Balance.Equal(expected) {
		return &walletdomain.ConcurrencyError{Reason: "wallet balance changed concurrently, please retry"}
	}
	w.Balance = next
	return nil
}

type fakeTransactionRepo struct{ store *fakeStore }

func (r *fakeTransactionRepo) Save(_ context.Context, t *walletdomain.Transaction) error {
	r.store.transactions = append(r.store.transactions, t)
	return nil
}

func (r *fakeTransactionRepo) GetByReference(_ context.Context, _ string) (*walletdomain.Transaction, error) {
	return nil, nil
}

func (r *fakeTransactionRepo) ListByWallet(_ context.Context, _ string, _, _ int) ([]*walletdomain.Transaction, int64, error) {
	return nil, 0, nil
}

func (r *fakeTransactionRepo) Settle(_ context.Context, _ string, _ walletdomain.TransactionStatus, _ walletdomain.ApprovalStatus) error {
	return nil
}

type fakeRateRepo struct{ rates map[string]*domain.Rate }

func (r *fakeRateRepo) GetActive(_ context.Context, from, to string) (*domain.Rate, error) {
	return r.rates[from+"/"+to], nil
}
func (r *fakeRateRepo) Save(_ context.Context, _ *domain.Rate) error { return nil }

type fakeScheduleRepo struct {
	schedules map[string]*feedomain.Schedule
	err       error
}

func (r *fakeScheduleRepo) GetActive(_ context.Context, transactionType, currency string) (*feedomain.Schedule, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.schedules[transactionType+"/"+currency], nil
}
func (r *fakeScheduleRepo) Save(_ context.Context, _ *feedomain.Schedule) error { return nil }
func (r *fakeScheduleRepo) List(_ context.Context) ([]*feedomain.Schedule, error) {
	return nil, nil
}

// fakeDefinitionRepo 返回一条美元计价的兑换限额配置
type fakeDefinitionRepo struct{}

func (r *fakeDefinitionRepo) Find(_ context.Context, transactionType string, _ limitdomain.AccountType, currency string) (*limitdomain.Definition, error) {
	if transactionType != "exchange" || currency != "USD" {
		return nil, nil
	}
	return &limitdomain.Definition{
		TransactionType: "exchange",
		Currency:        "USD",
		MinAmount:       decimal.NewFromInt(1),
		MaxAmount:       decimal.NewFromInt(10000),
		DailyCap:        decimal.NewFromInt(20000),
		IsActive:        true,
	}, nil
}
func (r *fakeDefinitionRepo) Save(_ context.Context, _ *limitdomain.Definition) error { return nil }
func (r *fakeDefinitionRepo) List(_ context.Context) ([]*limitdomain.Definition, error) {
	return nil, nil
}

type fakeUsageReader struct{ daily decimal.Decimal }

func (r *fakeUsageReader) SumWindow(_ context.Context, _, _, _ string, _, _ time.Time) (decimal.Decimal, error) {
	return r.daily, nil
}

type fakeProfileRepo struct{ profiles map[string]*profiledomain.Profile }

func (r *fakeProfileRepo) Get(_ context.Context, userID string) (*profiledomain.Profile, error) {
	return r.profiles[userID], nil
}
func (r *fakeProfileRepo) Save(_ context.Context, _ *profiledomain.Profile) error { return nil }

type fakeRecorder struct{ store *fakeStore }

func (r *fakeRecorder) Record(_ context.Context, e *auditdomain.Entry) error {
	r.store.audits = append(r.store.audits, e)
	return nil
}

type fixture struct {
	svc        *ExchangeService
	store      *fakeStore
	walletRepo *fakeWalletRepo
	schedules  *fakeScheduleRepo
	usage      *fakeUsageReader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &fakeStore{wallets: map[string]*walletdomain.Wallet{}}
	walletRepo := &fakeWalletRepo{store: store}

	store.wallets["WAL-USD"] = &walletdomain.Wallet{
		WalletID: "WAL-USD", UserID: "user-1", Currency: "USD",
		Balance: dec("100"), Status: walletdomain.WalletStatusActive,
	}
	store.wallets["WAL-UGX"] = &walletdomain.Wallet{
		WalletID: "WAL-UGX", UserID: "user-1", Currency: "UGX",
		Balance: dec("5000"), Status: walletdomain.WalletStatusActive,
	}

	rates := &fakeRateRepo{rates: map[string]*domain.Rate{
		"USD/UGX": {
			FromCurrency: "USD", ToCurrency: "UGX",
			Rate: dec("3800"), SpreadPercent: dec("1"), IsActive: true,
		},
	}}
	schedules := &fakeScheduleRepo{schedules: map[string]*feedomain.Schedule{
		"exchange/USD": {
			TransactionType: "exchange", Currency: "USD",
			PercentageFee: dec("0.5"), IsActive: true,
		},
	}}
	profiles := &fakeProfileRepo{profiles: map[string]*profiledomain.Profile{
		"user-1": {UserID: "user-1", AccountType: "basic", Status: profiledomain.ProfileActive},
	}}
	usage := &fakeUsageReader{}

	svc := NewExchangeService(
		rates, walletRepo, &fakeTransactionRepo{store}, schedules,
		&fakeDefinitionRepo{}, usage, profiles,
		&fakeRecorder{store}, &fakeTxManager{store}, metrics.New("test"),
		decimal.Zero,
	)
	return &fixture{svc: svc, store: store, walletRepo: walletRepo, schedules: schedules, usage: usage}
}

func exchangeRequest(amount string) *ExchangeRequest {
	return &ExchangeRequest{
		UserID:       "user-1",
		FromCurrency: "USD",
		ToCurrency:   "UGX",
		Amount:       dec(amount),
	}
}

func TestExchangeHappyPath(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Exchange(context.Background(), exchangeRequest("10"))
	if err != nil {
		t.Fatal(err)
	}

	if result.BaseConverted != "38000" || result.SpreadAmount != "380" || result.ConvertedAmount != "37620" {
		t.Fatalf("unexpected breakdown: base %s spread %s net %s",
			result.BaseConverted, result.SpreadAmount, result.ConvertedAmount)
	}
	if result.FeeAmount != "0.05" {
		t.Fatalf("expected fee 0.05, got %s", result.FeeAmount)
	}
	if result.TotalDeducted != "10.05" {
		t.Fatalf("expected total deducted 10.05, got %s", result.TotalDeducted)
	}

	if got := f.store.wallets["WAL-USD"].Balance.String(); got != "89.95" {
		t.Fatalf("source balance should be 89.95, got %s", got)
	}
	if got := f.store.wallets["WAL-UGX"].Balance.String(); got != "42620" {
		t.Fatalf("target balance should be 42620, got %s", got)
	}

	if len(f.store.transactions) != 2 {
		t.Fatalf("expected two legs, got %d", len(f.store.transactions))
	}
	debit, credit := f.store.transactions[0], f.store.transactions[1]
	if debit.Amount.String() != "-10" || debit.Currency != "USD" {
		t.Fatalf("unexpected debit leg %s %s", debit.Amount, debit.Currency)
	}
	if credit.Amount.String() != "37620" || credit.Currency != "UGX" {
		t.Fatalf("unexpected credit leg %s %s", credit.Amount, credit.Currency)
	}
	if credit.Reference != debit.Reference+"-CR" {
		t.Fatalf("credit leg reference should derive from debit: %s vs %s", credit.Reference, debit.Reference)
	}
	if debit.Status != walletdomain.StatusCompleted || credit.Status != walletdomain.StatusCompleted {
		t.Fatal("exchange legs must be written completed")
	}
}

// If the credit step fails the whole exchange rolls back and the source
// wallet balance is unchanged.
func TestExchangeAtomicity(t *testing.T) {
	f := newFixture(t)
	f.walletRepo.failAtUpdate = 2
	f.walletRepo.failWithError = errors.New("write failed")

	_, err := f.svc.Exchange(context.Background(), exchangeRequest("10"))
	if err == nil {
		t.Fatal("expected exchange to fail")
	}

	if got := f.store.wallets["WAL-USD"].Balance.String(); got != "100" {
		t.Fatalf("source balance must be restored to 100, got %s", got)
	}
	if got := f.store.wallets["WAL-UGX"].Balance.String(); got != "5000" {
		t.Fatalf("target balance must be restored to 5000, got %s", got)
	}
	if len(f.store.transactions) != 0 {
		t.Fatalf("no legs should survive a failed exchange, got %d", len(f.store.transactions))
	}
	if len(f.store.audits) != 0 {
		t.Fatal("no audit rows should survive a failed exchange")
	}
}

func TestExchangeInsufficientBalance(t *testing.T) {
	f := newFixture(t)

	// 100 available, 100 + 0.5% fee = 100.5 required
	_, err := f.svc.Exchange(context.Background(), exchangeRequest("100"))
	if !walletdomain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := f.store.wallets["WAL-USD"].Balance.String(); got != "100" {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}

func TestExchangeMissingRate(t *testing.T) {
	f := newFixture(t)

	req := exchangeRequest("10")
	req.ToCurrency = "KES"
	_, err := f.svc.Exchange(context.Background(), req)
	if !walletdomain.IsNotFound(err) {
		t.Fatalf("missing rate must block the exchange, got %v", err)
	}
}

func TestExchangeMissingWallet(t *testing.T) {
	f := newFixture(t)
	delete(f.store.wallets, "WAL-UGX")

	_, err := f.svc.Exchange(context.Background(), exchangeRequest("10"))
	if !walletdomain.IsNotFound(err) {
		t.Fatalf("expected not found for missing destination wallet, got %v", err)
	}
}

func TestExchangeSameCurrencyRejected(t *testing.T) {
	f := newFixture(t)

	req := exchangeRequest("10")
	req.ToCurrency = "USD"
	_, err := f.svc.Exchange(context.Background(), req)
	if !walletdomain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// A fee schedule lookup failure must abort the exchange rather than
// silently waiving the fee.
func TestExchangeFeeLookupErrorAborts(t *testing.T) {
	f := newFixture(t)
	f.schedules.err = errors.New("db connection lost")

	_, err := f.svc.Exchange(context.Background(), exchangeRequest("10"))
	if err == nil || walletdomain.IsValidation(err) {
		t.Fatalf("expected infrastructure error to surface, got %v", err)
	}
	if got := f.store.wallets["WAL-USD"].Balance.String(); got != "100" {
		t.Fatalf("balance must be untouched, got %s", got)
	}
	if len(f.store.transactions) != 0 {
		t.Fatal("no legs should be written when the fee lookup fails")
	}

	if _, err := f.svc.Quote(context.Background(), "USD", "UGX", dec("10")); err == nil {
		t.Fatal("quote must surface the fee lookup error too")
	}
}

// Exchanges count against the same per-user daily ceiling as ordinary
// transactions, measured on the source-leg amount.
func TestExchangeSystemDailyCeiling(t *testing.T) {
	f := newFixture(t)
	f.svc.systemDailyCap = dec("5000")
	f.usage.daily = dec("4995")

	_, err := f.svc.Exchange(context.Background(), exchangeRequest("10"))
	if !walletdomain.IsValidation(err) {
		t.Fatalf("expected ceiling rejection, got %v", err)
	}
	if got := f.store.wallets["WAL-USD"].Balance.String(); got != "100" {
		t.Fatalf("balance must be untouched, got %s", got)
	}

	// exactly at the ceiling still passes
	if _, err := f.svc.Exchange(context.Background(), exchangeRequest("5")); err != nil {
		t.Fatalf("amount within the ceiling must pass, got %v", err)
	}
}

func TestQuoteDoesNotTouchWallets(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Quote(context.Background(), "USD", "UGX", dec("10"))
	if err != nil {
		t.Fatal(err)
	}
	if result.ConvertedAmount != "37620" {
		t.Fatalf("expected quote 37620, got %s", result.ConvertedAmount)
	}
	if got := f.store.wallets["WAL-USD"].Balance.String(); got != "100" {
		t.Fatalf("quote must not move funds, got balance %s", got)
	}
	if len(f.store.transactions) != 0 {
		t.Fatal("quote must not persist transactions")
	}
}
