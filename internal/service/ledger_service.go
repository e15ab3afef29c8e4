// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/metrics"
	"fxwallet/internal/repository"
	"fxwallet/internal/util"
	"fxwallet/pkg/db"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LedgerService defines the multi-currency balance operations.
type LedgerService interface {
	TopUp(ctx context.Context, userID int64, currency string, amount decimal.Decimal) (*domain.BalanceSnapshot, error)
	Convert(ctx context.Context, userID int64, source, target string, amount decimal.Decimal) (*domain.BalanceSnapshot, error)
	EvaluateCapital(ctx context.Context, userID int64, target string) (*domain.Capital, error)
	GetSnapshot(ctx context.Context, userID int64) (*domain.BalanceSnapshot, error)
	DeleteUser(ctx context.Context, userID int64) error
	GetRates(ctx context.Context, source string, targets []string) (*domain.Quote, error)
	ListCurrencies(ctx context.Context) (map[string]string, error)
}

// CurrencyRegistry validates currency codes against the known set.
type CurrencyRegistry interface {
	ValidateAll(ctx context.Context, codes ...string) error
	List(ctx context.Context) (map[string]string, error)
}

// RateProvider returns point-in-time exchange rates.
type RateProvider interface {
	GetRates(ctx context.Context, source string, targets []string) (*domain.Quote, error)
}

// EventPublisher receives events after their transaction has committed.
type EventPublisher interface {
	Publish(events ...domain.Event)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner  db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor  repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	userRepo    repository.UserRepository
	balanceRepo repository.BalanceRepository
	registry    CurrencyRegistry
	rates       RateProvider
	events      EventPublisher
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	metrics     *metrics.Metrics
	log         *logrus.Logger
}

// Deps groups the collaborators of the ledger service.
type Deps struct {
	DBBeginner  db.DBTxBeginner
	DBExecutor  repository.DBExecutor
	UserRepo    repository.UserRepository
	BalanceRepo repository.BalanceRepository
	Registry    CurrencyRegistry
	Rates       RateProvider
	Events      EventPublisher
	BeginTx     db.BeginTxFunc
	CommitTx    db.CommitTxFunc
	RollbackTx  db.RollbackTxFunc
	Metrics     *metrics.Metrics // optional
	Logger      *logrus.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(d Deps) LedgerService {
	return &ledgerService{
		dbBeginner:  d.DBBeginner,
		dbExecutor:  d.DBExecutor,
		userRepo:    d.UserRepo,
		balanceRepo: d.BalanceRepo,
		registry:    d.Registry,
		rates:       d.Rates,
		events:      d.Events,
		beginTx:     d.BeginTx,
		commitTx:    d.CommitTx,
		rollbackTx:  d.RollbackTx,
		metrics:     d.Metrics,
		log:         d.Logger,
	}
}

func (s *ledgerService) observe(operation string, start time.Time, err error) {
	s.metrics.RecordOperation(operation, err, time.Since(start))
}

// txExecutor asserts that the transaction can run repository queries.
func txExecutor(tx db.TxController) (repository.DBExecutor, error) {
	q, ok := tx.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transaction controller does not implement DBExecutor")
	}
	return q, nil
}

func (s *ledgerService) snapshot(ctx context.Context, q repository.DBExecutor, user *domain.User) (*domain.BalanceSnapshot, error) {
	balances, err := s.balanceRepo.ListByUser(ctx, q, user.ID)
	if err != nil {
		return nil, err
	}
	return domain.NewBalanceSnapshot(user, domain.NewHoldings(balances)), nil
}

// TopUp adds amount to the user's balance in currency, creating it on first use.
func (s *ledgerService) TopUp(ctx context.Context, userID int64, currency string, amount decimal.Decimal) (snap *domain.BalanceSnapshot, err error) {
	defer func(start time.Time) { s.observe("top_up", start, err) }(time.Now())

	currency = domain.NormalizeCurrency(currency)
	if err := s.registry.ValidateAll(ctx, currency); err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}
	if !domain.IsValidAmount(amount) {
		return nil, util.ErrInvalidAmount
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("top up: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	q, err := txExecutor(txController)
	if err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("top up: failed to get user %d: %w", userID, err)
	}

	balance, err := s.balanceRepo.FindOrCreate(ctx, q, userID, currency)
	if err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}
	if _, err := s.balanceRepo.Credit(ctx, q, balance.ID, amount); err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}

	snap, err = s.snapshot(ctx, q, user)
	if err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("top up: failed to commit transaction: %w", err)
	}

	s.events.Publish(domain.NewTopUpEvent(user, amount, currency))
	return snap, nil
}

// Convert exchanges amount of source into target at the current rate. All
// validation and the rate lookup happen before any balance is touched.
func (s *ledgerService) Convert(ctx context.Context, userID int64, source, target string, amount decimal.Decimal) (snap *domain.BalanceSnapshot, err error) {
	defer func(start time.Time) { s.observe("convert", start, err) }(time.Now())

	source = domain.NormalizeCurrency(source)
	target = domain.NormalizeCurrency(target)
	if err := s.registry.ValidateAll(ctx, source, target); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if source == target {
		return nil, util.ErrSameCurrency
	}
	if !domain.IsValidAmount(amount) {
		return nil, util.ErrInvalidAmount
	}

	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("convert: failed to get user %d: %w", userID, err)
	}
	balances, err := s.balanceRepo.ListByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if err := checkFunds(domain.NewHoldings(balances), source, amount); err != nil {
		return nil, err
	}

	quote, err := s.rates.GetRates(ctx, source, []string{target})
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	rate, ok := quote.Rate(target)
	if !ok || rate <= 0 {
		return nil, &util.UpstreamError{Err: errors.Errorf("no usable %s%s rate in quote", source, target)}
	}
	converted := domain.ConvertAmount(amount, rate)
	if !converted.IsPositive() {
		return nil, fmt.Errorf("convert: %s %s is worth nothing in %s: %w", amount, source, target, util.ErrInvalidAmount)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("convert: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	q, err := txExecutor(txController)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	pair := []string{source, target}
	sort.Strings(pair)
	locked, err := s.balanceRepo.LockForUpdate(ctx, q, userID, pair)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	holdings := domain.NewHoldings(locked)
	if err := checkFunds(holdings, source, amount); err != nil {
		return nil, err
	}

	if _, err := s.balanceRepo.Debit(ctx, q, holdings[source].ID, amount); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	credit, err := s.balanceRepo.FindOrCreate(ctx, q, userID, target)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if _, err := s.balanceRepo.Credit(ctx, q, credit.ID, converted); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	snap, err = s.snapshot(ctx, q, user)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("convert: failed to commit transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"source":    source,
		"target":    target,
		"amount":    amount.String(),
		"rate":      rate,
		"converted": converted.String(),
	}).Info("Currency converted")
	s.events.Publish(domain.NewConversionEvent(user, amount, source, converted, target))
	return snap, nil
}

func checkFunds(holdings domain.Holdings, currency string, amount decimal.Decimal) error {
	held, ok := holdings[currency]
	if !ok {
		return util.ErrNoSuchHolding
	}
	if held.Amount.LessThan(amount) {
		return util.ErrInsufficientFunds
	}
	return nil
}

// EvaluateCapital values every balance in target. The provider quotes
// target→held, so each held amount is divided by its rate.
func (s *ledgerService) EvaluateCapital(ctx context.Context, userID int64, target string) (capital *domain.Capital, err error) {
	defer func(start time.Time) { s.observe("evaluate_capital", start, err) }(time.Now())

	target = domain.NormalizeCurrency(target)
	if err := s.registry.ValidateAll(ctx, target); err != nil {
		return nil, fmt.Errorf("evaluate capital: %w", err)
	}

	if _, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID); err != nil {
		return nil, fmt.Errorf("evaluate capital: failed to get user %d: %w", userID, err)
	}
	balances, err := s.balanceRepo.ListByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("evaluate capital: %w", err)
	}

	total := decimal.Zero
	var foreign []string
	for _, b := range balances {
		if b.Currency == target {
			total = total.Add(b.Amount)
			continue
		}
		foreign = append(foreign, b.Currency)
	}

	if len(foreign) > 0 {
		quote, err := s.rates.GetRates(ctx, target, foreign)
		if err != nil {
			return nil, fmt.Errorf("evaluate capital: %w", err)
		}
		rates := quote.RatesByTarget()
		for _, b := range balances {
			if b.Currency == target {
				continue
			}
			rate, ok := rates[b.Currency]
			if !ok {
				s.log.WithFields(logrus.Fields{"user_id": userID, "currency": b.Currency}).
					Warn("No rate for held currency, leaving it out of capital")
				continue
			}
			if rate <= 0 {
				return nil, &util.UpstreamError{Err: errors.Errorf("non-positive %s%s rate %v", target, b.Currency, rate)}
			}
			total = total.Add(b.Amount.Div(decimal.NewFromFloat(rate)))
		}
	}

	return &domain.Capital{Currency: target, Amount: total.Round(domain.AmountScale)}, nil
}

// GetSnapshot returns the user's profile and balances.
func (s *ledgerService) GetSnapshot(ctx context.Context, userID int64) (*domain.BalanceSnapshot, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: failed to get user %d: %w", userID, err)
	}
	snap, err := s.snapshot(ctx, s.dbExecutor, user)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// DeleteUser removes the user together with every balance they hold.
func (s *ledgerService) DeleteUser(ctx context.Context, userID int64) (err error) {
	defer func(start time.Time) { s.observe("delete_user", start, err) }(time.Now())

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return fmt.Errorf("delete user: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	q, err := txExecutor(txController)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("delete user: failed to get user %d: %w", userID, err)
	}
	if err := s.userRepo.DeleteUser(ctx, q, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("delete user: failed to commit transaction: %w", err)
	}

	s.log.WithField("user_id", userID).Info("User deleted")
	s.events.Publish(domain.NewAccountDeletedEvent(user))
	return nil
}

// GetRates returns current rates from source to targets; no targets means all.
func (s *ledgerService) GetRates(ctx context.Context, source string, targets []string) (*domain.Quote, error) {
	source = domain.NormalizeCurrency(source)
	normalized := make([]string, 0, len(targets))
	for _, t := range targets {
		normalized = append(normalized, domain.NormalizeCurrency(t))
	}

	if err := s.registry.ValidateAll(ctx, append([]string{source}, normalized...)...); err != nil {
		return nil, fmt.Errorf("get rates: %w", err)
	}
	quote, err := s.rates.GetRates(ctx, source, normalized)
	if err != nil {
		return nil, fmt.Errorf("get rates: %w", err)
	}
	return quote, nil
}

// ListCurrencies returns the known currency codes with their labels.
func (s *ledgerService) ListCurrencies(ctx context.Context) (map[string]string, error) {
	codes, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return codes, nil
}
