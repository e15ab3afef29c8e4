// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"io"

	"fxwallet/internal/domain"
	"fxwallet/internal/repository"
	"fxwallet/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	args := m.Called(ctx, q, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, q repository.DBExecutor, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

// MockBalanceRepository is a mock implementation of repository.BalanceRepository.
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) ListByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Balance, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Balance), args.Error(1)
}

func (m *MockBalanceRepository) LockForUpdate(ctx context.Context, q repository.DBExecutor, userID int64, currencies []string) ([]domain.Balance, error) {
	args := m.Called(ctx, q, userID, currencies)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Balance), args.Error(1)
}

func (m *MockBalanceRepository) FindOrCreate(ctx context.Context, q repository.DBExecutor, userID int64, currency string) (*domain.Balance, error) {
	args := m.Called(ctx, q, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Credit(ctx context.Context, q repository.DBExecutor, balanceID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, q, balanceID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBalanceRepository) Debit(ctx context.Context, q repository.DBExecutor, balanceID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, q, balanceID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockRegistry is a mock implementation of CurrencyRegistry.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) ValidateAll(ctx context.Context, codes ...string) error {
	args := m.Called(ctx, codes)
	return args.Error(0)
}

func (m *MockRegistry) List(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// MockRateProvider is a mock implementation of RateProvider.
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) GetRates(ctx context.Context, source string, targets []string) (*domain.Quote, error) {
	args := m.Called(ctx, source, targets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

// MockPublisher is a mock implementation of EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(events ...domain.Event) {
	m.Called(events)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implements repository.DBExecutor by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// ledgerMocks bundles the collaborators of one service under test.
type ledgerMocks struct {
	userRepo    *MockUserRepository
	balanceRepo *MockBalanceRepository
	registry    *MockRegistry
	rates       *MockRateProvider
	publisher   *MockPublisher
	dbBeginner  *MockDBBeginner
	dbExecutor  *MockDBExecutor
	tx          *MockTxController
	txBegun     int
}

func newLedgerMocks() *ledgerMocks {
	return &ledgerMocks{
		userRepo:    new(MockUserRepository),
		balanceRepo: new(MockBalanceRepository),
		registry:    new(MockRegistry),
		rates:       new(MockRateProvider),
		publisher:   new(MockPublisher),
		dbBeginner:  new(MockDBBeginner),
		dbExecutor:  new(MockDBExecutor),
		tx:          new(MockTxController),
	}
}

func (m *ledgerMocks) service() LedgerService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewLedgerService(Deps{
		DBBeginner:  m.dbBeginner,
		DBExecutor:  m.dbExecutor,
		UserRepo:    m.userRepo,
		BalanceRepo: m.balanceRepo,
		Registry:    m.registry,
		Rates:       m.rates,
		Events:      m.publisher,
		BeginTx: func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			m.txBegun++
			return m.tx, nil
		},
		CommitTx: func(tx db.TxController) error {
			return m.tx.Commit()
		},
		RollbackTx: func(tx db.TxController) {
			_ = m.tx.Rollback()
		},
		Logger: logger,
	})
}

func (m *ledgerMocks) assertExpectations(t mock.TestingT) {
	mock.AssertExpectationsForObjects(t, m.userRepo, m.balanceRepo, m.registry, m.rates, m.publisher, m.tx)
}

// capturePublish expects exactly one Publish call and stores its events.
func (m *ledgerMocks) capturePublish(into *[]domain.Event) {
	m.publisher.On("Publish", mock.Anything).Run(func(args mock.Arguments) {
		*into = append(*into, args.Get(0).([]domain.Event)...)
	}).Once()
}

func decimalEq(want decimal.Decimal) interface{} {
	return mock.MatchedBy(func(got decimal.Decimal) bool { return got.Equal(want) })
}
