// internal/api/router_test.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fxwallet/internal/api/handler"
	"fxwallet/internal/domain"
	"fxwallet/internal/notify"
	"fxwallet/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// MockLedgerService is a mock implementation of service.LedgerService.
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) TopUp(ctx context.Context, userID int64, currency string, amount decimal.Decimal) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, userID, currency, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}

func (m *MockLedgerService) Convert(ctx context.Context, userID int64, source, target string, amount decimal.Decimal) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, userID, source, target, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}

func (m *MockLedgerService) EvaluateCapital(ctx context.Context, userID int64, target string) (*domain.Capital, error) {
	args := m.Called(ctx, userID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Capital), args.Error(1)
}

func (m *MockLedgerService) GetSnapshot(ctx context.Context, userID int64) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}

func (m *MockLedgerService) DeleteUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockLedgerService) GetRates(ctx context.Context, source string, targets []string) (*domain.Quote, error) {
	args := m.Called(ctx, source, targets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockLedgerService) ListCurrencies(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func newTestRouter(svc *MockLedgerService) http.Handler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRouter(RouterDeps{
		Ledger:          handler.NewLedgerHandler(svc, logger),
		Currency:        handler.NewCurrencyHandler(svc, logger),
		WS:              handler.NewWSHandler(notify.NewHub(nil, logger), logger),
		JWTSecret:       testSecret,
		EvaluateLimiter: handler.NewUserLimiter(5 * time.Second),
		Logger:          logger,
	})
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, h http.Handler, method, target, bearer string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var snapshot = &domain.BalanceSnapshot{
	Username:  "alice",
	Email:     "alice@example.com",
	CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	Balances: []domain.BalanceEntry{
		{Currency: "EUR", Amount: decimal.NewFromInt(36)},
		{Currency: "USD", Amount: decimal.NewFromInt(60)},
	},
}

func TestAuthentication(t *testing.T) {
	t.Run("MissingToken", func(t *testing.T) {
		rr := do(t, newTestRouter(new(MockLedgerService)), http.MethodGet, "/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1}).SignedString([]byte("other"))
		require.NoError(t, err)
		rr := do(t, newTestRouter(new(MockLedgerService)), http.MethodGet, "/users/me", bad, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := token(t, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Minute).Unix()})
		rr := do(t, newTestRouter(new(MockLedgerService)), http.MethodGet, "/users/me", expired, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("SubjectClaimAndQueryToken", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("GetSnapshot", mock.Anything, int64(7)).Return(snapshot, nil).Once()

		rr := do(t, newTestRouter(svc), http.MethodGet, "/users/me?token="+token(t, jwt.MapClaims{"sub": "7"}), "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})
}

func TestLedgerRoutes(t *testing.T) {
	bearer := token(t, jwt.MapClaims{"user_id": 1})

	t.Run("Me", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("GetSnapshot", mock.Anything, int64(1)).Return(snapshot, nil).Once()

		rr := do(t, newTestRouter(svc), http.MethodGet, "/users/me", bearer, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Username string `json:"username"`
			Balances []struct {
				Currency string `json:"currency"`
				Amount   string `json:"amount"`
			} `json:"balances"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "alice", body.Username)
		require.Len(t, body.Balances, 2)
		assert.Equal(t, "36.00", body.Balances[0].Amount)
	})

	t.Run("TopUp", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("TopUp", mock.Anything, int64(1), "USD", mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.RequireFromString("100.50"))
		})).Return(snapshot, nil).Once()

		rr := do(t, newTestRouter(svc), http.MethodPatch, "/users/top_up_balance", bearer,
			strings.NewReader(`{"amount": 100.50, "currency": "USD"}`))
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("TopUpMalformedBody", func(t *testing.T) {
		rr := do(t, newTestRouter(new(MockLedgerService)), http.MethodPatch, "/users/top_up_balance", bearer,
			strings.NewReader(`{"amount": "ten"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("ChangeCurrency", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("Convert", mock.Anything, int64(1), "USD", "EUR", mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.NewFromInt(40))
		})).Return(snapshot, nil).Once()

		rr := do(t, newTestRouter(svc), http.MethodPatch, "/users/change_currency?source=USD&currency=EUR&amount=40", bearer, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("ErrorMapping", func(t *testing.T) {
		cases := []struct {
			err     error
			status  int
			message string
		}{
			{util.ErrSameCurrency, http.StatusBadRequest, "currencies and source must be different"},
			{util.ErrInvalidCurrency, http.StatusBadRequest, "incorrect currency code"},
			{util.ErrNoSuchHolding, http.StatusPaymentRequired, "you don't have this currency"},
			{util.ErrInsufficientFunds, http.StatusPaymentRequired, "Insufficient funds"},
			{&util.UpstreamError{Status: 503}, http.StatusBadGateway, "Exchange rate provider unavailable"},
			{util.ErrConflict, http.StatusConflict, "Concurrent update, please retry"},
			{assert.AnError, http.StatusInternalServerError, "Internal server error"},
		}
		for _, tc := range cases {
			svc := new(MockLedgerService)
			svc.On("Convert", mock.Anything, int64(1), "USD", "EUR", mock.Anything).Return(nil, tc.err).Once()

			rr := do(t, newTestRouter(svc), http.MethodPatch, "/users/change_currency?source=USD&currency=EUR&amount=40", bearer, nil)
			assert.Equal(t, tc.status, rr.Code, tc.message)
			assert.JSONEq(t, `{"error":"`+tc.message+`"}`, rr.Body.String())
		}
	})

	t.Run("EvaluateBalanceIsThrottled", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("EvaluateCapital", mock.Anything, int64(1), "USD").
			Return(&domain.Capital{Currency: "USD", Amount: decimal.RequireFromString("155.56")}, nil).Once()
		router := newTestRouter(svc)

		rr := do(t, router, http.MethodGet, "/users/evaluate_balance?source=USD", bearer, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"currency":"USD","amount":"155.56","message":"Your capital in USD is 155.56 USD"}`, rr.Body.String())

		rr = do(t, router, http.MethodGet, "/users/evaluate_balance?source=USD", bearer, nil)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("DeleteMe", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("DeleteUser", mock.Anything, int64(1)).Return(nil).Once()

		rr := do(t, newTestRouter(svc), http.MethodDelete, "/users/me", bearer, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestCurrencyRoutes(t *testing.T) {
	bearer := token(t, jwt.MapClaims{"user_id": 1})

	t.Run("ExchangeRate", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("GetRates", mock.Anything, "USD", []string{"EUR", "GBP"}).
			Return(&domain.Quote{Source: "USD", Timestamp: 1700000000, Quotes: map[string]float64{"USDEUR": 0.9}}, nil).Once()

		rr := do(t, newTestRouter(svc), http.MethodGet, "/currency/exchange_rate?source=USD&currencies=EUR&currencies=GBP", bearer, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"time":"2023-11-14 22:13:20","source":"USD","quotes":{"USDEUR":0.9}}`, rr.Body.String())
	})

	t.Run("ExchangeRateSameCurrency", func(t *testing.T) {
		rr := do(t, newTestRouter(new(MockLedgerService)), http.MethodGet, "/currency/exchange_rate?source=USD&currencies=usd", bearer, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("List", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("ListCurrencies", mock.Anything).Return(map[string]string{"USD": "United States Dollar"}, nil).Once()

		rr := do(t, newTestRouter(svc), http.MethodGet, "/currency/list", bearer, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"currencies":{"USD":"United States Dollar"}}`, rr.Body.String())
	})
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestRouter(new(MockLedgerService)), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
