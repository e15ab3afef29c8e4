// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"fxwallet/internal/api/handler"
	"fxwallet/internal/metrics"
)

// RouterDeps carries the handlers and middleware the router mounts.
type RouterDeps struct {
	Ledger          *handler.LedgerHandler
	Currency        *handler.CurrencyHandler
	WS              *handler.WSHandler
	JWTSecret       string
	EvaluateLimiter *handler.UserLimiter
	Metrics         *metrics.Metrics
	Logger          *logrus.Logger
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	auth := handler.Authenticator(d.JWTSecret)

	// Long-lived; no request timeout.
	r.With(auth).Get("/ws", d.WS.Serve)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(handler.DefaultTimeout))
		r.Use(auth)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", d.Ledger.Me)
			r.Delete("/me", d.Ledger.DeleteMe)
			r.Patch("/top_up_balance", d.Ledger.TopUp)
			r.Patch("/change_currency", d.Ledger.ChangeCurrency)
			r.With(d.EvaluateLimiter.Middleware).Get("/evaluate_balance", d.Ledger.EvaluateBalance)
		})

		r.Route("/currency", func(r chi.Router) {
			r.Get("/list", d.Currency.List)
			r.Get("/exchange_rate", d.Currency.ExchangeRate)
		})
	})

	return r
}

// requestLogger logs one line per request and records it in metrics.
func requestLogger(logger *logrus.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				elapsed := time.Since(start)
				m.RecordHTTPRequest(r.Method, route, status, elapsed)
				logger.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     status,
					"bytes":      ww.BytesWritten(),
					"duration":   elapsed.String(),
					"remote":     r.RemoteAddr,
				}).Info("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
