// internal/api/handler/handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"fxwallet/internal/api/types"
	"fxwallet/internal/util"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every non-streaming request.
const DefaultTimeout = 30 * time.Second

// responder holds the JSON helpers shared by all handlers.
type responder struct {
	logger *logrus.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	if err := writeJSON(w, code, payload); err != nil {
		h.logger.WithError(err).Error("Failed to marshal JSON response")
	}
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) error {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
	return nil
}

// Helper function to send error responses. Internal details never reach the client.
func (h responder) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, message := StatusFor(err)
	if statusCode == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Unhandled service error")
	} else if statusCode == http.StatusBadGateway {
		h.logger.WithError(err).WithField("path", r.URL.Path).Warn("Exchange provider failure")
	}
	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message})
}

// StatusFor maps an error to its HTTP status and stable client message.
func StatusFor(err error) (int, string) {
	switch {
	case util.IsError(err, util.ErrSameCurrency):
		return http.StatusBadRequest, util.ErrSameCurrency.Error()
	case util.IsError(err, util.ErrInvalidCurrency):
		return http.StatusBadRequest, util.ErrInvalidCurrency.Error()
	case util.IsError(err, util.ErrInvalidAmount):
		return http.StatusBadRequest, util.ErrInvalidAmount.Error()
	case util.IsError(err, util.ErrInvalidRequest):
		return http.StatusBadRequest, "Invalid request"
	case util.IsError(err, util.ErrNoSuchHolding):
		return http.StatusPaymentRequired, util.ErrNoSuchHolding.Error()
	case util.IsError(err, util.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "Insufficient funds"
	case util.IsError(err, util.ErrUpstream):
		return http.StatusBadGateway, "Exchange rate provider unavailable"
	case util.IsError(err, util.ErrConflict):
		return http.StatusConflict, "Concurrent update, please retry"
	case util.IsError(err, util.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case util.IsError(err, util.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case util.IsError(err, util.ErrUnauthorized):
		return http.StatusUnauthorized, "Could not validate credentials"
	case util.IsError(err, util.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
