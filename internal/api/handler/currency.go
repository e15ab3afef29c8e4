// internal/api/handler/currency.go
package handler

import (
	"net/http"
	"strings"

	"fxwallet/internal/api/types"
	"fxwallet/internal/service"
	"fxwallet/internal/util"

	"github.com/sirupsen/logrus"
)

// CurrencyHandler serves the currency list and live exchange rates.
type CurrencyHandler struct {
	responder
	service service.LedgerService
}

func NewCurrencyHandler(svc service.LedgerService, logger *logrus.Logger) *CurrencyHandler {
	return &CurrencyHandler{responder: responder{logger: logger}, service: svc}
}

// List returns every known currency code.
// GET /currency/list
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ListCurrencies(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.CurrenciesResponse{Currencies: codes})
}

// ExchangeRate returns rates from source to the requested currencies, or to
// all of them when none are given. Targets may repeat the parameter or be
// comma separated.
// GET /currency/exchange_rate?source=USD&currencies=EUR&currencies=GBP
func (h *CurrencyHandler) ExchangeRate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	source := query.Get("source")
	if source == "" {
		source = "USD"
	}

	var targets []string
	for _, v := range query["currencies"] {
		for _, code := range strings.Split(v, ",") {
			if code = strings.TrimSpace(code); code != "" {
				targets = append(targets, code)
			}
		}
	}
	if len(targets) == 1 && strings.EqualFold(targets[0], source) {
		h.respondWithError(w, r, util.ErrSameCurrency)
		return
	}

	quote, err := h.service.GetRates(r.Context(), source, targets)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewRatesResponse(quote))
}
