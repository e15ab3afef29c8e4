// internal/exchange/client.go
package exchange

import (
	"context"
	"strings"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/metrics"
	"fxwallet/internal/util"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Config describes the external exchange-rate provider.
type Config struct {
	BaseURL   string
	RatesPath string
	ListPath  string
	APIKey    string
	Timeout   time.Duration
}

// providerError is the body the provider sends with "success": false.
type providerError struct {
	Code int    `json:"code"`
	Info string `json:"info"`
}

type quoteResponse struct {
	Success *bool          `json:"success"`
	Error   *providerError `json:"error"`
	domain.Quote
}

type listResponse struct {
	Success    *bool             `json:"success"`
	Error      *providerError    `json:"error"`
	Currencies map[string]string `json:"currencies"`
}

// Client calls the provider's rates and list endpoints. Every call is a single
// attempt bounded by the configured timeout.
type Client struct {
	http      *resty.Client
	ratesPath string
	listPath  string
	metrics   *metrics.Metrics
}

// NewClient builds a provider client. m may be nil.
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &Client{
		http:      httpClient,
		ratesPath: cfg.RatesPath,
		listPath:  cfg.ListPath,
		metrics:   m,
	}
}

// GetRates returns source→target rates. An empty targets list asks for every
// rate the provider knows.
func (c *Client) GetRates(ctx context.Context, source string, targets []string) (*domain.Quote, error) {
	if len(targets) == 1 && targets[0] == source {
		return nil, util.ErrSameCurrency
	}

	start := time.Now()
	var body quoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"source":     source,
			"currencies": strings.Join(targets, ","),
		}).
		SetResult(&body).
		Get(c.ratesPath)
	err = checkResponse(resp, err, body.Success, body.Error)
	c.metrics.RecordProviderCall("rates", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if body.Source == "" {
		body.Source = source
	}
	if body.Quotes == nil {
		body.Quotes = map[string]float64{}
	}
	return &body.Quote, nil
}

// ListCurrencies returns every currency code the provider supports with its label.
func (c *Client) ListCurrencies(ctx context.Context) (map[string]string, error) {
	start := time.Now()
	var body listResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.listPath)
	err = checkResponse(resp, err, body.Success, body.Error)
	if err == nil && len(body.Currencies) == 0 {
		err = &util.UpstreamError{Err: errors.New("empty currency list")}
	}
	c.metrics.RecordProviderCall("list", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return body.Currencies, nil
}

func checkResponse(resp *resty.Response, err error, success *bool, perr *providerError) error {
	if err != nil {
		return &util.UpstreamError{Err: errors.Wrap(err, "provider request")}
	}
	if resp.IsError() {
		return &util.UpstreamError{Status: resp.StatusCode()}
	}
	if success != nil && !*success {
		info := "unsuccessful response"
		if perr != nil && perr.Info != "" {
			info = perr.Info
		}
		return &util.UpstreamError{Err: errors.New(info)}
	}
	return nil
}
