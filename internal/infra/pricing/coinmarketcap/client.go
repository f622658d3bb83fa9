// Package coinmarketcap implements addresswatch.PriceConverter on top of the
// CoinMarketCap price-conversion endpoint.
package coinmarketcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gabapcia/hosewatch/internal/addresswatch"
	transporthttp "github.com/gabapcia/hosewatch/internal/pkg/transport/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
)

const (
	apiKeyHeader    = "X-CMC_PRO_API_KEY"
	convertCurrency = "USD"
)

var (
	// ErrProviderReturnedError indicates that the API answered with an error status.
	ErrProviderReturnedError = errors.New("provider error")

	// ErrQuoteUnavailable indicates a response without a USD price for the symbol.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrUnexpectedStatus is returned for non-2xx responses whose body is not an API error.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

type quote struct {
	Price *decimal.Decimal `json:"price"`
}

type asset struct {
	Quote map[string]quote `json:"quote"`
}

// response is the subset of the price-conversion payload the client reads.
type response struct {
	Status struct {
		ErrorCode    int     `json:"error_code"`
		ErrorMessage *string `json:"error_message"`
	} `json:"status"`
	Data map[string]asset `json:"data"`
}

// Err returns an error if the API reported one. It wraps
// ErrProviderReturnedError with the error code and message.
func (r response) Err() error {
	if r.Status.ErrorCode == 0 {
		return nil
	}

	message := ""
	if r.Status.ErrorMessage != nil {
		message = *r.Status.ErrorMessage
	}
	return fmt.Errorf("%w: [%d] - %s", ErrProviderReturnedError, r.Status.ErrorCode, message)
}

// price returns the converted price of symbol, if present.
func (r response) price(symbol string) (decimal.Decimal, bool) {
	a, ok := r.Data[symbol]
	if !ok {
		return decimal.Decimal{}, false
	}

	q, ok := a.Quote[convertCurrency]
	if !ok || q.Price == nil {
		return decimal.Decimal{}, false
	}
	return *q.Price, true
}

type client struct {
	endpoint   string
	apiKey     string
	httpClient *retryablehttp.Client
}

var _ addresswatch.PriceConverter = (*client)(nil)

// ConvertToUSD asks the API for the USD value of amount units of symbol. The
// absolute value of amount is sent.
func (c *client) ConvertToUSD(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return decimal.Decimal{}, err
	}

	query := endpoint.Query()
	query.Set("symbol", symbol)
	query.Set("amount", amount.Abs().String())
	query.Set("convert", convertCurrency)
	endpoint.RawQuery = query.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return decimal.Decimal{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
		}
		return decimal.Decimal{}, fmt.Errorf("error decoding conversion response: %w", err)
	}

	if err := data.Err(); err != nil {
		return decimal.Decimal{}, err
	}

	price, ok := data.price(symbol)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
	}
	return price, nil
}

type config struct {
	httpClient *retryablehttp.Client
}

// Option configures optional client dependencies.
type Option func(*config)

// WithHTTPClient overrides the HTTP client. Default: transport/http.NewClient().
func WithHTTPClient(c *retryablehttp.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// NewClient builds a converter for the price-conversion endpoint, authenticating
// every request with apiKey.
func NewClient(endpoint, apiKey string, opts ...Option) *client {
	cfg := config{
		httpClient: transporthttp.NewClient(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: cfg.httpClient,
	}
}
