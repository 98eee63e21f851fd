package clients

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	listingsPath   = "/v1/cryptocurrency/listings/latest"
	cmcKeyHeader   = "X-CMC_PRO_API_KEY"
	requestTimeout = 30 * time.Second
)

// Listing one entry of the market-cap ranking.
type Listing struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	CMCRank int64  `json:"cmc_rank"`
}

type listingsStatus struct {
	ErrorCode    int64  `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type listingsResponse struct {
	Status listingsStatus `json:"status"`
	Data   []Listing      `json:"data"`
}

// CoinMarketCapError is a non-success reply of the listings endpoint.
type CoinMarketCapError struct {
	StatusCode int
	Code       int64
	Message    string
}

func (e *CoinMarketCapError) Error() string {
	return fmt.Sprintf("coinmarketcap listings: http %d, code %d: %s", e.StatusCode, e.Code, e.Message)
}

// IsRetryableListingsError reports whether a failed listings call may succeed
// when repeated: transport failures, rate limiting and server errors.
func IsRetryableListingsError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *CoinMarketCapError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// CoinMarketCap is a minimal REST client for the listings endpoint. Every
// call is a single request; retries belong to the caller.
type CoinMarketCap struct {
	http *resty.Client
}

// NewCoinMarketCapClient creates a client for baseURL authenticated with apiKey.
func NewCoinMarketCapClient(baseURL, apiKey string) *CoinMarketCap {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json").
		SetHeader(cmcKeyHeader, apiKey).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &CoinMarketCap{http: rc}
}

// Listings returns up to limit assets sorted by market cap, largest first.
func (c *CoinMarketCap) Listings(ctx context.Context, limit int) ([]Listing, error) {
	var out listingsResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sort":                "market_cap",
			"sort_dir":            "desc",
			"cryptocurrency_type": "all",
			"limit":               strconv.Itoa(limit),
		}).
		SetResult(&out).
		SetError(&out).
		Get(listingsPath)
	// an unparsable error body still carries a status worth classifying
	if resp != nil && resp.IsError() {
		return nil, &CoinMarketCapError{
			StatusCode: resp.StatusCode(),
			Code:       out.Status.ErrorCode,
			Message:    out.Status.ErrorMessage,
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "coinmarketcap listings request")
	}
	if out.Status.ErrorCode != 0 {
		return nil, &CoinMarketCapError{
			StatusCode: resp.StatusCode(),
			Code:       out.Status.ErrorCode,
			Message:    out.Status.ErrorMessage,
		}
	}

	return out.Data, nil
}
