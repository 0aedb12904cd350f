// REST client for Gate APIv4 (spot, futures, unified account).
// No resty-level retry: order submission is retried by the adapter.
package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultGateBaseURL = "https://api.gateio.ws"
	gateAPIPrefix      = "/api/v4"
)

// Gate labels that mean the pair or contract does not exist.
const (
	gateLabelInvalidCurrencyPair = "INVALID_CURRENCY_PAIR"
	gateLabelContractNotFound    = "CONTRACT_NOT_FOUND"
	gateLabelInvalidCurrency     = "INVALID_CURRENCY"
)

// GateAPIError is a non-2xx answer from Gate.
type GateAPIError struct {
	Status  int    `json:"-"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (e *GateAPIError) Error() string {
	msg := e.Message
	if msg == "" && e.Label != "" {
		msg = GetErrorMsg(e.Label)
	}
	return fmt.Sprintf("gate HTTP %d: %s %s", e.Status, e.Label, msg)
}

// gateDecodeError is a 2xx answer whose body could not be read. The request
// took effect on the venue.
type gateDecodeError struct {
	Path string
	Err  error
}

func (e *gateDecodeError) Error() string {
	return fmt.Sprintf("decode gate %s: %v", e.Path, e.Err)
}

func (e *gateDecodeError) Unwrap() error { return e.Err }

// gateTransportError is a failure with no HTTP answer at all.
type gateTransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *gateTransportError) Error() string {
	return fmt.Sprintf("gate %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *gateTransportError) Unwrap() error { return e.Err }

// unsent reports whether the request surely never reached Gate. A write
// failing after the connection was up may or may not have been applied.
func (e *gateTransportError) unsent() bool {
	if e.Method == http.MethodGet {
		return true
	}
	var opErr *net.OpError
	return errors.As(e.Err, &opErr) && opErr.Op == "dial"
}

// -----------------------------
// PAYLOADS
// -----------------------------

type GateSpotTicker struct {
	CurrencyPair string `json:"currency_pair"`
	Last         string `json:"last"`
}

type GateFuturesTicker struct {
	Contract  string `json:"contract"`
	Last      string `json:"last"`
	MarkPrice string `json:"mark_price"`
}

type GateCurrencyPair struct {
	ID              string `json:"id"`
	Base            string `json:"base"`
	Quote           string `json:"quote"`
	AmountPrecision int32  `json:"amount_precision"`
	Precision       int32  `json:"precision"`
	TradeStatus     string `json:"trade_status"`
}

type GateContract struct {
	Name             string `json:"name"`
	QuantoMultiplier string `json:"quanto_multiplier"`
	OrderSizeMin     int64  `json:"order_size_min"`
	OrderSizeMax     int64  `json:"order_size_max"`
	InDelisting      bool   `json:"in_delisting"`
}

type GateSpotAccount struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

type GateSpotOrderRequest struct {
	Text         string `json:"text,omitempty"`
	CurrencyPair string `json:"currency_pair"`
	Type         string `json:"type"`
	Account      string `json:"account"`
	Side         string `json:"side"`
	Amount       string `json:"amount"`
	TimeInForce  string `json:"time_in_force"`
}

type GateSpotOrder struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Status       string `json:"status"`
	CurrencyPair string `json:"currency_pair"`
	Type         string `json:"type"`
	Account      string `json:"account"`
	Side         string `json:"side"`
	Amount       string `json:"amount"`
	Price        string `json:"price"`
	Left         string `json:"left"`
	FilledAmount string `json:"filled_amount"`
	FilledTotal  string `json:"filled_total"`
	AvgDealPrice string `json:"avg_deal_price"`
	FinishAs     string `json:"finish_as"`
}

type GateFuturesOrderRequest struct {
	Contract   string `json:"contract"`
	Size       int64  `json:"size"`
	Price      string `json:"price"`
	Tif        string `json:"tif"`
	ReduceOnly bool   `json:"reduce_only,omitempty"`
	Text       string `json:"text,omitempty"`
}

type GateFuturesOrder struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	Contract     string `json:"contract"`
	Size         int64  `json:"size"`
	Left         int64  `json:"left"`
	Price        string `json:"price"`
	FillPrice    string `json:"fill_price"`
	Status       string `json:"status"`
	FinishAs     string `json:"finish_as"`
	IsReduceOnly bool   `json:"is_reduce_only"`
}

type GatePosition struct {
	Contract   string `json:"contract"`
	Size       int64  `json:"size"`
	Mode       string `json:"mode"`
	Leverage   string `json:"leverage"`
	EntryPrice string `json:"entry_price"`
	MarkPrice  string `json:"mark_price"`
}

// GateAPI is the part of Gate the adapter depends on.
type GateAPI interface {
	ListSpotTickers(ctx context.Context, pair string) ([]GateSpotTicker, error)
	ListFuturesTickers(ctx context.Context, settle, contract string) ([]GateFuturesTicker, error)
	GetCurrencyPair(ctx context.Context, pair string) (*GateCurrencyPair, error)
	GetContract(ctx context.Context, settle, contract string) (*GateContract, error)
	ListSpotAccounts(ctx context.Context, currency string) ([]GateSpotAccount, error)
	CreateSpotOrder(ctx context.Context, req GateSpotOrderRequest) (*GateSpotOrder, error)
	CreateFuturesOrder(ctx context.Context, settle string, req GateFuturesOrderRequest) (*GateFuturesOrder, error)
	SetLeverage(ctx context.Context, currency string, leverage int) error
	SetDualMode(ctx context.Context, settle string, dual bool) error
	ListPositions(ctx context.Context, settle string) ([]GatePosition, error)
}

// -----------------------------
// AUTHENTICATED CLIENT
// -----------------------------

type GateClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *resty.Client
	now       func() time.Time
}

func NewGateClient(apiKey, apiSecret, baseURL string, timeout time.Duration) *GateClient {
	if baseURL == "" {
		baseURL = defaultGateBaseURL
		logger.WithField("baseURL", baseURL).Warn("No Gate base URL provided, using default")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &GateClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		http:      httpClient,
		now:       time.Now,
	}
}

// signGateRequest builds the SIGN header:
// HMAC-SHA512(METHOD\nPATH\nQUERY\nSHA512(BODY)\nTIMESTAMP).
func signGateRequest(method, path, query, body string, timestamp int64, secret string) string {
	bodyHash := sha512.Sum512([]byte(body))
	payload := fmt.Sprintf("%s\n%s\n%s\n%s\n%d",
		method, path, query, hex.EncodeToString(bodyHash[:]), timestamp)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *GateClient) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}, signed bool, out interface{}) error {
	fullPath := gateAPIPrefix + path
	queryString := query.Encode()

	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode gate request: %w", err)
		}
		raw = b
	}

	req := c.http.R().SetContext(ctx)
	if queryString != "" {
		req = req.SetQueryString(queryString)
	}
	if raw != nil {
		req = req.SetBody(raw).SetHeader("Content-Type", "application/json")
	}
	if signed {
		ts := c.now().Unix()
		req = req.
			SetHeader("KEY", c.apiKey).
			SetHeader("Timestamp", strconv.FormatInt(ts, 10)).
			SetHeader("SIGN", signGateRequest(method, fullPath, queryString, string(raw), ts, c.apiSecret))
	}

	logger.WithFields(logger.Fields{
		"method": method,
		"path":   fullPath,
		"query":  queryString,
	}).Debug("Gate request")

	resp, err := req.Execute(method, fullPath)
	if err != nil {
		return &gateTransportError{Method: method, Path: fullPath, Err: err}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		apiErr := &GateAPIError{Status: resp.StatusCode()}
		if jsonErr := json.Unmarshal(resp.Body(), apiErr); jsonErr != nil || apiErr.Label == "" {
			apiErr.Message = string(resp.Body())
		}
		logger.WithFields(logger.Fields{
			"status": apiErr.Status,
			"label":  apiErr.Label,
			"path":   fullPath,
		}).Warn("Gate request rejected")
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		logger.WithField("path", fullPath).WithError(err).Error("Gate answer unreadable")
		return &gateDecodeError{Path: fullPath, Err: err}
	}
	return nil
}

// -----------------------------
// MARKET DATA
// -----------------------------

func (c *GateClient) ListSpotTickers(ctx context.Context, pair string) ([]GateSpotTicker, error) {
	var out []GateSpotTicker
	q := url.Values{}
	q.Set("currency_pair", pair)
	if err := c.doRequest(ctx, http.MethodGet, "/spot/tickers", q, nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GateClient) ListFuturesTickers(ctx context.Context, settle, contract string) ([]GateFuturesTicker, error) {
	var out []GateFuturesTicker
	q := url.Values{}
	q.Set("contract", contract)
	if err := c.doRequest(ctx, http.MethodGet, "/futures/"+settle+"/tickers", q, nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GateClient) GetCurrencyPair(ctx context.Context, pair string) (*GateCurrencyPair, error) {
	var out GateCurrencyPair
	if err := c.doRequest(ctx, http.MethodGet, "/spot/currency_pairs/"+pair, nil, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GateClient) GetContract(ctx context.Context, settle, contract string) (*GateContract, error) {
	var out GateContract
	if err := c.doRequest(ctx, http.MethodGet, "/futures/"+settle+"/contracts/"+contract, nil, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -----------------------------
// ACCOUNT & TRADING
// -----------------------------

func (c *GateClient) ListSpotAccounts(ctx context.Context, currency string) ([]GateSpotAccount, error) {
	var out []GateSpotAccount
	q := url.Values{}
	if currency != "" {
		q.Set("currency", currency)
	}
	if err := c.doRequest(ctx, http.MethodGet, "/spot/accounts", q, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GateClient) CreateSpotOrder(ctx context.Context, req GateSpotOrderRequest) (*GateSpotOrder, error) {
	var out GateSpotOrder
	if err := c.doRequest(ctx, http.MethodPost, "/spot/orders", nil, req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GateClient) CreateFuturesOrder(ctx context.Context, settle string, req GateFuturesOrderRequest) (*GateFuturesOrder, error) {
	var out GateFuturesOrder
	if err := c.doRequest(ctx, http.MethodPost, "/futures/"+settle+"/orders", nil, req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLeverage sets the unified account leverage of one currency.
func (c *GateClient) SetLeverage(ctx context.Context, currency string, leverage int) error {
	body := map[string]string{
		"currency": currency,
		"leverage": strconv.Itoa(leverage),
	}
	return c.doRequest(ctx, http.MethodPost, "/unified/leverage/user_currency_setting", nil, body, true, nil)
}

func (c *GateClient) SetDualMode(ctx context.Context, settle string, dual bool) error {
	q := url.Values{}
	q.Set("dual_mode", strconv.FormatBool(dual))
	return c.doRequest(ctx, http.MethodPost, "/futures/"+settle+"/dual_mode", q, nil, true, nil)
}

func (c *GateClient) ListPositions(ctx context.Context, settle string) ([]GatePosition, error) {
	var out []GatePosition
	q := url.Values{}
	q.Set("holding", "true")
	if err := c.doRequest(ctx, http.MethodGet, "/futures/"+settle+"/positions", q, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// isRetryableGateErr retries answers Gate marks as transient (5xx, 429, 408,
// busy labels) and transport failures of requests that never left. An order
// POST that timed out or came back unreadable may have been placed, so it is
// never retried.
func isRetryableGateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var decodeErr *gateDecodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	var transportErr *gateTransportError
	if errors.As(err, &transportErr) {
		return transportErr.unsent()
	}

	var apiErr *GateAPIError
	if !errors.As(err, &apiErr) {
		return false
	}

	if gateTransientLabels[apiErr.Label] {
		return true
	}

	code := apiErr.Status
	if code >= 500 && code <= 599 {
		return true
	}
	if code == http.StatusTooManyRequests {
		return true
	}
	if code == http.StatusRequestTimeout {
		return true
	}
	return false
}

func isGateSymbolMissing(err error) bool {
	var apiErr *GateAPIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Label {
	case gateLabelInvalidCurrencyPair, gateLabelContractNotFound, gateLabelInvalidCurrency:
		return true
	}
	return apiErr.Status == http.StatusNotFound
}
