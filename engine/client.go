package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/counterdeskhq/counterdesk/engine/model"
)

const tokenPath = "/auth/token"

// TokenProvider supplies the current bearer token; empty string means
// no authenticated session. *Session implements it.
type TokenProvider interface {
	AccessToken() string
}

// ClientConfig configures the API client.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	CacheTTL     time.Duration // 0 disables the page cache
	Logger       *slog.Logger
}

// retryLogger adapts slog onto the retryablehttp.LeveledLogger
// interface, surfacing only warnings and errors.
type retryLogger struct {
	logger *slog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client is the remote data source for persons and transactions plus
// the credential exchange endpoint. A 401 on any request except the
// token exchange notifies the registered unauthorized observer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        ClientConfig
	logger     *slog.Logger
	cache      *PageCache

	mu             sync.Mutex
	tokens         TokenProvider
	onUnauthorized func()
}

// NewClient builds a client with bounded transport retries for
// transient network failures. Application errors are never retried.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = &retryLogger{logger: cfg.Logger}
	// 4xx responses, 401 included, must reach the caller untouched
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return false, nil
	}

	c := &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		cfg:        cfg,
		logger:     cfg.Logger,
	}
	if cfg.CacheTTL > 0 {
		c.cache = NewPageCache(cfg.CacheTTL)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenProvider wires the session that supplies bearer tokens.
func (c *Client) SetTokenProvider(tp TokenProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tp
}

// OnUnauthorized registers the single observer invoked when any
// non-login request returns 401. The dependency direction is explicit:
// the transport notifies the session manager, never the reverse.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// InvalidateCache drops all cached pages.
func (c *Client) InvalidateCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Token performs the password-grant credential exchange. A 401 here is
// a bad login, not an expired session, so the unauthorized observer is
// deliberately not notified.
func (c *Client) Token(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	payload := model.TokenRequest{
		GrantType:    "password",
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Username:     username,
		Password:     password,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.baseURL + tokenPath, Message: "could not reach the server", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp, c.baseURL+tokenPath)
	}

	var envelope struct {
		Data model.TokenResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &FetchError{URL: c.baseURL + tokenPath, Message: "unreadable token response", Err: err}
	}
	if envelope.Data.AccessToken == "" {
		return nil, &FetchError{URL: c.baseURL + tokenPath, Message: "token response missing access token"}
	}
	return &envelope.Data, nil
}

// Page is one fetched page of canonical records.
type Page[T any] struct {
	Rows       []T
	Pagination model.Pagination
}

// PersonQuery is the server-side filter/sort/page state for /users.
// Empty fields are omitted from the query string entirely.
type PersonQuery struct {
	Search   string
	Name     string
	Username string
	Email    string
	NumberID string
	Phone    string
	Sort     SortState
	Page     int
	Limit    int
}

func (q PersonQuery) values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "q", q.Search)
	setNonEmpty(v, "name", q.Name)
	setNonEmpty(v, "username", q.Username)
	setNonEmpty(v, "email", q.Email)
	setNonEmpty(v, "number_id", q.NumberID)
	setNonEmpty(v, "phone", q.Phone)
	setSort(v, q.Sort)
	setPositive(v, "page", q.Page)
	setPositive(v, "limit", q.Limit)
	return v
}

// TransactionQuery is the server-side filter/sort/page state for
// /transactions.
type TransactionQuery struct {
	Search          string
	CustomerType    string
	TransactionType string
	Product         string
	ReceiptCode     string
	MSISDN          string
	FullName        string
	NumberID        string
	PackageName     string
	Status          string // "refunded" or "voided"
	Sort            SortState
	Page            int
	Limit           int
}

func (q TransactionQuery) values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "q", q.Search)
	setNonEmpty(v, "customer_type", q.CustomerType)
	setNonEmpty(v, "transaction_type", q.TransactionType)
	setNonEmpty(v, "product", q.Product)
	setNonEmpty(v, "receipt_code", q.ReceiptCode)
	setNonEmpty(v, "msisdn", q.MSISDN)
	setNonEmpty(v, "fullname", q.FullName)
	setNonEmpty(v, "number_id", q.NumberID)
	setNonEmpty(v, "package_name", q.PackageName)
	setNonEmpty(v, "status", q.Status)
	setSort(v, q.Sort)
	setPositive(v, "page", q.Page)
	setPositive(v, "limit", q.Limit)
	return v
}

// FetchPersons retrieves one page of persons.
func (c *Client) FetchPersons(ctx context.Context, q PersonQuery) (*Page[model.Person], error) {
	return fetchPage(ctx, c, "/users", q.values(), model.PersonWire.Canonical)
}

// FetchTransactions retrieves one page of transactions.
func (c *Client) FetchTransactions(ctx context.Context, q TransactionQuery) (*Page[model.Transaction], error) {
	return fetchPage(ctx, c, "/transactions", q.values(), model.TransactionWire.Canonical)
}

// fetchPage performs an authenticated list request, consults the page
// cache, and converts wire records to their canonical shape.
func fetchPage[W, C any](ctx context.Context, c *Client, path string, query url.Values, convert func(W) C) (*Page[C], error) {
	fullURL := c.baseURL + path
	rawQuery := query.Encode()
	if rawQuery != "" {
		fullURL += "?" + rawQuery
	}

	var key uint64
	if c.cache != nil {
		key = CacheKey(path, rawQuery)
		if cached, ok := c.cache.Get(key); ok {
			if page, ok := cached.(*Page[C]); ok {
				c.logger.Debug("page cache hit", "path", path)
				return page, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: fullURL, Message: "could not reach the server", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.notifyUnauthorized()
		return nil, &FetchError{
			Status:  resp.StatusCode,
			URL:     fullURL,
			Message: "session expired",
			Err:     ErrSessionExpired,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp, fullURL)
	}

	var envelope model.Envelope[W]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &FetchError{URL: fullURL, Message: "unreadable response", Err: err}
	}

	rows := make([]C, 0, len(envelope.Data))
	for _, w := range envelope.Data {
		rows = append(rows, convert(w))
	}

	page := &Page[C]{Rows: rows, Pagination: envelope.Pagination}
	if c.cache != nil {
		c.cache.Put(key, page)
	}
	return page, nil
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

func (c *Client) notifyUnauthorized() {
	c.mu.Lock()
	fn := c.onUnauthorized
	c.mu.Unlock()

	c.InvalidateCache()
	if fn != nil {
		fn()
	}
}

// errorFromResponse turns a non-2xx response into a FetchError, lifting
// the server's message field when the body carries one.
func (c *Client) errorFromResponse(resp *http.Response, fullURL string) error {
	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
			message = payload.Message
		}
	}

	return &FetchError{Status: resp.StatusCode, URL: fullURL, Message: message}
}

func setNonEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setPositive(v url.Values, key string, value int) {
	if value > 0 {
		v.Set(key, strconv.Itoa(value))
	}
}

func setSort(v url.Values, s SortState) {
	if s.Active() {
		v.Set("sort", s.Key)
		v.Set("dir", s.Direction.String())
	}
}
