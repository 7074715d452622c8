package searchads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the Search Ads Campaign Management API base
	DefaultBaseURL = "https://api.searchads.apple.com/api/v5"
	// DefaultTimeout bounds each HTTP call
	DefaultTimeout = 30 * time.Second
	// DefaultMaxAttempts is the number of attempts for transport failures
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the initial backoff between attempts
	DefaultRetryDelay = 500 * time.Millisecond
	// DefaultPageSize is the API's maximum page size
	DefaultPageSize = 1000
	// DefaultUserAgent identifies the client
	DefaultUserAgent = "searchads-go"

	// OrgContextHeader carries the organization of org-scoped calls
	OrgContextHeader = "X-AP-Context"

	maxRetryBackoff  = 5 * time.Second
	maxRetryAfter    = 5 * time.Minute
	maxResponseBytes = 64 << 20
)

// Request describes one API call
type Request struct {
	Method string
	// Path is relative to the base URL, e.g. "/campaigns"
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil
	Body any
	// OrgScoped calls require an organization and send it in X-AP-Context
	OrgScoped bool
	// OrgID overrides the client's active organization for this call
	OrgID string
}

// Client is an Apple Search Ads API client. It owns the access token cache and
// the rate-limit window; both are safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	pageSize    int
	userAgent   string

	creds   *Credentials
	tokens  *tokenManager
	limiter *RateLimiter
	logger  zerolog.Logger
	metrics *metrics

	orgMu sync.RWMutex
	orgID string
}

// NewClient resolves credentials and creates a client. No network calls are made.
func NewClient(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	creds, err := ResolveCredentials(o.credentials)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(strings.TrimSpace(o.baseURL), "/")
	if baseURL == "" {
		return nil, newError(KindConfiguration, "new client", "base URL is required", nil)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	var m *metrics
	if o.registerer != nil {
		if m, err = newMetrics(o.registerer); err != nil {
			return nil, newError(KindConfiguration, "new client", "failed to register metrics", err)
		}
	}

	limiter := NewRateLimiter(o.requestsPerWindow, o.rateWindow)
	limiter.now = o.now

	c := &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		timeout:     o.timeout,
		maxAttempts: o.maxAttempts,
		retryDelay:  o.retryDelay,
		pageSize:    o.pageSize,
		userAgent:   o.userAgent,
		creds:       creds,
		limiter:     limiter,
		logger:      o.logger,
		metrics:     m,
		orgID:       firstNonEmpty(o.orgID, os.Getenv(EnvOrgID)),
	}
	c.tokens = &tokenManager{
		creds:      creds,
		httpClient: httpClient,
		tokenURL:   o.tokenURL,
		margin:     o.tokenMargin,
		now:        o.now,
		logger:     o.logger,
		metrics:    m,
	}

	return c, nil
}

// Credentials returns the resolved credentials
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// OrgID returns the active organization, or "" if none is set
func (c *Client) OrgID() string {
	c.orgMu.RLock()
	defer c.orgMu.RUnlock()
	return c.orgID
}

// SetOrgID sets the active organization used by org-scoped calls
func (c *Client) SetOrgID(orgID string) {
	c.orgMu.Lock()
	defer c.orgMu.Unlock()
	c.orgID = strings.TrimSpace(orgID)
}

// AccessToken returns a usable access token, refreshing it if needed
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

// transportError marks failures that may succeed when retried
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// Execute sends req and returns the JSON response body. Transport failures
// are retried with exponential backoff; HTTP error responses are not.
func (c *Client) Execute(ctx context.Context, req Request) (json.RawMessage, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	op := method + " " + req.Path

	orgID := ""
	if req.OrgScoped {
		orgID = firstNonEmpty(req.OrgID, c.OrgID())
		if orgID == "" {
			return nil, newError(KindOrganizationNotFound, op,
				"no organization set; call SetOrgID or pass an organization id", nil)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, newError(KindUnknown, op, "request canceled", err)
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, newError(KindInvalidRequest, op, "failed to encode request body", err)
		}
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	attempt := 0
	operation := func() (json.RawMessage, error) {
		attempt++
		data, err := c.send(ctx, method, endpoint, op, orgID, payload, attempt)
		if err == nil {
			return data, nil
		}
		var te *transportError
		if errors.As(err, &te) && ctx.Err() == nil {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		c.metrics.retry()
		c.logger.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Search Ads request failed, retrying")
	}

	data, err := backoff.RetryNotifyWithData[json.RawMessage](operation, c.newBackOff(ctx), notify)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(KindUnknown, op, "request canceled", ctxErr)
		}
		return nil, newError(KindUnknown, op, fmt.Sprintf("request failed after %d attempts", attempt), err)
	}
	return data, nil
}

// Do executes req and decodes the response into out
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	data, err := c.Execute(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newError(KindUnknown, req.Method+" "+req.Path, "failed to decode response", err)
	}
	return nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxInterval = maxRetryBackoff
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
}

// send performs a single attempt
func (c *Client) send(ctx context.Context, method, endpoint, op, orgID string, payload []byte, attempt int) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	waited, err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, newError(KindUnknown, op, "canceled while waiting for rate limiter", err)
	}
	c.metrics.waited(waited)

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, endpoint, body)
	if err != nil {
		return nil, newError(KindInvalidRequest, op, "failed to create request", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if orgID != "" {
		req.Header.Set(OrgContextHeader, "orgId="+orgID)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", endpoint).
		Str("org_id", orgID).
		Int("attempt", attempt).
		Dur("rate_limit_wait", waited).
		Msg("Making Search Ads API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.request(0)
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.request(0)
		return nil, &transportError{err: fmt.Errorf("failed to read response body: %w", err)}
	}
	c.metrics.request(resp.StatusCode)

	c.logger.Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Int("bytes", len(respBody)).
		Msg("Search Ads API response")

	return classifyResponse(op, resp, respBody)
}

// classifyResponse maps a response to its JSON body or a typed error
func classifyResponse(op string, resp *http.Response, body []byte) (json.RawMessage, error) {
	status := resp.StatusCode

	if status >= 200 && status < 300 {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(trimmed) {
			e := newError(KindUnknown, op, "malformed JSON response", nil)
			e.StatusCode = status
			e.Body = bodySnippet(body)
			return nil, e
		}
		return json.RawMessage(trimmed), nil
	}

	var e *Error
	switch {
	case status == http.StatusUnauthorized:
		e = newError(KindAuthentication, op, "access token rejected", nil)
	case status == http.StatusTooManyRequests:
		e = newError(KindRateLimit, op, "rate limit exceeded", nil)
		e.RetryAfter = retryAfter(resp.Header.Get("Retry-After"))
	case status >= 400 && status < 500:
		msg := apiErrorMessage(body)
		if msg == "" {
			msg = resp.Status
		}
		e = newError(KindInvalidRequest, op, msg, nil)
	default:
		e = newError(KindUnknown, op, "unexpected response: "+resp.Status, nil)
	}
	e.StatusCode = status
	e.Body = bodySnippet(body)
	return nil, e
}

// apiErrorMessage extracts messages from the API error envelope
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Errors []struct {
				MessageCode string `json:"messageCode"`
				Message     string `json:"message"`
				Field       string `json:"field"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	var parts []string
	for _, e := range payload.Error.Errors {
		msg := strings.TrimSpace(e.Message)
		if e.MessageCode != "" {
			msg = e.MessageCode + ": " + msg
		}
		if e.Field != "" {
			msg += " (field " + e.Field + ")"
		}
		if msg != "" {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date
func retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return min(time.Duration(secs)*time.Second, maxRetryAfter)
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return min(d, maxRetryAfter)
	}
	return 0
}
