package searchads

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	credentials       CredentialOptions
	orgID             string
	baseURL           string
	tokenURL          string
	timeout           time.Duration
	maxAttempts       int
	retryDelay        time.Duration
	requestsPerWindow int
	rateWindow        time.Duration
	tokenMargin       time.Duration
	pageSize          int
	userAgent         string
	httpClient        *http.Client
	logger            zerolog.Logger
	registerer        prometheus.Registerer
	now               func() time.Time
}

func defaultOptions() clientOptions {
	return clientOptions{
		baseURL:           DefaultBaseURL,
		tokenURL:          DefaultTokenURL,
		timeout:           DefaultTimeout,
		maxAttempts:       DefaultMaxAttempts,
		retryDelay:        DefaultRetryDelay,
		requestsPerWindow: DefaultRequestsPerWindow,
		rateWindow:        DefaultRateWindow,
		tokenMargin:       DefaultTokenMargin,
		pageSize:          DefaultPageSize,
		userAgent:         DefaultUserAgent,
		logger:            zerolog.Nop(),
		now:               time.Now,
	}
}

// WithCredentials sets the client, team and key identifiers explicitly.
// Empty values fall back to the environment.
func WithCredentials(clientID, teamID, keyID string) Option {
	return func(o *clientOptions) {
		o.credentials.ClientID = clientID
		o.credentials.TeamID = teamID
		o.credentials.KeyID = keyID
	}
}

// WithPrivateKeyPath reads the PEM private key from path.
func WithPrivateKeyPath(path string) Option {
	return func(o *clientOptions) {
		o.credentials.PrivateKeyPath = path
	}
}

// WithPrivateKey sets the PEM private key content.
func WithPrivateKey(pem string) Option {
	return func(o *clientOptions) {
		o.credentials.PrivateKey = pem
	}
}

// WithCredentialOptions sets all credential inputs at once.
func WithCredentialOptions(creds CredentialOptions) Option {
	return func(o *clientOptions) {
		o.credentials = creds
	}
}

// WithOrgID sets the default organization for org-scoped calls.
func WithOrgID(orgID string) Option {
	return func(o *clientOptions) {
		o.orgID = orgID
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(o *clientOptions) {
		o.tokenURL = tokenURL
	}
}

// WithTimeout sets the timeout of each HTTP call.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithMaxAttempts sets how many times a request is attempted when the
// transport fails. 1 disables retries.
func WithMaxAttempts(attempts int) Option {
	return func(o *clientOptions) {
		if attempts >= 1 {
			o.maxAttempts = attempts
		}
	}
}

// WithRetryDelay sets the initial backoff between attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *clientOptions) {
		if delay >= 0 {
			o.retryDelay = delay
		}
	}
}

// WithRateLimit sets the client-side request ceiling.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(o *clientOptions) {
		o.requestsPerWindow = requests
		o.rateWindow = window
	}
}

// WithTokenMargin sets how long before expiry the access token is refreshed.
func WithTokenMargin(margin time.Duration) Option {
	return func(o *clientOptions) {
		if margin >= 0 {
			o.tokenMargin = margin
		}
	}
}

// WithPageSize sets the default page size used by the endpoint methods.
// Sizes above DefaultPageSize are clamped to it.
func WithPageSize(size int) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.pageSize = min(size, DefaultPageSize)
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithHTTPClient sets the HTTP client used for API and token calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithMetrics registers client metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *clientOptions) {
		o.registerer = reg
	}
}

// withClock replaces the time source of the token cache and rate limiter.
func withClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		o.now = now
	}
}
