package searchads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTokenURL is Apple's OAuth token endpoint
	DefaultTokenURL = "https://appleid.apple.com/auth/oauth2/token"
	// TokenAudience is the audience claim of the client assertion
	TokenAudience = "https://appleid.apple.com"
	// TokenScope is the OAuth scope requested for the Search Ads API
	TokenScope = "searchadsorg"

	// DefaultTokenMargin is how long before expiry a token is refreshed
	DefaultTokenMargin = 60 * time.Second
	// AssertionLifetime is the validity of a signed client assertion
	AssertionLifetime = 20 * time.Minute

	defaultExpiresIn = 3600
	maxTokenBodySize = 1 << 20
)

// AccessToken is a bearer token and its absolute expiry
type AccessToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Usable reports whether the token may still be sent at now, keeping margin
// before its expiry. When the issue time is known the margin never exceeds
// half the token's lifetime, so short-lived tokens are still reused.
func (t AccessToken) Usable(now time.Time, margin time.Duration) bool {
	if t.Value == "" {
		return false
	}
	if !t.IssuedAt.IsZero() {
		margin = min(margin, t.ExpiresAt.Sub(t.IssuedAt)/2)
	}
	return now.Before(t.ExpiresAt.Add(-margin))
}

// tokenManager owns the cached access token. It is the only writer of the cache.
type tokenManager struct {
	creds      *Credentials
	httpClient *http.Client
	tokenURL   string
	margin     time.Duration
	now        func() time.Time
	logger     zerolog.Logger
	metrics    *metrics

	mu    sync.Mutex
	token AccessToken
}

// Token returns a usable access token, exchanging a fresh client assertion if
// there is no cached token or the cached one is within the safety margin
func (m *tokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token.Usable(m.now(), m.margin) {
		return m.token.Value, nil
	}

	if m.token.Value != "" {
		m.logger.Debug().Time("expires_at", m.token.ExpiresAt).Msg("Access token near expiry, refreshing")
	}

	token, err := m.fetch(ctx)
	if err != nil {
		m.metrics.tokenRefresh(false)
		return "", err
	}
	m.metrics.tokenRefresh(true)

	m.token = token
	m.logger.Debug().Time("expires_at", token.ExpiresAt).Msg("Obtained access token")
	return token.Value, nil
}

// Cached returns the currently cached token without refreshing it
func (m *tokenManager) Cached() AccessToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// clientAssertion builds the ES256 signed JWT identifying the client
func (m *tokenManager) clientAssertion(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    m.creds.TeamID,
		Subject:   m.creds.ClientID,
		Audience:  jwt.ClaimStrings{TokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(AssertionLifetime)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = m.creds.KeyID

	signed, err := token.SignedString(m.creds.SigningKey())
	if err != nil {
		return "", newError(KindAuthentication, "sign client assertion", "failed to sign client assertion", err)
	}
	return signed, nil
}

// fetch exchanges a client assertion for an access token. Failures are not retried.
func (m *tokenManager) fetch(ctx context.Context) (AccessToken, error) {
	const op = "fetch access token"

	issuedAt := m.now()
	assertion, err := m.clientAssertion(issuedAt)
	if err != nil {
		return AccessToken{}, err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.creds.ClientID)
	form.Set("client_secret", assertion)
	form.Set("scope", TokenScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, newError(KindAuthentication, op, "failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, newError(KindAuthentication, op, "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBodySize))
	if err != nil {
		return AccessToken{}, newError(KindAuthentication, op, "failed to read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := newError(KindAuthentication, op, "token endpoint rejected client assertion", nil)
		e.StatusCode = resp.StatusCode
		e.Body = bodySnippet(body)
		if msg := tokenErrorMessage(body); msg != "" {
			e.Message += ": " + msg
		}
		return AccessToken{}, e
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   *int64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		e := newError(KindAuthentication, op, "malformed token response", err)
		e.StatusCode = resp.StatusCode
		e.Body = bodySnippet(body)
		return AccessToken{}, e
	}

	value := strings.TrimSpace(payload.AccessToken)
	if value == "" {
		e := newError(KindAuthentication, op, "token response missing access_token", nil)
		e.StatusCode = resp.StatusCode
		return AccessToken{}, e
	}

	expiresIn := int64(defaultExpiresIn)
	if payload.ExpiresIn != nil && *payload.ExpiresIn > 0 {
		expiresIn = *payload.ExpiresIn
	}

	return AccessToken{
		Value:     value,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// tokenErrorMessage extracts the OAuth error fields from a token error body
func tokenErrorMessage(body []byte) string {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.ErrorDescription != "" {
		return fmt.Sprintf("%s: %s", payload.Error, payload.ErrorDescription)
	}
	return payload.Error
}
