package searchads

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies errors returned by the client
type ErrorKind int

const (
	// KindUnknown is the base kind: network failures that exhausted retries,
	// malformed responses and server errors
	KindUnknown ErrorKind = iota
	// KindConfiguration indicates unresolved or invalid credentials
	KindConfiguration
	// KindAuthentication indicates a failed token exchange or a rejected bearer token
	KindAuthentication
	// KindRateLimit indicates the API answered 429
	KindRateLimit
	// KindInvalidRequest indicates any other 4xx response
	KindInvalidRequest
	// KindOrganizationNotFound indicates an org-scoped call without an organization
	KindOrganizationNotFound
)

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate limit"
	case KindInvalidRequest:
		return "invalid request"
	case KindOrganizationNotFound:
		return "organization not found"
	default:
		return "search ads"
	}
}

// Sentinel errors for use with errors.Is
var (
	// ErrSearchAds matches every error produced by this package
	ErrSearchAds = errors.New("search ads error")
	// ErrConfiguration matches KindConfiguration errors
	ErrConfiguration = errors.New("search ads configuration error")
	// ErrAuthentication matches KindAuthentication errors
	ErrAuthentication = errors.New("search ads authentication error")
	// ErrRateLimited matches KindRateLimit errors
	ErrRateLimited = errors.New("search ads rate limit exceeded")
	// ErrInvalidRequest matches KindInvalidRequest errors
	ErrInvalidRequest = errors.New("search ads invalid request")
	// ErrOrganizationNotFound matches KindOrganizationNotFound errors
	ErrOrganizationNotFound = errors.New("search ads organization not found")
)

// maxBodySnippet bounds the response body kept on an Error
const maxBodySnippet = 300

// Error is the single error type returned by the client
type Error struct {
	Kind       ErrorKind
	Op         string
	Message    string
	StatusCode int
	Body       string
	// RetryAfter is the server's Retry-After hint on KindRateLimit errors
	RetryAfter time.Duration
	// Missing lists unresolved credential fields on KindConfiguration errors
	Missing []string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("searchads: ")
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind and ErrSearchAds
func (e *Error) Is(target error) bool {
	if target == ErrSearchAds {
		return true
	}
	return target == e.Kind.sentinel()
}

// IsAuthentication reports whether the error is an authentication failure
func (e *Error) IsAuthentication() bool {
	return e.Kind == KindAuthentication
}

// IsRateLimited reports whether the API throttled the request
func (e *Error) IsRateLimited() bool {
	return e.Kind == KindRateLimit
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindAuthentication:
		return ErrAuthentication
	case KindRateLimit:
		return ErrRateLimited
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindOrganizationNotFound:
		return ErrOrganizationNotFound
	default:
		return ErrSearchAds
	}
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// bodySnippet collapses whitespace and truncates body for error messages
func bodySnippet(body []byte) string {
	msg := strings.Join(strings.Fields(string(body)), " ")
	if len(msg) > maxBodySnippet {
		msg = msg[:maxBodySnippet] + "…"
	}
	return msg
}
