package searchads

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testKeyPEM returns a freshly generated P-256 key in PKCS#8 PEM form
func testKeyPEM(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), key
}

// clearEnv blanks every credential variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvClientID, EnvTeamID, EnvKeyID, EnvPrivateKeyPath, EnvPrivateKey, EnvOrgID} {
		t.Setenv(name, "")
	}
}

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// apiServer fakes the token endpoint and the API behind one httptest server
type apiServer struct {
	*httptest.Server

	tokenCalls atomic.Int32
	apiCalls   atomic.Int32
	expiresIn  int

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	tokens   []string
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{
		expiresIn: 3600,
		handlers:  make(map[string]http.HandlerFunc),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/token" {
		n := s.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		token := fmt.Sprintf("token-%d", n)
		s.mu.Lock()
		s.tokens = append(s.tokens, r.PostForm.Get("client_secret"))
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   s.expiresIn,
		})
		return
	}

	s.apiCalls.Add(1)
	s.mu.Lock()
	h, ok := s.handlers[r.Method+" "+r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// handle registers a handler for "METHOD /api/v5/path"
func (s *apiServer) handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" /api/v5"+path] = h
}

// assertions returns the client assertions posted to the token endpoint
func (s *apiServer) assertions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestClient builds a client pointed at srv with test credentials
func newTestClient(t *testing.T, srv *apiServer, opts ...Option) *Client {
	t.Helper()
	clearEnv(t)
	keyPEM, _ := testKeyPEM(t)

	base := []Option{
		WithCredentials("SEARCHADS.client", "SEARCHADS.team", "key-id"),
		WithPrivateKey(keyPEM),
		WithTokenURL(srv.URL + "/token"),
		WithBaseURL(srv.URL + "/api/v5"),
		WithRetryDelay(time.Millisecond),
	}
	c, err := NewClient(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// roundTripFunc adapts a function to http.RoundTripper
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
