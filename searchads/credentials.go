package searchads

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Environment variables consulted by ResolveCredentials
const (
	EnvClientID       = "APPLE_SEARCH_ADS_CLIENT_ID"
	EnvTeamID         = "APPLE_SEARCH_ADS_TEAM_ID"
	EnvKeyID          = "APPLE_SEARCH_ADS_KEY_ID"
	EnvPrivateKeyPath = "APPLE_SEARCH_ADS_PRIVATE_KEY_PATH"
	EnvPrivateKey     = "APPLE_SEARCH_ADS_PRIVATE_KEY"
	EnvOrgID          = "APPLE_SEARCH_ADS_ORG_ID"
)

// CredentialOptions holds explicitly supplied credential material.
// Empty fields fall back to the environment.
type CredentialOptions struct {
	ClientID       string
	TeamID         string
	KeyID          string
	PrivateKeyPath string
	PrivateKey     string
}

// Credentials is the resolved, validated authentication material
type Credentials struct {
	ClientID   string
	TeamID     string
	KeyID      string
	PrivateKey string

	key *ecdsa.PrivateKey
}

// SigningKey returns the parsed EC private key
func (c *Credentials) SigningKey() *ecdsa.PrivateKey {
	return c.key
}

// ResolveCredentials resolves credentials from explicit options first and the
// environment second. The private key is taken from, in order: the explicit
// path, the explicit content, the path in APPLE_SEARCH_ADS_PRIVATE_KEY_PATH and
// the content in APPLE_SEARCH_ADS_PRIVATE_KEY.
func ResolveCredentials(opts CredentialOptions) (*Credentials, error) {
	const op = "resolve credentials"

	creds := &Credentials{
		ClientID: firstNonEmpty(opts.ClientID, os.Getenv(EnvClientID)),
		TeamID:   firstNonEmpty(opts.TeamID, os.Getenv(EnvTeamID)),
		KeyID:    firstNonEmpty(opts.KeyID, os.Getenv(EnvKeyID)),
	}

	privateKey, err := resolvePrivateKey(opts)
	if err != nil {
		return nil, err
	}
	creds.PrivateKey = privateKey

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if creds.TeamID == "" {
		missing = append(missing, "team_id")
	}
	if creds.KeyID == "" {
		missing = append(missing, "key_id")
	}
	if creds.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		e := newError(KindConfiguration, op,
			fmt.Sprintf("missing required credentials: %s", strings.Join(missing, ", ")), nil)
		e.Missing = missing
		return nil, e
	}

	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, newError(KindConfiguration, op, "private key is not a valid PEM-encoded EC key", err)
	}
	creds.key = key

	return creds, nil
}

func resolvePrivateKey(opts CredentialOptions) (string, error) {
	if path := strings.TrimSpace(opts.PrivateKeyPath); path != "" {
		return readPrivateKeyFile(path)
	}
	if strings.TrimSpace(opts.PrivateKey) != "" {
		return opts.PrivateKey, nil
	}
	if path := strings.TrimSpace(os.Getenv(EnvPrivateKeyPath)); path != "" {
		return readPrivateKeyFile(path)
	}
	return os.Getenv(EnvPrivateKey), nil
}

func readPrivateKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", newError(KindConfiguration, "read private key",
			fmt.Sprintf("cannot read private key file %s", path), err)
	}
	return string(data), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
