package searchads

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCredentials(t *testing.T) {
	keyPEM, key := testKeyPEM(t)

	t.Run("explicit options", func(t *testing.T) {
		clearEnv(t)
		creds, err := ResolveCredentials(CredentialOptions{
			ClientID:   "client",
			TeamID:     "team",
			KeyID:      "key",
			PrivateKey: keyPEM,
		})
		require.NoError(t, err)
		assert.Equal(t, "client", creds.ClientID)
		assert.Equal(t, "team", creds.TeamID)
		assert.Equal(t, "key", creds.KeyID)
		assert.True(t, key.Equal(creds.SigningKey()))
	})

	t.Run("explicit options override environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvClientID, "env-client")
		t.Setenv(EnvTeamID, "env-team")
		t.Setenv(EnvKeyID, "env-key")
		t.Setenv(EnvPrivateKey, keyPEM)

		creds, err := ResolveCredentials(CredentialOptions{ClientID: "client", KeyID: "key"})
		require.NoError(t, err)
		assert.Equal(t, "client", creds.ClientID)
		assert.Equal(t, "env-team", creds.TeamID)
		assert.Equal(t, "key", creds.KeyID)
	})

	t.Run("environment only", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, os.WriteFile(path, []byte(keyPEM), 0o600))

		t.Setenv(EnvClientID, "env-client")
		t.Setenv(EnvTeamID, "env-team")
		t.Setenv(EnvKeyID, "env-key")
		t.Setenv(EnvPrivateKeyPath, path)

		creds, err := ResolveCredentials(CredentialOptions{})
		require.NoError(t, err)
		assert.Equal(t, "env-client", creds.ClientID)
		assert.Equal(t, keyPEM, creds.PrivateKey)
	})

	t.Run("explicit path wins over explicit content", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, os.WriteFile(path, []byte(keyPEM), 0o600))

		creds, err := ResolveCredentials(CredentialOptions{
			ClientID:       "client",
			TeamID:         "team",
			KeyID:          "key",
			PrivateKeyPath: path,
			PrivateKey:     "not a key",
		})
		require.NoError(t, err)
		assert.Equal(t, keyPEM, creds.PrivateKey)
	})

	t.Run("explicit content wins over environment path", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvPrivateKeyPath, filepath.Join(t.TempDir(), "missing.pem"))

		creds, err := ResolveCredentials(CredentialOptions{
			ClientID:   "client",
			TeamID:     "team",
			KeyID:      "key",
			PrivateKey: keyPEM,
		})
		require.NoError(t, err)
		assert.Equal(t, keyPEM, creds.PrivateKey)
	})
}

func TestResolveCredentialsMissing(t *testing.T) {
	keyPEM, _ := testKeyPEM(t)
	full := CredentialOptions{ClientID: "client", TeamID: "team", KeyID: "key", PrivateKey: keyPEM}

	tests := []struct {
		name    string
		mutate  func(*CredentialOptions)
		missing []string
	}{
		{name: "client id", mutate: func(o *CredentialOptions) { o.ClientID = "" }, missing: []string{"client_id"}},
		{name: "team id", mutate: func(o *CredentialOptions) { o.TeamID = "" }, missing: []string{"team_id"}},
		{name: "key id", mutate: func(o *CredentialOptions) { o.KeyID = " " }, missing: []string{"key_id"}},
		{name: "private key", mutate: func(o *CredentialOptions) { o.PrivateKey = "" }, missing: []string{"private_key"}},
		{
			name:    "everything",
			mutate:  func(o *CredentialOptions) { *o = CredentialOptions{} },
			missing: []string{"client_id", "team_id", "key_id", "private_key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			opts := full
			tt.mutate(&opts)

			_, err := ResolveCredentials(opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
			assert.True(t, errors.Is(err, ErrSearchAds))

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.missing, apiErr.Missing)
			for _, name := range tt.missing {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestResolveCredentialsInvalidKey(t *testing.T) {
	clearEnv(t)

	t.Run("not a PEM key", func(t *testing.T) {
		_, err := ResolveCredentials(CredentialOptions{
			ClientID: "client", TeamID: "team", KeyID: "key", PrivateKey: "garbage",
		})
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, KindOf(err))
		assert.Contains(t, err.Error(), "EC key")
	})

	t.Run("unreadable key file", func(t *testing.T) {
		_, err := ResolveCredentials(CredentialOptions{
			ClientID:       "client",
			TeamID:         "team",
			KeyID:          "key",
			PrivateKeyPath: filepath.Join(t.TempDir(), "does-not-exist.pem"),
		})
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, KindOf(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNewClientRequiresCredentials(t *testing.T) {
	clearEnv(t)

	_, err := NewClient(WithCredentials("client", "", "key"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}
