package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env        string
		wantPrefix string
	}{
		{EnvLive, "sw_live_"},
		{EnvTest, "sw_test_"},
		{"", "sw_live_"},
		{"staging", "sw_live_"},
	}

	for _, tt := range tests {
		t.Run("env="+tt.env, func(t *testing.T) {
			t.Parallel()

			key, err := GenerateAPIKey(tt.env)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(key.Plaintext, tt.wantPrefix), key.Plaintext)
			assert.Len(t, key.Prefix, KeyPrefixLen)
			assert.Contains(t, key.Plaintext, "_"+key.Prefix+"_")
			assert.True(t, strings.HasPrefix(key.Hash, "$argon2id$v="))

			parsed, err := ParseAPIKey(key.Plaintext)
			require.NoError(t, err)
			assert.Equal(t, key.Prefix, parsed.Prefix)
			assert.Len(t, parsed.Secret, KeySecretLen)

			ok, err := VerifySecret(key.Plaintext, key.Hash)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestGenerateAPIKey_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		key, err := GenerateAPIKey(EnvTest)
		require.NoError(t, err)
		assert.False(t, seen[key.Plaintext], "duplicate key at iteration %d", i)
		seen[key.Plaintext] = true
	}
}

func TestParseAPIKey(t *testing.T) {
	t.Parallel()

	const secret = "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"

	valid := []struct {
		key        string
		wantEnv    string
		wantPrefix string
	}{
		{"sw_live_abc123_" + secret, EnvLive, "abc123"},
		{"sw_test_def456_" + secret, EnvTest, "def456"},
	}
	for _, tt := range valid {
		parsed, err := ParseAPIKey(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.wantEnv, parsed.Env)
		assert.Equal(t, tt.wantPrefix, parsed.Prefix)
		assert.Equal(t, secret, parsed.Secret)
	}

	invalid := []string{
		"",
		"invalid",
		"sw_live_",
		"pk_live_abc123_" + secret,
		"sw_prod_abc123_" + secret,
		"sw_live_abc_" + secret,
		"sw_live_abc123_4f8d2e1b",
		"sw_live_abc123_" + secret + "x",
		"sw_live_ABC123_" + strings.ToUpper(secret),
	}
	for _, key := range invalid {
		_, err := ParseAPIKey(key)
		assert.ErrorIs(t, err, ErrInvalidKeyFormat, key)
	}
}

func TestLooksLikeAPIKey(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksLikeAPIKey("sw_live_abc123_whatever"))
	assert.True(t, LooksLikeAPIKey("sw_garbage"))
	assert.False(t, LooksLikeAPIKey("eyJhbGciOiJIUzI1NiJ9.e30.sig"))
	assert.False(t, LooksLikeAPIKey(""))
}
