package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// API keys look like sw_{env}_{prefix}_{secret}, for example
// sw_live_7a9f3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b.
const (
	KeyBrand     = "sw"
	KeyPrefixLen = 6
	KeySecretLen = 32
)

const (
	EnvLive = "live"
	EnvTest = "test"
)

var ErrInvalidKeyFormat = errors.New("invalid API key format")

// GeneratedKey is a fresh key. Only Hash and Prefix are persisted.
type GeneratedKey struct {
	Plaintext string
	Hash      string
	Prefix    string
}

// GenerateAPIKey mints a key for env. Unknown environments become live.
func GenerateAPIKey(env string) (*GeneratedKey, error) {
	if env != EnvTest {
		env = EnvLive
	}

	prefix, err := randomHex(KeyPrefixLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	secret, err := randomHex(KeySecretLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := strings.Join([]string{KeyBrand, env, prefix, secret}, "_")
	hash, err := HashSecret(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{Plaintext: plaintext, Hash: hash, Prefix: prefix}, nil
}

// ParsedKey holds the segments of a well-formed key.
type ParsedKey struct {
	Env    string
	Prefix string
	Secret string
}

// ParseAPIKey splits key into its segments, rejecting anything that
// GenerateAPIKey could not have produced.
func ParseAPIKey(key string) (*ParsedKey, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 4 || parts[0] != KeyBrand {
		return nil, ErrInvalidKeyFormat
	}
	env, prefix, secret := parts[1], parts[2], parts[3]
	if env != EnvLive && env != EnvTest {
		return nil, ErrInvalidKeyFormat
	}
	if !isLowerHex(prefix, KeyPrefixLen) || !isLowerHex(secret, KeySecretLen) {
		return nil, ErrInvalidKeyFormat
	}
	return &ParsedKey{Env: env, Prefix: prefix, Secret: secret}, nil
}

// LooksLikeAPIKey reports whether a credential should take the API key path.
// Anything else presented as a bearer token is treated as a session token.
func LooksLikeAPIKey(credential string) bool {
	return strings.HasPrefix(credential, KeyBrand+"_")
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func isLowerHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
