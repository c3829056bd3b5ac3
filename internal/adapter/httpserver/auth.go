package httpserver

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// Argon2Params defines parameters for Argon2id key hashing
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultArgon2Params are used when hashing new API keys.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLen:     16,
	KeyLen:      32,
}

// HashAPIKey creates an Argon2id hash of key suitable for API_KEY_HASH.
func HashAPIKey(key string, params Argon2Params) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLen)

	// Format: argon2id$iterations$memory$parallelism$salt$hash (base64 encoded)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		params.Iterations,
		params.Memory,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyAPIKey verifies key against its Argon2id hash.
func VerifyAPIKey(key, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false
	}
	iters, err1 := parseUint32(parts[1])
	mem, err2 := parseUint32(parts[2])
	par32, err3 := parseUint32(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	par := uint8(math.MaxUint8)
	if par32 < math.MaxUint8 {
		par = uint8(par32)
	}
	actual := argon2.IDKey([]byte(key), salt, iters, mem, par, uint32(len(expected))) //nolint:gosec // length of a decoded hash
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// APIKeyGuard rejects requests that do not present the key matching
// encodedHash in "Authorization: Bearer" or "X-API-Key". Keys that already
// verified are remembered by digest so Argon2 runs once per distinct key.
func APIKeyGuard(encodedHash string) func(http.Handler) http.Handler {
	var verified sync.Map
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			if key == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeError(w, r, fmt.Errorf("%w: API key required", domain.ErrUnauthorized), nil)
				return
			}
			digest := sha256.Sum256([]byte(key))
			if _, ok := verified.Load(digest); !ok {
				if !VerifyAPIKey(key, encodedHash) {
					writeError(w, r, fmt.Errorf("%w: invalid API key", domain.ErrUnauthorized), nil)
					return
				}
				verified.Store(digest, struct{}{})
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// parseUint32 parses a decimal string into uint32; returns error on failure
func parseUint32(s string) (uint32, error) {
	x, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse")
	}
	return uint32(x), nil
}
