package handlers

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyAuth guards admin routes (admissions and payments) with one key
// stored as a bcrypt hash in ADMIN_API_KEY_HASH.
type APIKeyAuth struct {
	header string
	hash   []byte

	// accepted holds SHA-256 digests of keys that already passed bcrypt,
	// so the cost is paid once per process and the plain key is never kept.
	accepted sync.Map
}

// NewAPIKeyAuth returns an authenticator reading header (default X-API-Key)
// or a Bearer token. An empty hash turns the check off.
func NewAPIKeyAuth(header, bcryptHash string) *APIKeyAuth {
	if header == "" {
		header = "X-API-Key"
	}
	return &APIKeyAuth{header: header, hash: []byte(strings.TrimSpace(bcryptHash))}
}

func (a *APIKeyAuth) Enabled() bool { return len(a.hash) > 0 }

func (a *APIKeyAuth) IsValid(key string) bool {
	if key == "" || !a.Enabled() {
		return false
	}
	digest := sha256.Sum256([]byte(key))
	if _, ok := a.accepted.Load(digest); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(key)) != nil {
		return false
	}
	a.accepted.Store(digest, struct{}{})
	return true
}

func (a *APIKeyAuth) keyFrom(r *http.Request) string {
	if k := r.Header.Get(a.header); k != "" {
		return k
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch key := a.keyFrom(r); {
		case key == "":
			WriteError(w, http.StatusUnauthorized, "missing_api_key", "API key is required")
		case !a.IsValid(key):
			WriteError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
