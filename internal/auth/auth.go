package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Authenticator handles authentication
type Authenticator interface {
	AuthenticateRequest(r *http.Request) bool
	Enabled() bool
}

// CredentialAuthenticator checks the static AUTH_ID/AUTH_TOKEN pair. With an
// empty pair every request is accepted.
type CredentialAuthenticator struct {
	id    []byte
	token []byte
}

// NewCredentialAuthenticator creates an authenticator for the given pair
func NewCredentialAuthenticator(id, token string) *CredentialAuthenticator {
	return &CredentialAuthenticator{id: []byte(id), token: []byte(token)}
}

// Enabled reports whether the pair is configured
func (a *CredentialAuthenticator) Enabled() bool {
	return len(a.id) > 0 && len(a.token) > 0
}

// AuthenticateRequest checks the credentials presented by r
func (a *CredentialAuthenticator) AuthenticateRequest(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}

	id, token := extractCredentials(r)
	if id == "" || token == "" {
		return false
	}

	idOK := subtle.ConstantTimeCompare([]byte(id), a.id) == 1
	tokenOK := subtle.ConstantTimeCompare([]byte(token), a.token) == 1
	return idOK && tokenOK
}

// extractCredentials reads the pair from headers, falling back to query
// parameters for browser WebSocket clients that cannot set headers.
func extractCredentials(r *http.Request) (string, string) {
	id := r.Header.Get("X-Auth-Id")

	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
			token = strings.TrimSpace(authHeader[7:])
		}
	}

	if id == "" {
		id = r.URL.Query().Get("auth_id")
	}
	if token == "" {
		token = r.URL.Query().Get("auth_token")
	}
	return id, token
}
