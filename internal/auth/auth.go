// Package auth resolves who is calling: the vendor integration holding the
// shared API key, or a storefront customer holding a session.
package auth

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront-orders/internal/redisclient"

	"golang.org/x/crypto/pbkdf2"
)

// ErrUnauthenticated means the request carried no acceptable credentials
var ErrUnauthenticated = errors.New("unauthenticated")

const (
	APIKeyHeader      = "x-api-key"
	SessionCookieName = "session"

	pbkdf2Iterations = 10000
	pbkdf2KeyLen     = 64
)

type Method string

const (
	MethodAPIKey  Method = "api_key"
	MethodSession Method = "session"
)

// Principal is an authenticated caller. CustomerID is zero for API key callers.
type Principal struct {
	Method     Method
	CustomerID int64
	Token      string
}

// Authenticator inspects a request and returns the caller, or
// ErrUnauthenticated when its credentials are absent or wrong.
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
}

// HashAPIKey derives the stored form of an API key
func HashAPIKey(key, salt string) string {
	return hex.EncodeToString(pbkdf2.Key([]byte(key), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha512.New))
}

type APIKeyAuthenticator struct {
	hash []byte
	salt string
}

// NewAPIKeyAuthenticator expects the hex digest produced by HashAPIKey.
// An empty hash or salt disables API key auth.
func NewAPIKeyAuthenticator(hashHex, salt string) *APIKeyAuthenticator {
	hash, err := hex.DecodeString(strings.TrimSpace(hashHex))
	if err != nil || salt == "" {
		hash = nil
	}
	return &APIKeyAuthenticator{hash: hash, salt: salt}
}

func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	key := r.Header.Get(APIKeyHeader)
	if key == "" || len(a.hash) == 0 {
		return nil, ErrUnauthenticated
	}

	computed := pbkdf2.Key([]byte(key), []byte(a.salt), pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	if subtle.ConstantTimeCompare(computed, a.hash) != 1 {
		return nil, ErrUnauthenticated
	}
	return &Principal{Method: MethodAPIKey}, nil
}

// SessionLookup resolves a session token. It returns redisclient.ErrMiss
// for unknown or expired tokens.
type SessionLookup interface {
	GetSession(ctx context.Context, token string) (int64, error)
}

type SessionAuthenticator struct {
	sessions SessionLookup
}

func NewSessionAuthenticator(sessions SessionLookup) *SessionAuthenticator {
	return &SessionAuthenticator{sessions: sessions}
}

func (a *SessionAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	customerID, err := a.sessions.GetSession(r.Context(), token)
	if errors.Is(err, redisclient.ErrMiss) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	return &Principal{Method: MethodSession, CustomerID: customerID, Token: token}, nil
}

// TokenFromRequest reads the session token from the cookie, falling back
// to a bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Chain tries each authenticator in order and returns the first success.
// Infrastructure errors stop the chain.
type Chain []Authenticator

func (c Chain) Authenticate(r *http.Request) (*Principal, error) {
	for _, a := range c {
		p, err := a.Authenticate(r)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
	}
	return nil, ErrUnauthenticated
}
