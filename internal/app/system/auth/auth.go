// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/tokens"
	"go.uber.org/zap"
)

var (
	// ErrMissingToken means no usable "Authorization: Bearer" header was sent.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken means the token failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is what a verified token proves about the caller.
type Identity struct {
	UserID string
	Email  string
}

// Verifier checks a raw token. *tokens.Issuer satisfies it.
type Verifier interface {
	Verify(raw string) (*tokens.Claims, error)
}

type ctxKey string

const identityKey ctxKey = "identity"

// Authenticator gates protected routes on a bearer token.
type Authenticator struct {
	verifier Verifier
	log      *zap.Logger
}

// NewAuthenticator returns an Authenticator backed by v.
func NewAuthenticator(v Verifier, logger *zap.Logger) *Authenticator {
	return &Authenticator{verifier: v, log: logger}
}

// Verify extracts and checks the token in an Authorization header value.
func (a *Authenticator) Verify(header string) (Identity, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Identity{}, ErrMissingToken
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissingToken
	}

	claims, err := a.verifier.Verify(raw)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Require halts the request with 401 unless it carries a valid bearer token.
// On success the caller's identity is stored in the request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Verify(r.Header.Get("Authorization"))
		if err != nil {
			a.log.Debug("bearer auth rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// CurrentIdentity returns the identity stored by Require.
func CurrentIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// UserID returns the authenticated subject id, or "" outside a protected route.
func UserID(ctx context.Context) string {
	id, _ := CurrentIdentity(ctx)
	return id.UserID
}
