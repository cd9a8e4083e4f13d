package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/pkg/logger"
)

type callerKey struct{}

// Middleware resolves the caller identity from a bearer token
type Middleware struct {
	tokens *TokenService
	logger logger.Logger
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(tokens *TokenService, logger logger.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		logger: logger,
	}
}

// Require rejects requests without a valid bearer token
func (m *Middleware) Require(next http.Handler) http.Handler {
	return m.handle(next, true)
}

// Optional resolves the caller when a token is present. Requests without an
// Authorization header pass through anonymously; bad tokens are rejected.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return m.handle(next, false)
}

func (m *Middleware) handle(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			if required {
				unauthorized(w, "authorization header required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(w, "invalid authorization format")
			return
		}

		caller, err := m.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			m.logger.Debug("Rejected bearer token", "error", err)
			if errors.Is(err, ErrExpiredToken) {
				unauthorized(w, "token expired")
				return
			}
			unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// WithCaller stores the caller identity in ctx
func WithCaller(ctx context.Context, caller entity.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller identity placed in ctx by the middleware
func CallerFrom(ctx context.Context) (entity.Identity, bool) {
	caller, ok := ctx.Value(callerKey{}).(entity.Identity)
	return caller, ok && !caller.IsZero()
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="ledger"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
