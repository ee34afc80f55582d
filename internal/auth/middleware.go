// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/models"
)

// Auth modes accepted by security.auth_mode.
const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

type contextKey string

// ClaimsContextKey holds the verified *Claims on the request context.
const ClaimsContextKey contextKey = "claims"

var (
	errMissingToken  = errors.New("missing bearer token")
	errInvalidHeader = errors.New("invalid authorization header")
)

// Middleware guards mutating routes with bearer token verification.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
}

// NewMiddleware creates the guard. jwtManager may be nil when authMode is
// "none".
func NewMiddleware(jwtManager *JWTManager, authMode string) *Middleware {
	if authMode == "" {
		authMode = AuthModeNone
	}
	return &Middleware{jwtManager: jwtManager, authMode: authMode}
}

// Enabled reports whether requests are actually verified.
func (m *Middleware) Enabled() bool {
	return m.authMode == AuthModeJWT && m.jwtManager != nil
}

// Authenticate rejects requests without a valid Bearer token with 401 and
// a {"detail": ...} body. It passes everything through when auth is off.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if errors.Is(err, errMissingToken) {
			writeUnauthorized(w, "Not authenticated")
			return
		}
		if err != nil {
			writeUnauthorized(w, "Invalid authorization header")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			writeUnauthorized(w, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errInvalidHeader
	}
	return strings.TrimSpace(parts[1]), nil
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(models.DetailResponse{Detail: detail}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth error")
	}
}
