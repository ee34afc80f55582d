// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bhashasutra/internal/models"
)

func TestAuthenticate(t *testing.T) {
	manager := newTestManager(t)
	valid, err := manager.GenerateToken("ops", RoleOperator, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name       string
		mode       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"auth disabled", AuthModeNone, "", http.StatusOK, ""},
		{"valid token", AuthModeJWT, "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", AuthModeJWT, "bearer " + valid, http.StatusOK, ""},
		{"missing header", AuthModeJWT, "", http.StatusUnauthorized, "Not authenticated"},
		{"basic scheme", AuthModeJWT, "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "Invalid authorization header"},
		{"empty bearer", AuthModeJWT, "Bearer ", http.StatusUnauthorized, "Invalid authorization header"},
		{"bad token", AuthModeJWT, "Bearer nope", http.StatusUnauthorized, "Could not validate credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotClaims *Claims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotClaims, _ = ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			m := NewMiddleware(manager, tt.mode)
			req := httptest.NewRequest(http.MethodPost, "/rag/upload", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Authenticate(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if tt.mode == AuthModeJWT && (gotClaims == nil || gotClaims.Subject != "ops") {
					t.Errorf("claims not propagated: %+v", gotClaims)
				}
				return
			}

			if rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("missing WWW-Authenticate header")
			}
			var body models.DetailResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
			}
		})
	}
}

func TestNewMiddleware_Defaults(t *testing.T) {
	if NewMiddleware(nil, "").Enabled() {
		t.Error("empty mode should disable auth")
	}
	if NewMiddleware(nil, AuthModeJWT).Enabled() {
		t.Error("jwt mode without a manager should not be enabled")
	}
}
