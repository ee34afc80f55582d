// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/bhashasutra/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type sampleRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=10"`
	Mode    string `json:"mode" validate:"omitempty,oneof=fast slow"`
	TopK    int    `json:"top_k" validate:"gte=1,lte=20"`
	Comment string `validate:"omitempty,notblank"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     sampleRequest
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid",
			input: sampleRequest{Name: "alice", Mode: "fast", TopK: 3},
		},
		{
			name:      "missing name",
			input:     sampleRequest{TopK: 3},
			wantField: "name",
			wantMsg:   "name is required",
		},
		{
			name:      "name too long",
			input:     sampleRequest{Name: "abcdefghijk", TopK: 3},
			wantField: "name",
			wantMsg:   "name must be at most 10 characters",
		},
		{
			name:      "bad mode",
			input:     sampleRequest{Name: "al", Mode: "medium", TopK: 3},
			wantField: "mode",
			wantMsg:   "mode must be one of: fast slow",
		},
		{
			name:      "top_k out of range",
			input:     sampleRequest{Name: "al", TopK: 50},
			wantField: "top_k",
			wantMsg:   "top_k must be less than or equal to 20",
		},
		{
			name:      "untagged field uses Go name",
			input:     sampleRequest{Name: "al", TopK: 1, Comment: "   "},
			wantField: "Comment",
			wantMsg:   "Comment must not be blank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("field = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_QueryRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.QueryRequest
		wantErr string
	}{
		{"valid", models.QueryRequest{Query: "what is nlp?"}, ""},
		{"with session", models.QueryRequest{Query: "q", SessionID: "abc"}, ""},
		{"empty query", models.QueryRequest{}, "query is required"},
		{"blank query", models.QueryRequest{Query: " \n\t"}, "query must not be blank"},
		{"huge query", models.QueryRequest{Query: strings.Repeat("a", 8001)}, "query must be at most 8000 characters"},
		{"long session", models.QueryRequest{Query: "q", SessionID: strings.Repeat("s", 129)}, "session_id must be at most 128 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if tt.wantErr == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", verr.Error(), tt.wantErr)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		verr := ValidateStruct(&sampleRequest{TopK: 1})
		apiErr := verr.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "name" {
			t.Errorf("details.field = %v", apiErr.Details["field"])
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		verr := ValidateStruct(&sampleRequest{Mode: "x"})
		apiErr := verr.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 3 {
			t.Fatalf("details.fields = %#v", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "name: name is required") {
			t.Errorf("message = %q", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("message = %q", apiErr.Message)
		}
	})
}
