// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package llm

import (
	"context"
	"sync"
)

// Fake is a scripted Generator for tests. Respond, when set, takes
// precedence over Response/Err.
type Fake struct {
	Response string
	Err      error
	Respond  func(req GenerateRequest) (string, error)

	mu    sync.Mutex
	calls []GenerateRequest
}

// Generate records req and returns the scripted answer.
func (f *Fake) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Respond != nil {
		return f.Respond(req)
	}
	return f.Response, f.Err
}

// Calls returns a copy of every request seen so far.
func (f *Fake) Calls() []GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]GenerateRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastCall returns the most recent request.
func (f *Fake) LastCall() (GenerateRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return GenerateRequest{}, false
	}
	return f.calls[len(f.calls)-1], true
}

var (
	_ Generator = (*Fake)(nil)
	_ Generator = (*Gemini)(nil)
)
