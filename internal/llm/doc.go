// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

// Package llm provides the text generation client used by the RAG and
// BhashaGyan assistants.
//
// Gemini talks to the Gemini API through google.golang.org/genai. Every
// call passes through a Guard: a golang.org/x/time/rate token bucket
// followed by a sony/gobreaker circuit breaker whose state is exported as
// the circuit_breaker_state gauge. The same Guard type protects the genai
// embedding backend in the rag package.
//
// Fake is a scripted Generator for tests.
package llm
