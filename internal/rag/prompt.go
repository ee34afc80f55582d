// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import "strings"

// BuildContext joins retrieved chunk contents with blank lines.
func BuildContext(hits []ScoredChunk) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt renders the grounded user turn.
func BuildPrompt(systemPrompt, context, query string) string {
	var b strings.Builder
	b.Grow(len(systemPrompt) + len(context) + len(query) + 32)
	b.WriteString("System: ")
	b.WriteString(systemPrompt)
	b.WriteString("\n\nContext: ")
	b.WriteString(context)
	b.WriteString("\n\nUser: ")
	b.WriteString(query)
	return b.String()
}
