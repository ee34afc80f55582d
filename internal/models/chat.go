// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package models

// Chat frame types sent on /ws/bhashagyan.
const (
	ChatTypeGreeting = "greeting"
	ChatTypeResponse = "response"
	ChatTypeError    = "error"
)

// ChatRequest is a client frame on /ws/bhashagyan.
type ChatRequest struct {
	Message *string `json:"message"`
}

// ChatReply is a server frame on /ws/bhashagyan.
type ChatReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
