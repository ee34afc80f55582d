// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

// Package chat implements BhashaGyan, a websocket tutor for NLP and machine
// learning questions.
//
// Clients send {"message": "..."} frames and receive {"type", "message"}
// frames of type greeting, response or error. Answers come from an
// llm.Generator with the configured persona as system instruction and the
// session's recent turns as history. Memory lives only as long as the
// connection.
package chat
