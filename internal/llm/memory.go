// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package llm

import "sync"

// Memory keeps ordered conversation messages per session.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]Message
	limit    int
}

// NewMemory creates a conversation store keeping at most limit messages
// per session; limit <= 0 keeps everything.
func NewMemory(limit int) *Memory {
	return &Memory{sessions: make(map[string][]Message), limit: limit}
}

// Append records one exchange: the user's message and the model's answer.
func (m *Memory) Append(session, user, ai string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := append(m.sessions[session],
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAI, Content: ai},
	)
	if m.limit > 0 && len(msgs) > m.limit {
		msgs = append([]Message(nil), msgs[len(msgs)-m.limit:]...)
	}
	m.sessions[session] = msgs
}

// History returns a copy of the last window messages of session, oldest
// first. window <= 0 returns everything.
func (m *Memory) History(session string, window int) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.sessions[session]
	if window > 0 && len(msgs) > window {
		msgs = msgs[len(msgs)-window:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clear forgets one session.
func (m *Memory) Clear(session string) {
	m.mu.Lock()
	delete(m.sessions, session)
	m.mu.Unlock()
}

// ClearAll forgets every session.
func (m *Memory) ClearAll() {
	m.mu.Lock()
	m.sessions = make(map[string][]Message)
	m.mu.Unlock()
}

// Sessions returns the number of sessions with history.
func (m *Memory) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
