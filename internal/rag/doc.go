// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package rag implements retrieval-augmented question answering over uploaded
documents.

# Pipeline

Uploads flow through LoadFile (PDF via ledongthuc/pdf, DOCX via the
WordprocessingML body, plain text), Splitter (langchaingo's recursive
character splitter, 1000/200 by default) and an Embedder before landing in
the VectorStore and the documents/chunks tables. A batch either commits
completely or leaves no trace.

Queries are embedded (through a TTL-bounded LRU), matched against the store
by cosine similarity, and answered by an llm.Generator with the prompt

	System: <system prompt>

	Context: <top chunks joined by blank lines>

	User: <query>

preceded by the session's recent conversation from llm.Memory.

# Embeddings

HashEmbedder is the default: a deterministic hashed bag of words with
bigrams. GenAIEmbedder calls the Gemini embedding API behind an llm.Guard.
Either may be wrapped in CachedEmbedder, a BadgerDB store keyed by
sha256(model || text) whose value log is collected by the middleware
janitor.

# Restart

Restore reloads persisted chunks into the vector store at startup, reusing
stored vectors when their size matches the current embedder.
*/
package rag
