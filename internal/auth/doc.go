// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package auth provides the optional bearer token guard for mutating routes.

There are no user accounts. Operators mint HS256 tokens offline with
cmd/tokengen using the same JWT_SECRET as the server, and present them as
"Authorization: Bearer <token>" on POST /rag/upload, DELETE /rag/documents
and DELETE /rag/memory when AUTH_MODE=jwt.

Key Components:

  - JWTManager: token minting and verification (HS256, issuer pinned,
    expiry required)
  - Middleware: chi-compatible http.Handler wrapper returning 401 with a
    {"detail": ...} body

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	guard := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)
	r.With(guard.Authenticate).Post("/rag/upload", h.RAGUpload)
*/
package auth
