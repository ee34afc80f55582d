// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import "errors"

// Sentinel errors for the retrieval pipeline.
var (
	ErrNoFiles             = errors.New("no files provided")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyQuery          = errors.New("query must not be empty")
	ErrNoDocuments         = errors.New("no documents have been uploaded")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrLegacyDoc           = errors.New("legacy binary .doc files cannot be read; save the file as .docx")
	ErrInvalidEncoding     = errors.New("text is not valid UTF-8")
)

// InputError is a client mistake whose Detail is returned verbatim as the
// HTTP 400 body.
type InputError struct {
	Err    error
	Detail string
}

func (e *InputError) Error() string {
	return e.Detail
}

func (e *InputError) Unwrap() error {
	return e.Err
}
