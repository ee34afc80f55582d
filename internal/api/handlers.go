// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/models"
	"github.com/tomtom215/bhashasutra/internal/rag"
	"github.com/tomtom215/bhashasutra/internal/validation"
)

const (
	uploadField      = "files"
	multipartMemory  = 8 << 20
	maxQueryBodySize = 1 << 20
)

// Pinger reports database reachability. Implemented by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the REST endpoints.
type Handler struct {
	rag     *rag.Service
	db      Pinger
	cfg     *config.Config
	version string
}

// NewHandler creates the REST handlers. db may be nil.
func NewHandler(cfg *config.Config, svc *rag.Service, db Pinger) *Handler {
	return &Handler{rag: svc, db: db, cfg: cfg, version: cfg.Server.Version}
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.RootResponse{
		Message: "Welcome to the Bhashasutra API",
		Status:  "Running",
		Version: h.version,
	})
}

// Health handles GET /health. A database failure is reported in the body;
// the status code stays 200 so the API itself reads as alive.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{APIStatus: "OK", DatabaseStatus: "OK"}

	if h.db == nil {
		resp.DatabaseStatus = "Error: database not initialized"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Database health check failed")
			resp.DatabaseStatus = fmt.Sprintf("Error: %v", err)
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Upload handles POST /rag/upload with one or more multipart "files".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	files, err := h.readUploads(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDetail(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds the %d byte limit", tooLarge.Limit))
			return
		}
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.rag.Ingest(r.Context(), files)
	if err != nil {
		var inputErr *rag.InputError
		if errors.As(err, &inputErr) {
			respondDetail(w, http.StatusBadRequest, inputErr.Detail)
			return
		}
		respondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) readUploads(w http.ResponseWriter, r *http.Request) ([]rag.UploadedFile, error) {
	if limit := h.cfg.RAG.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			// No multipart body is the same as no files.
			return nil, nil
		}
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	files := make([]rag.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, rag.UploadedFile{Filename: fh.Filename, Data: data})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Query handles POST /rag/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxQueryBodySize)).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondDetail(w, http.StatusBadRequest, verr.ToAPIError().Message)
		return
	}

	respondJSON(w, http.StatusOK, h.rag.Query(r.Context(), req.SessionID, req.Query, rag.TransportHTTP))
}

// ListDocuments handles GET /rag/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	list, err := h.rag.ListDocuments(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to list documents", err)
		return
	}
	respondEnvelope(w, start, list)
}

// DeleteDocuments handles DELETE /rag/documents.
func (h *Handler) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rag.DeleteDocuments(r.Context()))
}

// ClearMemory handles DELETE /rag/memory. Without session_id every
// conversation is cleared.
func (h *Handler) ClearMemory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rag.ClearMemory(r.URL.Query().Get("session_id")))
}
