// Package server exposes extraction and batching over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nodewee/doc-translate-prep/pkg/batcher"
	"github.com/nodewee/doc-translate-prep/pkg/config"
	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/manifest"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

const (
	maxRequestBytes = 16 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API
type Server struct {
	processor interfaces.DocumentProcessor
	cfg       *config.Config
	store     *manifest.Store
	logger    *logger.Logger
	router    *chi.Mux
}

// ExtractRequest is the body of POST /v1/extract
type ExtractRequest struct {
	Path           string `json:"path"`
	TargetLanguage string `json:"target_language"`
	IgnoreHidden   bool   `json:"ignore_hidden"`
	GroupSize      int    `json:"group_size,omitempty"`
	MaxSize        int    `json:"max_size,omitempty"`
}

// BatchRequest is the body of POST /v1/batches
type BatchRequest struct {
	Items     []string `json:"items"`
	GroupSize int      `json:"group_size,omitempty"`
	MaxSize   int      `json:"max_size,omitempty"`
	Metric    string   `json:"metric,omitempty"`
}

// ExtractedFile is one extraction result with its batches
type ExtractedFile struct {
	*types.ExtractionResult
	Batches    []types.Batch `json:"batches"`
	DocumentID int64         `json:"document_id,omitempty"`
}

// ExtractResponse is the body returned by POST /v1/extract
type ExtractResponse struct {
	RunID string          `json:"run_id,omitempty"`
	Files []ExtractedFile `json:"files"`
}

// BatchResponse is the body returned by POST /v1/batches
type BatchResponse struct {
	Batches []types.Batch `json:"batches"`
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// New creates a server. store may be nil, in which case nothing is recorded.
func New(processor interfaces.DocumentProcessor, cfg *config.Config, store *manifest.Store, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{
		processor: processor,
		cfg:       cfg,
		store:     store,
		logger:    log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.EnableVerbose {
		r.Use(middleware.Logger)
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Post("/batches", s.handleBatches)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.ProgressAlways("🌐", "Listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return utils.NewError(utils.ErrorTypeSystem, "server stopped", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" || req.TargetLanguage == "" {
		s.writeError(w, r, utils.NewValidationError("path and target_language are required", nil))
		return
	}

	size, err := batcher.MetricByName(s.cfg.SizeMetric)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	groupSize, maxSize := s.limits(req.GroupSize, req.MaxSize)

	results, err := s.processor.GetDocumentText(r.Context(), req.Path, false, req.TargetLanguage, req.IgnoreHidden)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := ExtractResponse{Files: make([]ExtractedFile, 0, len(results))}
	if s.store != nil {
		if resp.RunID, err = s.store.StartRun(r.Context(), req.TargetLanguage); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	for _, result := range results {
		batches, err := batcher.Split(result.Document.Flatten(), groupSize, maxSize, batcher.WithSize(size))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		file := ExtractedFile{ExtractionResult: result, Batches: batches}
		if s.store != nil {
			if file.DocumentID, err = s.store.RecordDocument(r.Context(), resp.RunID, result, batches); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		resp.Files = append(resp.Files, file)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	metric := req.Metric
	if metric == "" {
		metric = s.cfg.SizeMetric
	}
	size, err := batcher.MetricByName(metric)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	groupSize, maxSize := s.limits(req.GroupSize, req.MaxSize)

	batches, err := batcher.Split(req.Items, groupSize, maxSize, batcher.WithSize(size))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if batches == nil {
		batches = []types.Batch{}
	}
	writeJSON(w, http.StatusOK, BatchResponse{Batches: batches})
}

// limits fills unset request limits from the configuration
func (s *Server) limits(groupSize, maxSize int) (int, int) {
	if groupSize == 0 {
		groupSize = s.cfg.GroupSize
	}
	if maxSize == 0 {
		maxSize = s.cfg.MaxSize
	}
	return groupSize, maxSize
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return utils.NewValidationError("invalid request body", err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errType := utils.GetErrorType(err)
	status := statusFor(statusType(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}

	msg := err.Error()
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	writeJSON(w, status, errorResponse{Error: msg, Type: string(errType)})
}

// statusType is the error type that decides the HTTP status. An aggregate
// takes the type of its first cause.
func statusType(err error) utils.ErrorType {
	errType := utils.GetErrorType(err)
	if errType != utils.ErrorTypeAggregate {
		return errType
	}
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		return errType
	}
	if multi, ok := appErr.Cause.(interface{ Unwrap() []error }); ok {
		if causes := multi.Unwrap(); len(causes) > 0 {
			return statusType(causes[0])
		}
	}
	return errType
}

func statusFor(errType utils.ErrorType) int {
	switch errType {
	case utils.ErrorTypeValidation, utils.ErrorTypeUnsupported:
		return http.StatusBadRequest
	case utils.ErrorTypeNotFound:
		return http.StatusNotFound
	case utils.ErrorTypePermission:
		return http.StatusForbidden
	case utils.ErrorTypeConversion, utils.ErrorTypeParse, utils.ErrorTypeEncoding:
		return http.StatusUnprocessableEntity
	case utils.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
