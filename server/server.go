// Package server exposes the detector over HTTP. Uploads are spooled to
// temporary files, compared, and always removed afterwards.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-plagio/detector"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

const (
	fieldFile1 = "file1"
	fieldFile2 = "file2"

	// RequestIDHeader carries the per-request id in both directions
	RequestIDHeader = "X-Request-ID"

	errMissingFiles = "Both audio files are required"
)

// Options configures the HTTP surface
type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	AllowedOrigin  string

	// TempDir receives uploaded files; empty uses os.TempDir
	TempDir string
}

// DefaultOptions returns sensible limits for the service
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes: 64 << 20,
		RequestTimeout: 2 * time.Minute,
		AllowedOrigin:  "*",
	}
}

// Server serves plagiarism checks
type Server struct {
	detector *detector.Detector
	opts     Options
	logger   logging.Logger
	mux      *http.ServeMux
}

// DetectResponse is the success body of /detect_plagiarism
type DetectResponse struct {
	SimilarityPercentage float64 `json:"similarity_percentage"`
	IsPlagiarized        bool    `json:"is_plagiarized"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates a server around a detector
func New(det *detector.Detector, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultOptions().MaxUploadBytes
	}
	s := &Server{
		detector: det,
		opts:     opts,
		logger: logging.WithFields(logging.Fields{
			"component": "http_server",
		}),
		mux: http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// WithLogger replaces the server's logger
func (s *Server) WithLogger(logger logging.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /detect_plagiarism", s.handleDetect)
	s.mux.HandleFunc("OPTIONS /detect_plagiarism", s.handlePreflight)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the root handler with request ids and CORS applied
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withCORS(s.mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logging.ContextWithFields(r.Context(), logging.Fields{
			"request_id": id,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.opts.AllowedOrigin
		if origin == "" {
			origin = "*"
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		h.Set("Access-Control-Expose-Headers", RequestIDHeader)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.WithContext(r.Context()).WithFields(logging.Fields{
		"function": "handleDetect",
	})
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		if errors.Is(err, http.ErrNotMultipart) {
			s.writeError(w, http.StatusBadRequest, errMissingFiles)
			return
		}
		logger.Error(err, "Failed to parse upload")
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file1, header1, err1 := r.FormFile(fieldFile1)
	file2, header2, err2 := r.FormFile(fieldFile2)
	if file1 != nil {
		defer file1.Close()
	}
	if file2 != nil {
		defer file2.Close()
	}
	if err1 != nil || err2 != nil {
		s.writeError(w, http.StatusBadRequest, errMissingFiles)
		return
	}

	path1, err := s.spool(file1, header1)
	if path1 != "" {
		defer s.remove(path1)
	}
	if err != nil {
		logger.Error(err, "Failed to store upload")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	path2, err := s.spool(file2, header2)
	if path2 != "" {
		defer s.remove(path2)
	}
	if err != nil {
		logger.Error(err, "Failed to store upload")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	result, err := s.detector.CompareFiles(ctx, path1, path2)
	if err != nil {
		logger.Error(err, "Comparison failed", logging.Fields{
			"file1": header1.Filename,
			"file2": header2.Filename,
		})
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("Plagiarism check completed", logging.Fields{
		"file1":                 header1.Filename,
		"file2":                 header2.Filename,
		"similarity_percentage": result.SimilarityPercentage,
		"is_plagiarized":        result.IsPlagiarized,
		"elapsed_ms":            time.Since(start).Milliseconds(),
	})

	s.writeJSON(w, http.StatusOK, DetectResponse{
		SimilarityPercentage: result.SimilarityPercentage,
		IsPlagiarized:        result.IsPlagiarized,
	})
}

// spool copies an upload into a temp file. The returned path is set whenever
// a file was created, even on error, so the caller can remove it.
func (s *Server) spool(src multipart.File, header *multipart.FileHeader) (string, error) {
	f, err := os.CreateTemp(s.opts.TempDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return path, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

func (s *Server) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to remove temp file", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// status is already on the wire
		s.logger.Debug("Failed to write response body", logging.Fields{
			"status": status,
			"error":  err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
