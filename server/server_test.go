package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-plagio/detector"
	"github.com/RyanBlaney/sonido-plagio/internal/audiotest"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

const sr = 22050

type upload struct {
	field, name string
	data        []byte
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	logging.SetGlobalLogger(&logging.NoOpLogger{})

	det, err := detector.New(detector.Options{Logger: &logging.NoOpLogger{}})
	if err != nil {
		t.Fatalf("detector.New: %v", err)
	}
	tmp := t.TempDir()
	opts := DefaultOptions()
	opts.TempDir = tmp
	return New(det, opts).WithLogger(&logging.NoOpLogger{}), tmp
}

func multipartRequest(t *testing.T, uploads ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		fw, err := mw.CreateFormFile(u.field, u.name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(u.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/detect_plagiarism", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func toneWAV(t *testing.T) []byte {
	t.Helper()
	data, err := audiotest.WAVBytes(t.TempDir(), sr, 1, audiotest.Scale(audiotest.Sine(440, sr, sr), 0.5))
	if err != nil {
		t.Fatalf("WAVBytes: %v", err)
	}
	return data
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %d", len(entries))
	}
}

func TestDetectPlagiarismSuccess(t *testing.T) {
	srv, tmp := newTestServer(t)
	wav := toneWAV(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t,
		upload{fieldFile1, "a.wav", wav},
		upload{fieldFile2, "b.wav", wav},
	))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp DetectResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsPlagiarized || resp.SimilarityPercentage < 95 {
		t.Errorf("response = %+v", resp)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
	assertDirEmpty(t, tmp)
}

func TestDetectPlagiarismMissingFile(t *testing.T) {
	srv, tmp := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, upload{fieldFile1, "a.wav", toneWAV(t)}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "Both audio files are required" {
		t.Errorf("error = %q", resp.Error)
	}
	assertDirEmpty(t, tmp)
}

func TestDetectPlagiarismNotMultipart(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/detect_plagiarism", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDetectPlagiarismEmptyUpload(t *testing.T) {
	srv, tmp := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t,
		upload{fieldFile1, "a.wav", toneWAV(t)},
		upload{fieldFile2, "empty.wav", nil},
	))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" {
		t.Error("empty error message")
	}
	assertDirEmpty(t, tmp)
}

func TestPreflightAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/detect_plagiarism", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight missing allow-methods")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want echo", got)
	}
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (w brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	srv, _ := newTestServer(t)
	var logs bytes.Buffer
	logger := logging.NewDefaultLoggerWithWriters(&logs, &logs)
	logger.SetLevel(logging.DebugLevel)
	srv.WithLogger(logger)

	w := brokenWriter{httptest.NewRecorder()}
	srv.writeJSON(w, http.StatusOK, DetectResponse{SimilarityPercentage: 50})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	out := logs.String()
	if !strings.Contains(out, "Failed to write response body") || !strings.Contains(out, "connection reset") {
		t.Errorf("logs = %q", out)
	}
}
