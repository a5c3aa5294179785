// Package server exposes analysis runs, stored results and spreadsheet
// exports over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/termsearch/internal/app"
	"github.com/hyperifyio/termsearch/internal/export"
	"github.com/hyperifyio/termsearch/internal/extract"
	"github.com/hyperifyio/termsearch/internal/store"
)

// MaxUploadBytes bounds the body of one analyze request.
const MaxUploadBytes = 32 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Analyzer is the part of app.App the server needs.
type Analyzer interface {
	Analyze(ctx context.Context, uploads []app.Upload, terms []string) (app.Report, error)
	History(ctx context.Context, limit int) ([]store.Result, error)
	RunResults(ctx context.Context, runID string) ([]store.Result, error)
}

// Server routes HTTP requests to an Analyzer.
type Server struct {
	analyzer Analyzer
	mux      *http.ServeMux
}

// New builds the route table.
func New(a Analyzer) *Server {
	s := &Server{analyzer: a, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/results", s.handleResults)
	s.mux.HandleFunc("GET /api/runs/{id}/export.xlsx", s.handleExport)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "formats": extract.SupportedExtensions()})
	})
	return s
}

// ServeHTTP implements http.Handler. Every request gets an id that is echoed
// in X-Request-Id and attached to the access log line.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Request-Id")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", id)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.mux.ServeHTTP(rec, r.WithContext(log.With().Str("request_id", id).Logger().WithContext(r.Context())))
	log.Info().
		Str("request_id", id).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("listening")
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds 32 MiB")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	terms := app.ParseTerms(r.FormValue("terms"))
	files := r.MultipartForm.File["files"]
	if len(terms) == 0 || len(files) == 0 {
		writeError(w, http.StatusBadRequest, "both files and terms are required")
		return
	}

	dir, err := os.MkdirTemp("", "termsearch-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage uploads")
		return
	}
	defer os.RemoveAll(dir)

	uploads := make([]app.Upload, 0, len(files))
	for i, fh := range files {
		up, err := stage(dir, i, fh)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Str("file", fh.Filename).Msg("upload staging failed")
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", fh.Filename))
			return
		}
		uploads = append(uploads, up)
	}

	rep, err := s.analyzer.Analyze(r.Context(), uploads, terms)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, app.ErrNoTerms) || errors.Is(err, app.ErrNoDocuments) {
			status = http.StatusBadRequest
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("analyze failed")
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Report: rep, Groups: rep.ByTerm()})
}

type analyzeResponse struct {
	app.Report
	Groups []app.TermGroup `json:"groups"`
}

// stage copies an uploaded part to dir, keeping its extension so the
// extractor can be chosen from the name.
func stage(dir string, i int, fh *multipart.FileHeader) (app.Upload, error) {
	name := filepath.Base(fh.Filename)
	src, err := fh.Open()
	if err != nil {
		return app.Upload{}, err
	}
	defer src.Close()
	path := filepath.Join(dir, strconv.Itoa(i)+filepath.Ext(name))
	dst, err := os.Create(path)
	if err != nil {
		return app.Upload{}, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return app.Upload{}, err
	}
	if err := dst.Close(); err != nil {
		return app.Upload{}, err
	}
	return app.Upload{Name: name, Path: path}, nil
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	results, err := s.analyzer.History(r.Context(), limit)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("history failed")
		writeError(w, http.StatusInternalServerError, "cannot load results")
		return
	}
	if results == nil {
		results = []store.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	results, err := s.analyzer.RunResults(r.Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown run")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Str("run", runID).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "cannot load run")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, app.StoredRows(results)); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("xlsx export failed")
		writeError(w, http.StatusInternalServerError, "cannot build spreadsheet")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="search_results.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
