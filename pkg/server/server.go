// Package server exposes the HTTP surface shared by both listeners: the
// trigger endpoint, the stored-report feed, and the embedded notebook page.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muratcankoylan/feed2context/pkg/types"
)

//go:embed web/index.html
var notebookPage []byte

// detail echoes at most this many runes of raw upstream output back to the
// extension; full transcripts go to the log instead.
const maxDetailRunes = 2048

// TriggerRunner runs one post URL through the whole pipeline.
// *pipeline.Pipeline satisfies it.
type TriggerRunner interface {
	Run(ctx context.Context, url, note string) (*types.Report, error)
}

// ReportSource reads back persisted reports, newest first.
// *report.Store satisfies it.
type ReportSource interface {
	Recent(limit int) ([]types.Report, error)
}

// Server handles the routes served identically on every listener.
type Server struct {
	runner  TriggerRunner
	reports ReportSource
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a Server. triggerTimeout bounds each pipeline run; zero or
// negative falls back to three minutes.
func New(runner TriggerRunner, reports ReportSource, triggerTimeout time.Duration, logger *zap.Logger) *Server {
	if triggerTimeout <= 0 {
		triggerTimeout = 180 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		runner:  runner,
		reports: reports,
		timeout: triggerTimeout,
		logger:  logger,
	}
}

// Handler returns the full route tree with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/reports", withJSON(s.handleReports))
	mux.HandleFunc("/trigger", withJSON(s.handleTrigger))
	mux.HandleFunc("/", s.handleIndex)
	return s.logRequest(cors(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(notebookPage)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if r.Method != http.MethodGet {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 200, 1, 200)
	reports, err := s.reports.Recent(limit)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return reports, http.StatusOK, nil
}

type triggerRequest struct {
	URL  string `json:"url"`
	Note string `json:"note"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if r.Method != http.MethodPost {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("decode trigger body: %w", err)
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, http.StatusBadRequest, errors.New("missing url")
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	report, err := s.runner.Run(ctx, req.URL, req.Note)
	if err != nil {
		status := statusForRunError(err)
		s.logger.Warn("trigger failed",
			zap.String("url", req.URL),
			zap.Int("status", status),
			zap.Error(err))
		return nil, status, err
	}
	return report, http.StatusOK, nil
}

// statusForRunError maps pipeline failures to HTTP statuses: upstream stage
// failures are 502, persisting a finished report is our fault and gets 500.
func statusForRunError(err error) int {
	var stageErr *types.StageError
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError
	}
	if stageErr.Stage == types.StageStoreWrite {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func errorBody(err error) errorResponse {
	body := errorResponse{Error: err.Error()}
	var stageErr *types.StageError
	if errors.As(err, &stageErr) {
		body.Detail = truncateRunes(stageErr.Raw, maxDetailRunes)
	}
	return body
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func withJSON(handler func(http.ResponseWriter, *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, status, err := handler(w, r)
		if err != nil {
			writeJSON(w, status, errorBody(err))
			return
		}
		writeJSON(w, status, payload)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// cors answers preflights and marks every response as callable from any
// origin; the extension posts from social-site pages.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func parseLimit(value string, fallback, min, max int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}
