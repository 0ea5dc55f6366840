// Package server is the assistant endpoint the chat widget talks to:
// POST /chat, POST /reset and POST /upload, plus GET /healthz.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/linanwx/policychat/assistant"
	"github.com/linanwx/policychat/internal/health"
	"github.com/linanwx/policychat/logger"
)

// Answerer produces replies and owns the conversation memory.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
	Reset()
}

// Options configures the endpoint.
type Options struct {
	AllowedOrigins []string
	AnswerTimeout  time.Duration
}

// Server serves the endpoint.
type Server struct {
	answerer Answerer
	uploads  *UploadStore
	opts     Options
	started  time.Time
}

// New creates the endpoint.
func New(answerer Answerer, uploads *UploadStore, opts Options) *Server {
	if opts.AnswerTimeout <= 0 {
		opts.AnswerTimeout = 2 * time.Minute
	}
	return &Server{answerer: answerer, uploads: uploads, opts: opts, started: time.Now()}
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/healthz", s.handleHealth)
	return chainMiddlewares(mux, withCORS(s.opts.AllowedOrigins), withLogging)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("assistant endpoint listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("assistant endpoint stopped")
	return nil
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type uploadResponse struct {
	FilePath string `json:"file_path"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.AnswerTimeout)
	defer cancel()
	answer, err := s.answerer.Answer(ctx, req.Message)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "No message provided")
	case err != nil:
		logger.Error("chat failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, chatResponse{Response: answer})
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.answerer.Reset()
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads are disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxBytes()+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeError(w, http.StatusRequestEntityTooLarge, ErrTooLarge.Error())
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "No file provided")
		default:
			writeError(w, http.StatusBadRequest, "invalid multipart form")
		}
		return
	}
	defer file.Close()

	path, err := s.uploads.Save(header.Filename, file)
	switch {
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case err != nil:
		logger.Error("upload failed", "file", header.Filename, "err", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
	default:
		writeJSON(w, http.StatusOK, uploadResponse{FilePath: path})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	opts := health.Options{Started: s.started}
	if pc, ok := s.answerer.(interface{ PolicyPassages() int }); ok {
		n := pc.PolicyPassages()
		opts.Policies = &n
	}
	if s.uploads != nil {
		opts.UploadDir = s.uploads.Dir()
	}
	writeJSON(w, http.StatusOK, health.Collect(opts))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("response not written", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
