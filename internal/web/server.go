package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Rorical/RoriLog/internal/bridge"
	"github.com/Rorical/RoriLog/internal/store"
)

//go:embed templates/*.html
var assetsFS embed.FS

const maxBodyBytes = 1 << 20

// Server exposes an entry store over HTTP: a plain HTML page for browsers
// and a JSON API the remote bridge talks to.
type Server struct {
	store *store.EntryStore
	tmpl  *template.Template
}

type pageVM struct {
	Entries []string
	Input   string
	Error   string
}

type entriesResponse struct {
	Entries []string `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type appendRequest struct {
	Text any `json:"text"`
}

func NewServer(st *store.EntryStore) (*Server, error) {
	if st == nil {
		return nil, errors.New("web: store is nil")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{store: st, tmpl: tmpl}, nil
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/entries", s.handleFormAppend).Methods(http.MethodPost)
	r.HandleFunc("/api/entries", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/entries", s.handleAppend).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ReadAll(r.Context())
	if err != nil {
		slog.Error("reading entries", "error", err)
		http.Error(w, bridge.LoadFailureMessage, http.StatusInternalServerError)
		return
	}
	s.writePage(w, http.StatusOK, pageVM{Entries: entries})
}

func (s *Server) handleFormAppend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text := r.PostForm.Get("text")
	if _, err := s.store.Append(r.Context(), text); err != nil {
		status := http.StatusInternalServerError
		if store.IsValidationError(err) {
			status = http.StatusBadRequest
		} else {
			slog.Error("appending entry", "error", err)
		}
		entries, readErr := s.store.ReadAll(r.Context())
		if readErr != nil {
			entries = nil
		}
		s.writePage(w, status, pageVM{Entries: entries, Input: text, Error: bridge.SaveFailure(err.Error())})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ReadAll(r.Context())
	if err != nil {
		slog.Error("reading entries", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: bridge.LoadFailureMessage})
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: entries})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	entries, err := s.store.AppendValue(r.Context(), req.Text)
	if err != nil {
		if store.IsValidationError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		slog.Error("appending entry", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: bridge.FailureMessage})
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writePage(w http.ResponseWriter, status int, vm pageVM) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, "index", vm); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, b.String())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
