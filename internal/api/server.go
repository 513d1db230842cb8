// Package api exposes the scoring core over HTTP: the one server both UI
// shells (the labeling tool and the game) talk to. Exactly one play session
// is live at a time; the server serializes all access to it.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nrodrigues/niri-trainer-go/internal/content"
	"github.com/nrodrigues/niri-trainer-go/internal/ranking"
	"github.com/nrodrigues/niri-trainer-go/internal/session"
	"github.com/nrodrigues/niri-trainer-go/internal/store"
)

// Server handles HTTP requests
type Server struct {
	db              store.DB
	board           *ranking.Board
	logger          *log.Logger
	startTime       time.Time
	annotationsPath string
	startingLives   int

	mu      sync.Mutex
	records []content.Record
	sess    *session.Session
}

// Options configures a new server.
type Options struct {
	// AnnotationsPath, when set, is where replaced record sets are written.
	AnnotationsPath string
	// StartingLives for new sessions; 0 picks the session default.
	StartingLives int
	Logger        *log.Logger
}

// NewServer creates a new API server over the given store, annotation
// records, and ranking board.
func NewServer(db store.DB, records []content.Record, board *ranking.Board, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	}

	return &Server{
		db:              db,
		board:           board,
		records:         records,
		logger:          logger,
		startTime:       time.Now(),
		annotationsPath: opts.AnnotationsPath,
		startingLives:   opts.StartingLives,
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/annotations", s.handleGetAnnotations)
		r.Post("/annotations", s.handlePostAnnotations)
		r.Post("/score", s.handleScore)

		r.Post("/session/start", s.handleStartSession)
		r.Get("/session", s.handleSessionState)
		r.Post("/session/submit", s.handleSubmit)
		r.Post("/session/advance", s.handleAdvance)

		r.Get("/ranking", s.handleRanking)
	})

	return r
}

// CORSMiddleware allows the browser-based shells to call the API.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Trainer-Version", Version)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string, context map[string]interface{}) {
	apiErr := APIError{
		Type:      errType,
		Message:   message,
		Context:   context,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	s.logger.Printf("error_occurred type=%s status=%d request_id=%s path=%s message=%q",
		errType, status, apiErr.RequestID, r.URL.Path, message)

	s.writeJSON(w, status, apiErr)
}

// state snapshots the live session under the lock. Callers hold s.mu.
func (s *Server) state() SessionState {
	st := SessionState{
		SessionID: s.sess.ID(),
		Player:    s.sess.Player(),
		Tier:      s.sess.Tier(),
		Round:     s.sess.Round(),
		Rounds:    s.sess.Rounds(),
		Points:    s.sess.Points(),
		Lives:     s.sess.Lives(),
		Streak:    s.sess.Streak(),
		MaxStreak: s.sess.MaxStreak(),
		Ended:     s.sess.Ended(),
	}

	if rec, err := s.sess.Current(); err == nil {
		st.ImageName = rec.ImageName
		st.Difficulty = rec.Difficulty
	}

	return st
}
