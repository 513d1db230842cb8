package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nrodrigues/niri-trainer-go/internal/content"
	"github.com/nrodrigues/niri-trainer-go/internal/scoring"
	"github.com/nrodrigues/niri-trainer-go/internal/session"
	"github.com/nrodrigues/niri-trainer-go/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := len(s.records)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Uptime:    time.Since(s.startTime).String(),
		Records:   records,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetAnnotations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := append([]content.Record(nil), s.records...)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, AnnotationsResponse{
		Records: records,
		Count:   len(records),
	})
}

// handlePostAnnotations replaces the served record set. Every record must
// validate; one bad record rejects the whole upload. A failed disk write is
// reported as a warning, not a failure: the in-memory set is already live.
func (s *Server) handlePostAnnotations(w http.ResponseWriter, r *http.Request) {
	var records []content.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"invalid request body", map[string]interface{}{"cause": err.Error()})
		return
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
				fmt.Sprintf("record %d rejected", i),
				map[string]interface{}{"cause": err.Error()})
			return
		}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	resp := PostAnnotationsResponse{Count: len(records)}
	if s.annotationsPath != "" {
		if err := content.Save(s.annotationsPath, records); err != nil {
			s.logger.Printf("WARN: annotations accepted but not persisted: %v", err)
			resp.Warning = "records accepted but could not be written to disk"
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleScore is a stateless probe: score one candidate against one truth
// polygon, outside any session.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"invalid request body", map[string]interface{}{"cause": err.Error()})
		return
	}

	if req.Candidate.Degenerate() || req.Truth.Degenerate() {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"candidate and truth each need at least 3 points", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, ScoreResponse{
		Score: scoring.RoundScore(scoring.OverlapScore(req.Candidate, req.Truth)),
	})
}

// handleStartSession opens a fresh session, replacing any live one. An
// abandoned session is simply dropped; only finished sessions persist.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"invalid request body", map[string]interface{}{"cause": err.Error()})
		return
	}

	if req.Player == "" {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "player is required", nil)
		return
	}
	if !req.Tier.Valid() {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			fmt.Sprintf("unknown tier %q", req.Tier),
			map[string]interface{}{"valid": []session.Tier{session.TierBeginner, session.TierAdvanced}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := session.New(req.Player, req.Tier, s.records, session.Options{Lives: s.startingLives})
	if err != nil {
		if errors.Is(err, session.ErrNoContent) {
			s.writeError(w, r, http.StatusConflict, ErrTypeNoContent,
				"no annotated content available for this tier",
				map[string]interface{}{"tier": req.Tier})
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error(), nil)
		return
	}

	if s.sess != nil && !s.sess.Ended() {
		s.logger.Printf("WARN: replacing unfinished session %s", s.sess.ID())
	}
	s.sess = sess

	s.writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNoSession, "no session started", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"invalid request body", map[string]interface{}{"cause": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNoSession, "no session started", nil)
		return
	}

	result, err := s.sess.Submit(req.Polygon)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEnded):
			s.writeError(w, r, http.StatusConflict, ErrTypeRoundState, "session has ended", nil)
		case errors.Is(err, session.ErrRoundScored):
			s.writeError(w, r, http.StatusConflict, ErrTypeRoundState, "round already scored", nil)
		default:
			s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error(), nil)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, SubmitResponse{Result: result, State: s.state()})
}

// handleAdvance moves to the next round or, at the session boundary,
// finalizes: the summary is persisted and the ranking updated. Persistence
// failures are logged and surfaced as a warning; the finished session's
// summary is never withheld over a write error.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNoSession, "no session started", nil)
		return
	}

	ended, err := s.sess.Advance()
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEnded):
			s.writeError(w, r, http.StatusConflict, ErrTypeRoundState, "session has ended", nil)
		case errors.Is(err, session.ErrRoundNotScored):
			s.writeError(w, r, http.StatusConflict, ErrTypeRoundState, "current round not yet scored", nil)
		default:
			s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error(), nil)
		}
		return
	}

	resp := AdvanceResponse{Ended: ended, State: s.state()}

	if ended {
		sum, err := s.sess.Finalize()
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error(), nil)
			return
		}
		resp.Summary = &sum
		resp.Warning = s.persistSummary(sum)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// persistSummary saves the finished session and refreshes the ranking.
// Returns a warning string when any write failed.
func (s *Server) persistSummary(sum session.Summary) string {
	warned := false

	sr, rounds := store.Rows(sum)
	if err := s.db.SaveSession(&sr, rounds); err != nil {
		s.logger.Printf("WARN: session %s not persisted: %v", sum.SessionID, err)
		warned = true
	}

	s.board.Insert(sum.RankingEntry())
	if err := s.db.ReplaceRanking(s.board.Entries()); err != nil {
		s.logger.Printf("WARN: ranking not persisted: %v", err)
		warned = true
	}

	if warned {
		return "session finished but some results could not be persisted"
	}
	return ""
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := s.board.Entries()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, RankingResponse{Entries: entries})
}
