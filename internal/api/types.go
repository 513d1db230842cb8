package api

import (
	"github.com/nrodrigues/niri-trainer-go/internal/content"
	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
	"github.com/nrodrigues/niri-trainer-go/internal/ranking"
	"github.com/nrodrigues/niri-trainer-go/internal/session"
)

// APIError is the structured error envelope every failing endpoint returns.
type APIError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	ErrTypeValidation = "validation_error"
	ErrTypeNoContent  = "no_content"
	ErrTypeNoSession  = "no_session"
	ErrTypeRoundState = "round_state"
	ErrTypeInternal   = "internal_error"
)

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Records   int    `json:"records"`
	Timestamp string `json:"timestamp"`
}

// AnnotationsResponse lists the loaded interchange records.
type AnnotationsResponse struct {
	Records []content.Record `json:"records"`
	Count   int              `json:"count"`
}

// PostAnnotationsResponse acknowledges a replaced record set. Warning is set
// when the records were accepted but could not be written to disk.
type PostAnnotationsResponse struct {
	Count   int    `json:"count"`
	Warning string `json:"warning,omitempty"`
}

// ScoreRequest is a stateless scoring probe: candidate against one truth.
type ScoreRequest struct {
	Candidate geometry.Polygon `json:"candidate"`
	Truth     geometry.Polygon `json:"truth"`
}

// ScoreResponse carries the overlap score for a probe, one decimal.
type ScoreResponse struct {
	Score float64 `json:"score"`
}

// StartSessionRequest opens a fresh session, replacing any live one.
type StartSessionRequest struct {
	Player string       `json:"player"`
	Tier   session.Tier `json:"tier"`
}

// SessionState is the live-session snapshot both UI shells poll. The current
// image is identified by name and difficulty only; ground-truth polygons
// never leave the server mid-session.
type SessionState struct {
	SessionID  string             `json:"sessionId"`
	Player     string             `json:"player"`
	Tier       session.Tier       `json:"tier"`
	Round      int                `json:"round"`
	Rounds     int                `json:"rounds"`
	Points     int                `json:"points"`
	Lives      int                `json:"lives"`
	Streak     int                `json:"streak"`
	MaxStreak  int                `json:"maxStreak"`
	Ended      bool               `json:"ended"`
	ImageName  string             `json:"imageName,omitempty"`
	Difficulty content.Difficulty `json:"difficulty,omitempty"`
}

// SubmitRequest scores the current round. An absent or short polygon is the
// valid "nothing marked" answer, not an error.
type SubmitRequest struct {
	Polygon geometry.Polygon `json:"polygon"`
}

// SubmitResponse pairs the round's result with the updated session state.
type SubmitResponse struct {
	Result session.RoundResult `json:"result"`
	State  SessionState        `json:"state"`
}

// AdvanceResponse reports whether the session ended; Summary is present only
// then.
type AdvanceResponse struct {
	Ended   bool             `json:"ended"`
	State   SessionState     `json:"state"`
	Summary *session.Summary `json:"summary,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

// RankingResponse is the persisted top list, best first.
type RankingResponse struct {
	Entries []ranking.Entry `json:"entries"`
}
