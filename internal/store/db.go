package store

import (
	"time"

	"github.com/nrodrigues/niri-trainer-go/internal/ranking"
	"github.com/nrodrigues/niri-trainer-go/internal/session"
)

// DB is the persistence interface for finished sessions and the ranking.
// Failures here are non-fatal to a live session: callers log and continue,
// never losing in-memory state over a write error.
type DB interface {
	Close() error
	Migrate() error

	// SaveSession persists one summary row and its round rows atomically.
	SaveSession(sum *SessionRow, rounds []RoundRow) error
	ListSessions(limit, offset int) ([]SessionRow, error)
	GetRounds(sessionID string) ([]RoundRow, error)

	// ReplaceRanking rewrites the full ranking list; there is no
	// incremental append format.
	ReplaceRanking(entries []ranking.Entry) error
	LoadRanking() ([]ranking.Entry, error)
}

// SessionRow is one completed session, one row per the reporting contract.
type SessionRow struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Player         string    `json:"player"`
	Tier           string    `json:"tier"`
	Points         int       `json:"points"`
	Accuracy       float64   `json:"accuracy"`
	LivesLeft      int       `json:"livesLeft"`
	MaxStreak      int       `json:"maxStreak"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	Rounds         int       `json:"rounds"`
	Correct        int       `json:"correct"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RoundRow is one answered round within a session.
type RoundRow struct {
	ID         int64   `json:"id"`
	SessionID  string  `json:"sessionId"`
	Round      int     `json:"round"`
	ImageName  string  `json:"imageName"`
	Difficulty string  `json:"difficulty"`
	Correct    bool    `json:"correct"`
	Score      float64 `json:"score"`
	Points     int     `json:"points"`
	Seconds    float64 `json:"seconds"`
}

// Rows flattens a finalized summary into its storage rows. Round rows share
// the session's average time per round, which is all the source data
// carries.
func Rows(sum session.Summary) (SessionRow, []RoundRow) {
	sr := SessionRow{
		ID:             sum.SessionID,
		Date:           sum.FinishedAt.Format("2006-01-02"),
		Time:           sum.FinishedAt.Format("15:04:05"),
		Player:         sum.Player,
		Tier:           string(sum.Tier),
		Points:         sum.Points,
		Accuracy:       sum.Accuracy,
		LivesLeft:      sum.LivesLeft,
		MaxStreak:      sum.MaxStreak,
		ElapsedSeconds: sum.ElapsedSeconds,
		Rounds:         sum.Rounds,
		Correct:        sum.Correct,
	}

	perRound := sum.TimePerRound()
	rounds := make([]RoundRow, 0, len(sum.Results))
	for _, r := range sum.Results {
		rounds = append(rounds, RoundRow{
			SessionID:  sum.SessionID,
			Round:      r.Round,
			ImageName:  r.ImageName,
			Difficulty: string(r.Difficulty),
			Correct:    r.Correct,
			Score:      r.Score,
			Points:     r.Points,
			Seconds:    perRound,
		})
	}

	return sr, rounds
}
