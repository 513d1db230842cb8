// Package session owns the live play-session state: the shuffled round
// queue, points, lives, streaks, and the per-round scoring transaction.
// Exactly one session is live at a time; only this package mutates it.
package session

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/nrodrigues/niri-trainer-go/internal/content"
	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
	"github.com/nrodrigues/niri-trainer-go/internal/ranking"
	"github.com/nrodrigues/niri-trainer-go/internal/scoring"
)

// Tier is the player's self-reported experience level. It controls which
// difficulties a session draws from.
type Tier string

const (
	// TierBeginner (0-5 years of NIRI reading) plays easy and medium cases.
	TierBeginner Tier = "beginner"
	// TierAdvanced (5+ years) plays medium and hard cases.
	TierAdvanced Tier = "advanced"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierBeginner || t == TierAdvanced
}

// Admits reports whether records of difficulty d are served to tier t.
func (t Tier) Admits(d content.Difficulty) bool {
	switch t {
	case TierBeginner:
		return d == content.DifficultyEasy || d == content.DifficultyMedium
	case TierAdvanced:
		return d == content.DifficultyMedium || d == content.DifficultyHard
	}
	return false
}

// DefaultLives is the starting life count unless configured otherwise.
const DefaultLives = 10

var (
	// ErrNoContent means no annotated records are available for the tier;
	// a session refuses to start rather than run on an empty set.
	ErrNoContent = errors.New("session: no annotated content available")

	// ErrEnded is returned for operations on a finished session.
	ErrEnded = errors.New("session: session has ended")

	// ErrRoundScored guards the one-decision-per-round rule: once scored, a
	// round cannot be scored again.
	ErrRoundScored = errors.New("session: round already scored")

	// ErrRoundNotScored is returned when advancing past a round that was
	// never submitted.
	ErrRoundNotScored = errors.New("session: current round not yet scored")

	// ErrNotEnded is returned when finalizing a session still in play.
	ErrNotEnded = errors.New("session: session still in progress")
)

// RoundResult is the immutable record of one scored round.
type RoundResult struct {
	Round      int                `json:"round"` // 1-based
	ImageName  string             `json:"imageName"`
	Difficulty content.Difficulty `json:"difficulty"`
	Correct    bool               `json:"correct"`
	Verdict    scoring.Verdict    `json:"verdict"`
	Score      float64            `json:"score"` // one decimal
	Points     int                `json:"points"`
}

// Options tune a new session. Zero values pick production defaults; tests
// inject a fixed clock and a deterministic shuffle.
type Options struct {
	Lives   int
	Now     func() time.Time
	Shuffle func(n int, swap func(i, j int))
}

// Session is the aggregator for one play-through. It is not safe for
// concurrent use; the caller serializes access.
type Session struct {
	id     string
	player string
	tier   Tier

	records []content.Record

	round     int // 0-based pointer into records
	scored    bool
	ended     bool
	points    int
	lives     int
	streak    int
	maxStreak int

	startedAt time.Time
	endedAt   time.Time

	history []RoundResult

	now func() time.Time
}

// New filters the available records by tier, shuffles them, and opens a
// fresh session. Returns ErrNoContent when nothing survives the filter.
func New(player string, tier Tier, records []content.Record, opts Options) (*Session, error) {
	var pool []content.Record
	for _, r := range records {
		if tier.Admits(r.Difficulty) {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		return nil, ErrNoContent
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	shuffle := opts.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	lives := opts.Lives
	if lives <= 0 {
		lives = DefaultLives
	}

	shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	return &Session{
		id:        uuid.New().String(),
		player:    player,
		tier:      tier,
		records:   pool,
		lives:     lives,
		startedAt: now(),
		now:       now,
	}, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Player() string { return s.player }
func (s *Session) Tier() Tier     { return s.tier }
func (s *Session) Points() int    { return s.points }
func (s *Session) Lives() int     { return s.lives }
func (s *Session) Streak() int    { return s.streak }
func (s *Session) MaxStreak() int { return s.maxStreak }
func (s *Session) Ended() bool    { return s.ended }
func (s *Session) Scored() bool   { return s.scored }

// Round returns the 1-based index of the round in play.
func (s *Session) Round() int { return s.round + 1 }

// Rounds returns the total rounds queued for this session.
func (s *Session) Rounds() int { return len(s.records) }

// History returns the scored rounds in order.
func (s *Session) History() []RoundResult {
	return append([]RoundResult(nil), s.history...)
}

// Current returns the record for the round in play.
func (s *Session) Current() (content.Record, error) {
	if s.ended {
		return content.Record{}, ErrEnded
	}
	return s.records[s.round], nil
}

// Elapsed returns seconds since the session started, frozen once it ends.
func (s *Session) Elapsed() float64 {
	if s.ended {
		return s.endedAt.Sub(s.startedAt).Seconds()
	}
	return s.now().Sub(s.startedAt).Seconds()
}

// Submit scores the candidate polygon against the current round's ground
// truth. The round is irrevocably scored; there is no undo. A degenerate
// candidate (fewer than 3 points) is the valid "nothing marked" answer.
func (s *Session) Submit(candidate geometry.Polygon) (RoundResult, error) {
	if s.ended {
		return RoundResult{}, ErrEnded
	}
	if s.scored {
		return RoundResult{}, ErrRoundScored
	}

	rec := s.records[s.round]

	// Average includes the round being scored (1-based count).
	avg := s.now().Sub(s.startedAt).Seconds() / float64(s.round+1)

	out := scoring.EvaluateRound(scoring.RoundInput{
		Candidate:  candidate,
		Truths:     rec.Polygons,
		Negative:   rec.Negative,
		Streak:     s.streak,
		AvgSeconds: avg,
	})

	s.streak = out.Streak
	if s.streak > s.maxStreak {
		s.maxStreak = s.streak
	}
	if out.Correct {
		s.points += out.Points
	} else {
		s.lives--
	}
	s.scored = true

	result := RoundResult{
		Round:      s.round + 1,
		ImageName:  rec.ImageName,
		Difficulty: rec.Difficulty,
		Correct:    out.Correct,
		Verdict:    out.Verdict,
		Score:      out.Score,
		Points:     out.Points,
	}
	s.history = append(s.history, result)

	return result, nil
}

// Advance moves to the next round, or ends the session when lives are
// exhausted or no rounds remain — whichever comes first. Callers invoke it
// exactly once per round boundary; there is no internal debouncing beyond
// the scored-round check.
func (s *Session) Advance() (ended bool, err error) {
	if s.ended {
		return true, ErrEnded
	}
	if !s.scored {
		return false, ErrRoundNotScored
	}

	if s.lives <= 0 || s.round+1 >= len(s.records) {
		s.ended = true
		s.endedAt = s.now()
		return true, nil
	}

	s.round++
	s.scored = false
	return false, nil
}

// Finalize derives the end-of-session summary. Pure over the frozen state:
// calling it again returns the same summary, nothing is mutated twice.
func (s *Session) Finalize() (Summary, error) {
	if !s.ended {
		return Summary{}, ErrNotEnded
	}

	correct := 0
	for _, r := range s.history {
		if r.Correct {
			correct++
		}
	}

	accuracy := 0.0
	if len(s.history) > 0 {
		accuracy = scoring.RoundScore(float64(correct) / float64(len(s.history)) * 100)
	}

	return Summary{
		SessionID:      s.id,
		Player:         s.player,
		Tier:           s.tier,
		Points:         s.points,
		Accuracy:       accuracy,
		LivesLeft:      s.lives,
		MaxStreak:      s.maxStreak,
		ElapsedSeconds: s.endedAt.Sub(s.startedAt).Seconds(),
		Rounds:         len(s.history),
		Correct:        correct,
		FinishedAt:     s.endedAt,
		Results:        s.History(),
	}, nil
}

// Summary is the finalized session export: one summary row plus the ordered
// round rows, exactly the fields the external reporting collaborator needs.
type Summary struct {
	SessionID      string        `json:"sessionId"`
	Player         string        `json:"player"`
	Tier           Tier          `json:"tier"`
	Points         int           `json:"points"`
	Accuracy       float64       `json:"accuracy"` // one decimal
	LivesLeft      int           `json:"livesLeft"`
	MaxStreak      int           `json:"maxStreak"`
	ElapsedSeconds float64       `json:"elapsedSeconds"`
	Rounds         int           `json:"rounds"`
	Correct        int           `json:"correct"`
	FinishedAt     time.Time     `json:"finishedAt"`
	Results        []RoundResult `json:"results"`
}

// TimePerRound returns the average seconds per answered round.
func (s Summary) TimePerRound() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.ElapsedSeconds / float64(s.Rounds)
}

// RankingEntry produces the leaderboard candidate for this session.
func (s Summary) RankingEntry() ranking.Entry {
	return ranking.Entry{
		Player:    s.Player,
		Tier:      string(s.Tier),
		Points:    s.Points,
		Accuracy:  s.Accuracy,
		MaxStreak: s.MaxStreak,
		Date:      s.FinishedAt.Format(ranking.DateLayout),
	}
}
