package scoring

import (
	"math"

	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
)

// Verdict categorizes the outcome of a round so the UI shells can phrase
// feedback without re-deriving the decision.
type Verdict string

const (
	// VerdictNegativeCorrect: no region present, correctly identified.
	VerdictNegativeCorrect Verdict = "negative_correct"
	// VerdictFalsePositive: a region was marked on a negative case.
	VerdictFalsePositive Verdict = "false_positive"
	// VerdictMissed: a region exists but nothing was marked.
	VerdictMissed Verdict = "missed"
	// VerdictMatched: candidate scored at or above the pass threshold.
	VerdictMatched Verdict = "matched"
	// VerdictLowScore: candidate scored below the pass threshold.
	VerdictLowScore Verdict = "low_score"
)

// RoundInput is everything the round decision needs, captured at submit time.
type RoundInput struct {
	Candidate geometry.Polygon
	Truths    []geometry.Polygon
	// Negative marks the ground truth as a negative case. It is the
	// authoritative flag set at labeling time, not derived from Truths here.
	Negative bool
	// Streak is the consecutive-correct count entering this round.
	Streak int
	// AvgSeconds is the average time per round so far, including the round
	// being scored.
	AvgSeconds float64
}

// RoundOutcome is the decision for a single round. Points is the full award
// including bonuses; it is 0 for incorrect rounds.
type RoundOutcome struct {
	Correct bool
	Verdict Verdict
	// Score is the overlap score rounded to one decimal. A correct negative
	// case always reports exactly 100.0 regardless of margin.
	Score       float64
	BasePoints  int
	SpeedBonus  int
	StreakBonus int
	Points      int
	// Streak is the consecutive-correct count after this round.
	Streak int
}

// EvaluateRound applies the round decision policy. It is pure: session state
// mutation (lives, totals, history) stays with the caller.
func EvaluateRound(in RoundInput) RoundOutcome {
	out := RoundOutcome{}

	switch {
	case in.Negative:
		if in.Candidate.Degenerate() {
			out.Correct = true
			out.Verdict = VerdictNegativeCorrect
			out.Score = 100.0
			out.BasePoints = NegativeBasePoints
		} else {
			out.Verdict = VerdictFalsePositive
		}

	case in.Candidate.Degenerate():
		out.Verdict = VerdictMissed

	default:
		score := BestMatchScore(in.Candidate, in.Truths)
		out.Score = RoundScore(score)

		if score >= PassThreshold {
			out.Correct = true
			out.Verdict = VerdictMatched
			out.BasePoints = int(math.Floor(score))

			if in.AvgSeconds < SpeedBonusWindow {
				out.SpeedBonus = int((SpeedBonusWindow - in.AvgSeconds) / 2)
			}
		} else {
			out.Verdict = VerdictLowScore
		}
	}

	if out.Correct {
		out.Streak = in.Streak + 1
		if out.Streak >= StreakBonusFrom {
			out.StreakBonus = out.Streak * StreakBonusStep
		}
		out.Points = out.BasePoints + out.SpeedBonus + out.StreakBonus
	}

	return out
}
