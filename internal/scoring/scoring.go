// Package scoring implements the polygon-similarity heuristic and the
// per-round decision logic shared by the labeling tool and the game. All
// functions are pure; the package holds no state.
package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
)

// Fixed weighting of the two similarity components. Not configurable.
const (
	distanceWeight = 0.6
	areaWeight     = 0.4
)

const (
	// PassThreshold is the minimum overlap score for a positive round to
	// count as correct.
	PassThreshold = 80.0

	// NegativeBasePoints is awarded for correctly submitting nothing on a
	// negative case.
	NegativeBasePoints = 100

	// StreakBonusFrom is the streak length at which the streak bonus kicks
	// in; the bonus itself is streak * StreakBonusStep.
	StreakBonusFrom = 3
	StreakBonusStep = 5

	// SpeedBonusWindow is the average-seconds-per-round ceiling under which
	// the speed bonus applies: floor((window - avg) / 2) extra points.
	SpeedBonusWindow = 30.0
)

// OverlapScore computes the heuristic similarity between two polygons in
// [0, 100]. This is a centroid-distance plus area-ratio approximation, not
// geometric intersection-over-union:
//
//   - distance component: 1 - dist(c1, c2)/sqrt(avgArea), clamped at 0
//   - area component: min(area1, area2)/max(area1, area2)
//
// weighted 0.6/0.4. Callers pass polygons with at least one vertex each.
func OverlapScore(a, b geometry.Polygon) float64 {
	c1 := geometry.Centroid(a)
	c2 := geometry.Centroid(b)
	dist := geometry.Distance(c1, c2)

	area1 := geometry.AreaMagnitude(a)
	area2 := geometry.AreaMagnitude(b)

	avgArea := (area1 + area2) / 2
	maxDist := math.Sqrt(avgArea)

	var distanceScore float64
	if maxDist > 0 {
		distanceScore = math.Max(0, 1-dist/maxDist)
	}

	var areaScore float64
	if larger := math.Max(area1, area2); larger > 0 {
		areaScore = math.Min(area1, area2) / larger
	}

	return (distanceScore*distanceWeight + areaScore*areaWeight) * 100
}

// BestMatchScore scores the candidate against every ground-truth polygon and
// returns the best result. A player only needs to closely match one of the
// marked regions. Degenerate candidates never match; callers special-case the
// negative scenario (empty truth list) before calling this.
func BestMatchScore(candidate geometry.Polygon, truths []geometry.Polygon) float64 {
	if candidate.Degenerate() {
		return 0.0
	}

	best := 0.0
	for _, truth := range truths {
		if score := OverlapScore(candidate, truth); score > best {
			best = score
		}
	}

	return best
}

// RoundScore rounds a raw score to the one-decimal precision reported to
// players and recorded in round results.
func RoundScore(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
