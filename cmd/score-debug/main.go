// score-debug scores one candidate polygon against one truth polygon and
// prints the component breakdown.
//
// Usage:
//
//	score-debug '[{"x":0,"y":0},{"x":10,"y":0},{"x":10,"y":10},{"x":0,"y":10}]' \
//	            '[{"x":1,"y":1},{"x":11,"y":1},{"x":11,"y":11},{"x":1,"y":11}]'
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
	"github.com/nrodrigues/niri-trainer-go/internal/scoring"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: score-debug <candidate-json> <truth-json>")
		os.Exit(2)
	}

	candidate, err := parsePolygon(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "candidate: %v\n", err)
		os.Exit(2)
	}
	truth, err := parsePolygon(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "truth: %v\n", err)
		os.Exit(2)
	}

	c1 := geometry.Centroid(candidate)
	c2 := geometry.Centroid(truth)
	area1 := geometry.AreaMagnitude(candidate)
	area2 := geometry.AreaMagnitude(truth)

	fmt.Printf("candidate: %d points, area %.2f, centroid (%.2f, %.2f)\n",
		len(candidate), area1, c1.X, c1.Y)
	fmt.Printf("truth:     %d points, area %.2f, centroid (%.2f, %.2f)\n",
		len(truth), area2, c2.X, c2.Y)

	dist := geometry.Distance(c1, c2)
	fmt.Printf("centroid distance: %.4f (normalizer sqrt(avgArea) = %.4f)\n",
		dist, math.Sqrt((area1+area2)/2))

	score := scoring.OverlapScore(candidate, truth)
	fmt.Printf("overlap score: %.4f (reported as %.1f)\n", score, scoring.RoundScore(score))
	fmt.Printf("passes %.0f threshold: %v\n", scoring.PassThreshold, score >= scoring.PassThreshold)
}

func parsePolygon(arg string) (geometry.Polygon, error) {
	var p geometry.Polygon
	if err := json.Unmarshal([]byte(arg), &p); err != nil {
		return nil, err
	}
	if p.Degenerate() {
		return nil, fmt.Errorf("polygon needs at least %d points, got %d", geometry.MinVertices, len(p))
	}
	return p, nil
}
