// Package content defines the annotation record format shared between the
// labeling tool and the game. The JSON shape is the sole data contract
// between the two applications; field names are load-bearing.
package content

import (
	"fmt"
	"time"

	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
)

// Difficulty tags a labeled image.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty tags.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TimestampLayout is the record creation-time format in the interchange file.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one labeled image's authoritative region-of-interest data.
//
// Negative (serialized as es_negativo, the key the original capture tool
// established) is set once at labeling time and carried through unchanged by
// every consumer; it is never recomputed on load.
type Record struct {
	ImageName  string             `json:"imageName"`
	Difficulty Difficulty         `json:"difficulty"`
	Polygons   []geometry.Polygon `json:"polygons"`
	Timestamp  string             `json:"timestamp"`
	Negative   bool               `json:"es_negativo"`
}

// NewRecord builds a record at labeling time. This is the one place the
// negative flag is derived: a record with no polygons is a negative case.
func NewRecord(imageName string, difficulty Difficulty, polygons []geometry.Polygon, now time.Time) Record {
	return Record{
		ImageName:  imageName,
		Difficulty: difficulty,
		Polygons:   polygons,
		Timestamp:  now.Format(TimestampLayout),
		Negative:   len(polygons) == 0,
	}
}

// Validate checks the structural invariants a record must satisfy before the
// game will serve it.
func (r Record) Validate() error {
	if r.ImageName == "" {
		return fmt.Errorf("content: record missing imageName")
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("content: record %q has unknown difficulty %q", r.ImageName, r.Difficulty)
	}
	if r.Negative != (len(r.Polygons) == 0) {
		return fmt.Errorf("content: record %q negative flag disagrees with polygon count %d",
			r.ImageName, len(r.Polygons))
	}
	return nil
}
