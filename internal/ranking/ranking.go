// Package ranking keeps the top-session leaderboard: points descending,
// stable ties, hard cap at ten entries. Persistence belongs to the store;
// this package only owns ordering.
package ranking

import "sort"

// Capacity is the maximum number of retained entries.
const Capacity = 10

// DateLayout is the completion-time format shown on the board.
const DateLayout = "2006-01-02 15:04"

// Entry is a finalized session's summary row.
type Entry struct {
	Player    string  `json:"player"`
	Tier      string  `json:"tier"`
	Points    int     `json:"points"`
	Accuracy  float64 `json:"accuracy"`
	MaxStreak int     `json:"maxStreak"`
	Date      string  `json:"date"`
}

// Board holds the ordered leaderboard.
type Board struct {
	entries []Entry
}

// NewBoard builds a board from previously persisted entries, re-sorting and
// re-capping in case the stored list predates a rule change.
func NewBoard(existing []Entry) *Board {
	b := &Board{entries: append([]Entry(nil), existing...)}
	b.normalize()
	return b
}

// Insert adds an entry and restores the board invariants. Ties keep
// insertion order, so an earlier session outranks a later one with the same
// points.
func (b *Board) Insert(e Entry) {
	b.entries = append(b.entries, e)
	b.normalize()
}

func (b *Board) normalize() {
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].Points > b.entries[j].Points
	})
	if len(b.entries) > Capacity {
		b.entries = b.entries[:Capacity]
	}
}

// Entries returns the board in rank order, best first. The full list is
// handed to the store on every update; there is no incremental format.
func (b *Board) Entries() []Entry {
	return append([]Entry(nil), b.entries...)
}

// Len returns the number of retained entries.
func (b *Board) Len() int {
	return len(b.entries)
}
