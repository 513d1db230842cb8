// Package store provides SQLite persistence for finished sessions, their
// round results, and the ranking list.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nrodrigues/niri-trainer-go/internal/ranking"
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			player TEXT NOT NULL,
			tier TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL DEFAULT 0,
			lives_left INTEGER NOT NULL DEFAULT 0,
			max_streak INTEGER NOT NULL DEFAULT 0,
			elapsed_seconds REAL NOT NULL DEFAULT 0,
			rounds INTEGER NOT NULL DEFAULT 0,
			correct INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			image_name TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			correct INTEGER NOT NULL DEFAULT 0,
			score REAL NOT NULL DEFAULT 0,
			points INTEGER NOT NULL DEFAULT 0,
			seconds REAL NOT NULL DEFAULT 0,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE TABLE IF NOT EXISTS ranking (
			position INTEGER PRIMARY KEY,
			player TEXT NOT NULL,
			tier TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL DEFAULT 0,
			max_streak INTEGER NOT NULL DEFAULT 0,
			date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_session_id ON rounds(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_player ON sessions(player)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("store: migration failed: %w", err)
		}
	}

	return nil
}

// SaveSession persists a session summary and its rounds in one transaction.
func (s *SQLiteDB) SaveSession(sum *SessionRow, rounds []RoundRow) error {
	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO sessions (
		id, date, time, player, tier, points, accuracy, lives_left,
		max_streak, elapsed_seconds, rounds, correct
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.Date, sum.Time, sum.Player, sum.Tier, sum.Points,
		sum.Accuracy, sum.LivesLeft, sum.MaxStreak, sum.ElapsedSeconds,
		sum.Rounds, sum.Correct,
	)
	if err != nil {
		return fmt.Errorf("store: insert session: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO rounds (
		session_id, round, image_name, difficulty, correct, score, points, seconds
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare rounds: %w", err)
	}
	defer stmt.Close()

	for _, r := range rounds {
		correctInt := 0
		if r.Correct {
			correctInt = 1
		}
		if _, err := stmt.Exec(sum.ID, r.Round, r.ImageName, r.Difficulty,
			correctInt, r.Score, r.Points, r.Seconds); err != nil {
			return fmt.Errorf("store: insert round %d: %w", r.Round, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit session: %w", err)
	}
	return nil
}

// ListSessions returns completed sessions, newest first.
func (s *SQLiteDB) ListSessions(limit, offset int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`SELECT
		id, date, time, player, tier, points, accuracy, lives_left,
		max_streak, elapsed_seconds, rounds, correct, created_at
		FROM sessions ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var sr SessionRow
		if err := rows.Scan(&sr.ID, &sr.Date, &sr.Time, &sr.Player, &sr.Tier,
			&sr.Points, &sr.Accuracy, &sr.LivesLeft, &sr.MaxStreak,
			&sr.ElapsedSeconds, &sr.Rounds, &sr.Correct, &sr.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		out = append(out, sr)
	}

	return out, rows.Err()
}

// GetRounds returns the round rows for a session in play order.
func (s *SQLiteDB) GetRounds(sessionID string) ([]RoundRow, error) {
	rows, err := s.db.Query(`SELECT
		id, session_id, round, image_name, difficulty, correct, score, points, seconds
		FROM rounds WHERE session_id = ? ORDER BY round`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: query rounds: %w", err)
	}
	defer rows.Close()

	var out []RoundRow
	for rows.Next() {
		var rr RoundRow
		var correctInt int
		if err := rows.Scan(&rr.ID, &rr.SessionID, &rr.Round, &rr.ImageName,
			&rr.Difficulty, &correctInt, &rr.Score, &rr.Points, &rr.Seconds); err != nil {
			return nil, fmt.Errorf("store: scan round: %w", err)
		}
		rr.Correct = correctInt == 1
		out = append(out, rr)
	}

	return out, rows.Err()
}

// ReplaceRanking rewrites the ranking table from the given rank-ordered
// list, best first.
func (s *SQLiteDB) ReplaceRanking(entries []ranking.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ranking`); err != nil {
		return fmt.Errorf("store: clear ranking: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO ranking (
		position, player, tier, points, accuracy, max_streak, date
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare ranking: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(i+1, e.Player, e.Tier, e.Points,
			e.Accuracy, e.MaxStreak, e.Date); err != nil {
			return fmt.Errorf("store: insert ranking position %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit ranking: %w", err)
	}
	return nil
}

// LoadRanking returns the persisted ranking in rank order.
func (s *SQLiteDB) LoadRanking() ([]ranking.Entry, error) {
	rows, err := s.db.Query(`SELECT player, tier, points, accuracy, max_streak, date
		FROM ranking ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("store: query ranking: %w", err)
	}
	defer rows.Close()

	var out []ranking.Entry
	for rows.Next() {
		var e ranking.Entry
		if err := rows.Scan(&e.Player, &e.Tier, &e.Points, &e.Accuracy,
			&e.MaxStreak, &e.Date); err != nil {
			return nil, fmt.Errorf("store: scan ranking entry: %w", err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
