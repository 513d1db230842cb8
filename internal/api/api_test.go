package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nrodrigues/niri-trainer-go/internal/content"
	"github.com/nrodrigues/niri-trainer-go/internal/geometry"
	"github.com/nrodrigues/niri-trainer-go/internal/ranking"
	"github.com/nrodrigues/niri-trainer-go/internal/store"
)

// mockDB implements store.DB for handler tests.
type mockDB struct {
	savedSession *store.SessionRow
	savedRounds  []store.RoundRow
	ranking      []ranking.Entry

	failSave bool
}

func (m *mockDB) Close() error   { return nil }
func (m *mockDB) Migrate() error { return nil }

func (m *mockDB) SaveSession(sum *store.SessionRow, rounds []store.RoundRow) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.savedSession = sum
	m.savedRounds = rounds
	return nil
}

func (m *mockDB) ListSessions(limit, offset int) ([]store.SessionRow, error) { return nil, nil }
func (m *mockDB) GetRounds(sessionID string) ([]store.RoundRow, error)       { return nil, nil }

func (m *mockDB) ReplaceRanking(entries []ranking.Entry) error {
	m.ranking = entries
	return nil
}

func (m *mockDB) LoadRanking() ([]ranking.Entry, error) { return m.ranking, nil }

var squareTruth = geometry.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

func testRecords() []content.Record {
	return []content.Record{
		{
			ImageName:  "molar_14.png",
			Difficulty: content.DifficultyEasy,
			Polygons:   []geometry.Polygon{squareTruth},
			Timestamp:  "2025-06-01 10:00:00",
		},
	}
}

func newTestServer(t *testing.T, db *mockDB, records []content.Record) http.Handler {
	t.Helper()

	srv := NewServer(db, records, ranking.NewBoard(nil), Options{
		StartingLives: 2,
		Logger:        log.New(io.Discard, "", 0),
	})
	return srv.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Status != "healthy" || resp.Records != 1 {
		t.Errorf("health = %+v", resp)
	}
}

func TestScoreProbe(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	rec := doJSON(t, h, http.MethodPost, "/api/v1/score", ScoreRequest{
		Candidate: squareTruth,
		Truth:     squareTruth,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp ScoreResponse
	decode(t, rec, &resp)
	if resp.Score != 100.0 {
		t.Errorf("self-match score = %v, want 100", resp.Score)
	}
}

func TestScoreProbeRejectsShortPolygon(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	rec := doJSON(t, h, http.MethodPost, "/api/v1/score", ScoreRequest{
		Candidate: geometry.Polygon{{X: 0, Y: 0}},
		Truth:     squareTruth,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var apiErr APIError
	decode(t, rec, &apiErr)
	if apiErr.Type != ErrTypeValidation {
		t.Errorf("error type = %s, want validation_error", apiErr.Type)
	}
}

func TestStartSessionValidation(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/start",
		StartSessionRequest{Player: "", Tier: "beginner"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty player: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/start",
		StartSessionRequest{Player: "ana", Tier: "expert"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad tier: status = %d, want 400", rec.Code)
	}

	// The only record is easy; advanced tier has no admissible content.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/start",
		StartSessionRequest{Player: "ana", Tier: "advanced"})
	if rec.Code != http.StatusConflict {
		t.Errorf("no content: status = %d, want 409", rec.Code)
	}
	var apiErr APIError
	decode(t, rec, &apiErr)
	if apiErr.Type != ErrTypeNoContent {
		t.Errorf("error type = %s, want no_content", apiErr.Type)
	}
}

func TestSessionEndpointsWithoutSession(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	for _, probe := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/api/v1/session", nil},
		{http.MethodPost, "/api/v1/session/submit", SubmitRequest{}},
		{http.MethodPost, "/api/v1/session/advance", nil},
	} {
		rec := doJSON(t, h, probe.method, probe.path, probe.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", probe.method, probe.path, rec.Code)
		}
	}
}

func TestFullSessionFlow(t *testing.T) {
	db := &mockDB{}
	h := newTestServer(t, db, testRecords())

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/start",
		StartSessionRequest{Player: "nicole", Tier: "beginner"})
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status = %d: %s", rec.Code, rec.Body)
	}

	var state SessionState
	decode(t, rec, &state)
	if state.Rounds != 1 || state.Lives != 2 || state.ImageName != "molar_14.png" {
		t.Fatalf("start state = %+v", state)
	}

	// Submitting the exact ground-truth polygon must pass.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/submit",
		SubmitRequest{Polygon: squareTruth})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d: %s", rec.Code, rec.Body)
	}

	var sub SubmitResponse
	decode(t, rec, &sub)
	if !sub.Result.Correct || sub.Result.Score != 100.0 {
		t.Errorf("result = %+v, want correct with score 100", sub.Result)
	}
	if sub.State.Streak != 1 {
		t.Errorf("streak = %d, want 1", sub.State.Streak)
	}

	// Double submit is a round-state conflict.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/submit",
		SubmitRequest{Polygon: squareTruth})
	if rec.Code != http.StatusConflict {
		t.Errorf("double submit: status = %d, want 409", rec.Code)
	}

	// One record queued, so advancing ends the session and persists it.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/advance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: status = %d: %s", rec.Code, rec.Body)
	}

	var adv AdvanceResponse
	decode(t, rec, &adv)
	if !adv.Ended || adv.Summary == nil {
		t.Fatalf("advance = %+v, want ended with summary", adv)
	}
	if adv.Summary.Correct != 1 || adv.Summary.Accuracy != 100.0 {
		t.Errorf("summary = %+v", adv.Summary)
	}
	if adv.Warning != "" {
		t.Errorf("unexpected warning %q", adv.Warning)
	}

	if db.savedSession == nil || db.savedSession.Player != "nicole" {
		t.Errorf("session row not persisted: %+v", db.savedSession)
	}
	if len(db.savedRounds) != 1 {
		t.Errorf("got %d round rows, want 1", len(db.savedRounds))
	}
	if len(db.ranking) != 1 || db.ranking[0].Player != "nicole" {
		t.Errorf("ranking not updated: %v", db.ranking)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/ranking", nil)
	var board RankingResponse
	decode(t, rec, &board)
	if len(board.Entries) != 1 {
		t.Errorf("ranking endpoint returned %d entries, want 1", len(board.Entries))
	}
}

func TestAdvanceBeforeSubmit(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	doJSON(t, h, http.MethodPost, "/api/v1/session/start",
		StartSessionRequest{Player: "p", Tier: "beginner"})

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/advance", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	var apiErr APIError
	decode(t, rec, &apiErr)
	if apiErr.Type != ErrTypeRoundState {
		t.Errorf("error type = %s, want round_state", apiErr.Type)
	}
}

func TestAdvanceWarnsWhenPersistenceFails(t *testing.T) {
	db := &mockDB{failSave: true}
	h := newTestServer(t, db, testRecords())

	doJSON(t, h, http.MethodPost, "/api/v1/session/start",
		StartSessionRequest{Player: "p", Tier: "beginner"})
	doJSON(t, h, http.MethodPost, "/api/v1/session/submit", SubmitRequest{Polygon: squareTruth})

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/advance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite write failure: %s", rec.Code, rec.Body)
	}

	var adv AdvanceResponse
	decode(t, rec, &adv)
	if adv.Warning == "" {
		t.Error("expected persistence warning")
	}
	if adv.Summary == nil {
		t.Error("summary must still be returned")
	}
}

func TestAnnotationsRoundTrip(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	rec := doJSON(t, h, http.MethodGet, "/api/v1/annotations", nil)
	var list AnnotationsResponse
	decode(t, rec, &list)
	if list.Count != 1 {
		t.Fatalf("count = %d, want 1", list.Count)
	}

	replacement := []content.Record{
		{
			ImageName:  "incisor_02.png",
			Difficulty: content.DifficultyMedium,
			Timestamp:  "2025-06-02 09:00:00",
			Negative:   true,
		},
	}
	rec = doJSON(t, h, http.MethodPost, "/api/v1/annotations", replacement)
	if rec.Code != http.StatusOK {
		t.Fatalf("post: status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/annotations", nil)
	decode(t, rec, &list)
	if list.Count != 1 || list.Records[0].ImageName != "incisor_02.png" {
		t.Errorf("records after replace = %+v", list.Records)
	}
}

func TestAnnotationsRejectsInvalidRecord(t *testing.T) {
	h := newTestServer(t, &mockDB{}, testRecords())

	// Negative flag disagrees with polygon count.
	bad := []content.Record{
		{
			ImageName:  "x.png",
			Difficulty: content.DifficultyEasy,
			Polygons:   []geometry.Polygon{squareTruth},
			Timestamp:  "2025-06-02 09:00:00",
			Negative:   true,
		},
	}

	rec := doJSON(t, h, http.MethodPost, "/api/v1/annotations", bad)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
