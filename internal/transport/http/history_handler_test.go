package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"study-session-engine/internal/domain"
)

func seedHistory(t *testing.T, ts *testServer, userID string, scores ...int) {
	t.Helper()
	for i, score := range scores {
		summary := domain.SessionSummary{
			SessionID:      string(rune('a' + i)),
			Mode:           domain.ModePractice,
			TotalQuestions: 10,
			CorrectCount:   score / 10,
			ScorePercent:   score,
			Topics:         map[string]domain.TopicBreakdown{"math": {Correct: score / 10, Total: 10}},
			CompletedAt:    time.Date(2025, 3, 1, 10, i, 0, 0, time.UTC),
		}
		if err := ts.history.Append(context.Background(), userID, summary); err != nil {
			t.Fatalf("seed append: %v", err)
		}
	}
}

func TestHistoryEndpointReturnsUserLog(t *testing.T) {
	ts := newTestServer(t)
	ts.identity.SignIn("user-1")
	seedHistory(t, ts, "user-1", 50, 70)
	seedHistory(t, ts, "user-2", 90)

	resp, err := http.Get(ts.server.URL + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var entries []domain.SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected signed-in user's 2 entries, got %d", len(entries))
	}
	if entries[0].ScorePercent != 50 || entries[1].ScorePercent != 70 {
		t.Fatalf("entries out of order: %+v", entries)
	}
}

func TestHistoryStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.identity.SignIn("user-1")
	seedHistory(t, ts, "user-1", 50, 100)

	resp, err := http.Get(ts.server.URL + "/history/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()

	var stats domain.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalSessions != 2 || stats.MeanScorePercent != 75 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestHistoryDeleteClearsLog(t *testing.T) {
	ts := newTestServer(t)
	ts.identity.SignIn("user-1")
	seedHistory(t, ts, "user-1", 60)

	req, err := http.NewRequest(http.MethodDelete, ts.server.URL+"/history", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	entries, err := ts.history.ReadAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected cleared log, got %+v", entries)
	}
}

func TestSignInWithoutVerifierUsesExplicitUser(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.server.URL+"/signin?userId=user-9", "", nil)
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if ts.identity.CurrentUserID() != "user-9" {
		t.Fatalf("expected user-9 signed in, got %q", ts.identity.CurrentUserID())
	}
}
