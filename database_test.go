package main

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPlayerCRUD(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreatePlayer("alice", "hash123")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}

	p, err := db.GetPlayerByUsername("alice")
	if err != nil {
		t.Fatalf("GetPlayerByUsername: %v", err)
	}
	if p.ID != id || p.PassHash != "hash123" || p.IsGuest {
		t.Errorf("unexpected player row: %+v", p)
	}

	if _, err := db.GetPlayerByUsername("nobody"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("missing player should return ErrPlayerNotFound, got %v", err)
	}

	exists, err := db.UsernameExists("alice")
	if err != nil || !exists {
		t.Errorf("UsernameExists(alice) = %v, %v", exists, err)
	}

	// Duplicate usernames are rejected by the unique constraint.
	if _, err := db.CreatePlayer("alice", "other"); err == nil {
		t.Errorf("duplicate username should fail")
	}
}

func TestGuestAccounts(t *testing.T) {
	db := newTestDB(t)
	id, err := db.CreateGuest("pilot_abc")
	if err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	p, err := db.GetPlayerByID(id)
	if err != nil {
		t.Fatalf("GetPlayerByID: %v", err)
	}
	if !p.IsGuest {
		t.Errorf("guest flag not set")
	}
}

func TestSettings(t *testing.T) {
	db := newTestDB(t)

	if v, err := db.GetSetting("missing"); err != nil || v != "" {
		t.Errorf("missing setting = %q, %v, want empty", v, err)
	}
	if err := db.SetSetting("k", "v1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := db.SetSetting("k", "v2"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}
	if v, _ := db.GetSetting("k"); v != "v2" {
		t.Errorf("setting = %q, want v2", v)
	}
}

func TestRunsAndLeaderboard(t *testing.T) {
	db := newTestDB(t)
	alice, _ := db.CreatePlayer("alice", "h")
	bob, _ := db.CreatePlayer("bob", "h")

	runs := []struct {
		player int64
		score  int
	}{
		{alice, 100},
		{alice, 300}, // alice's best
		{bob, 200},
	}
	for i, r := range runs {
		packet := ScorePacket{
			SessionID: GenerateID(4),
			Score:     r.score,
			Destroys:  r.score / DestroyPoints,
			Duration:  60,
			Timestamp: time.Now().Unix(),
		}
		if err := db.InsertRun(r.player, packet); err != nil {
			t.Fatalf("InsertRun %d: %v", i, err)
		}
	}

	board, err := db.GetLeaderboard(10)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("leaderboard has %d rows, want 2 (one best run per player)", len(board))
	}
	if board[0].Username != "alice" || board[0].Score != 300 {
		t.Errorf("top row = %+v, want alice / 300", board[0])
	}
	if board[1].Username != "bob" || board[1].Score != 200 {
		t.Errorf("second row = %+v, want bob / 200", board[1])
	}
}

func TestInsertEventsBatch(t *testing.T) {
	db := newTestDB(t)
	events := []AnalyticsEvent{
		{Type: EvtRunStart, PlayerID: 1, SessionID: "s1", CreatedAt: time.Now()},
		{Type: EvtDestroy, PlayerID: 1, SessionID: "s1", Data: "25544", CreatedAt: time.Now()},
	}
	if err := db.InsertEvents(events); err != nil {
		t.Fatalf("InsertEvents: %v", err)
	}

	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM events`).Scan(&n); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if n != 2 {
		t.Errorf("events table has %d rows, want 2", n)
	}
}
