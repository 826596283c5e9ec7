package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrPlayerNotFound = errors.New("player not found")

// DB wraps the sqlite connection and the queries the server needs.
type DB struct {
	conn *sql.DB
}

// PlayerRecord is a persisted account row.
type PlayerRecord struct {
	ID        int64
	Username  string
	PassHash  string
	IsGuest   bool
	CreatedAt time.Time
}

// LeaderboardEntry is one row of the best-runs board.
type LeaderboardEntry struct {
	Username string  `json:"username"`
	Score    int     `json:"score"`
	Destroys int     `json:"destroys"`
	Scans    int     `json:"scans"`
	Duration float64 `json:"duration"`
	PlayedAt string  `json:"played_at"`
}

// OpenDB opens (creating if needed) the sqlite database and applies the
// schema.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent sessions.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			pass_hash TEXT NOT NULL DEFAULT '',
			is_guest INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id INTEGER NOT NULL REFERENCES players(id),
			session_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			scans_quick INTEGER NOT NULL DEFAULT 0,
			scans_full INTEGER NOT NULL DEFAULT 0,
			destroys INTEGER NOT NULL DEFAULT 0,
			duration REAL NOT NULL DEFAULT 0,
			actions_hash TEXT NOT NULL DEFAULT '',
			signature TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score DESC)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			player_id INTEGER NOT NULL DEFAULT 0,
			session_id TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// CreatePlayer inserts a registered account and returns its id.
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO players (username, pass_hash, is_guest) VALUES (?, ?, 0)`,
		username, passHash,
	)
	if err != nil {
		return 0, fmt.Errorf("create player: %w", err)
	}
	return res.LastInsertId()
}

// CreateGuest inserts a guest account and returns its id.
func (db *DB) CreateGuest(username string) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO players (username, is_guest) VALUES (?, 1)`,
		username,
	)
	if err != nil {
		return 0, fmt.Errorf("create guest: %w", err)
	}
	return res.LastInsertId()
}

func (db *DB) GetPlayerByUsername(username string) (*PlayerRecord, error) {
	p := &PlayerRecord{}
	err := db.conn.QueryRow(
		`SELECT id, username, pass_hash, is_guest, created_at FROM players WHERE username = ?`,
		username,
	).Scan(&p.ID, &p.Username, &p.PassHash, &p.IsGuest, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (db *DB) GetPlayerByID(id int64) (*PlayerRecord, error) {
	p := &PlayerRecord{}
	err := db.conn.QueryRow(
		`SELECT id, username, pass_hash, is_guest, created_at FROM players WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Username, &p.PassHash, &p.IsGuest, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (db *DB) UsernameExists(username string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM players WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// GetSetting returns a settings value, or "" when the key is absent.
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// InsertRun persists a completed, verified run.
func (db *DB) InsertRun(playerID int64, packet ScorePacket) error {
	_, err := db.conn.Exec(
		`INSERT INTO runs (player_id, session_id, score, scans_quick, scans_full, destroys, duration, actions_hash, signature)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playerID, packet.SessionID, packet.Score,
		packet.ScansQuick, packet.ScansFull, packet.Destroys,
		packet.Duration, packet.ActionsHash, packet.Signature,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetLeaderboard returns the top runs, one best run per player.
func (db *DB) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(
		`SELECT p.username, MAX(r.score), r.destroys, r.scans_quick + r.scans_full, r.duration, r.created_at
		 FROM runs r JOIN players p ON p.id = r.player_id
		 GROUP BY r.player_id
		 ORDER BY MAX(r.score) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Destroys, &e.Scans, &e.Duration, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertEvents writes a batch of analytics events in one transaction.
func (db *DB) InsertEvents(events []AnalyticsEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin events tx: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO events (type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare events: %w", err)
	}
	defer stmt.Close()

	for _, evt := range events {
		if _, err := stmt.Exec(evt.Type, evt.PlayerID, evt.SessionID, evt.Data, evt.CreatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}
