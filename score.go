package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const (
	DestroyPoints   = 10
	ScanPointsQuick = 5
	ScanPointsFull  = 25

	// Runs claiming more points per second than this are rejected.
	MaxScorePerSecond = 50
)

// actionEntry records one scoring action for backend replay validation.
type actionEntry struct {
	T       float64 `json:"t"` // unix seconds, millisecond precision
	Type    string  `json:"type"`
	NoradID string  `json:"norad_id,omitempty"`
	Scan    string  `json:"scan,omitempty"` // "quick" or "full"
}

// ActionLog accumulates a run's actions and hashes them for the score packet.
type ActionLog struct {
	actions []actionEntry
}

func (l *ActionLog) record(actionType, noradID, scan string) {
	l.actions = append(l.actions, actionEntry{
		T:       float64(time.Now().UnixMilli()) / 1000.0,
		Type:    actionType,
		NoradID: noradID,
		Scan:    scan,
	})
}

// Hash returns a short hex digest of the action log. Struct field order keeps
// the JSON encoding deterministic.
func (l *ActionLog) Hash() string {
	data, _ := json.Marshal(l.actions)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// Len returns the number of recorded actions.
func (l *ActionLog) Len() int { return len(l.actions) }

// RunSession tracks one player's run: score, scan/destroy counters and the
// action log, plus the shared secret the final packet is signed with.
type RunSession struct {
	SessionID  string
	StartTime  time.Time
	Score      int
	ScansQuick int
	ScansFull  int
	Destroys   int
	Actions    ActionLog

	key []byte
}

// NewRunSession starts a run signed with the given server secret.
func NewRunSession(secret []byte) *RunSession {
	return &RunSession{
		SessionID: GenerateID(4),
		StartTime: time.Now(),
		key:       secret,
	}
}

// RecordDestroy adds destroy points and logs the action.
func (s *RunSession) RecordDestroy(noradID string) {
	s.Destroys++
	s.Score += DestroyPoints
	s.Actions.record("destroy", noradID, "")
}

// RecordScan adds scan points for a "quick" or "full" scan and logs it.
func (s *RunSession) RecordScan(scanType, noradID string) {
	switch scanType {
	case "quick":
		s.ScansQuick++
		s.Score += ScanPointsQuick
	case "full":
		s.ScansFull++
		s.Score += ScanPointsFull
	}
	s.Actions.record("scan", noradID, scanType)
}

// RecordDeath logs the end of the run.
func (s *RunSession) RecordDeath() {
	s.Actions.record("death", "", "")
}

// ScorePacket is the signed end-of-run result a client submits and the server
// persists.
type ScorePacket struct {
	SessionID   string `json:"session_id"`
	Score       int    `json:"score"`
	ScansQuick  int    `json:"scans_quick"`
	ScansFull   int    `json:"scans_full"`
	Destroys    int    `json:"destroys"`
	Duration    int    `json:"duration"`  // seconds played
	Timestamp   int64  `json:"timestamp"` // unix seconds
	ActionsHash string `json:"actions_hash"`
	Signature   string `json:"signature"`
}

// CreatePacket builds and signs the final score packet for this run.
func (s *RunSession) CreatePacket() ScorePacket {
	now := time.Now()
	p := ScorePacket{
		SessionID:   s.SessionID,
		Score:       s.Score,
		ScansQuick:  s.ScansQuick,
		ScansFull:   s.ScansFull,
		Destroys:    s.Destroys,
		Duration:    int(now.Sub(s.StartTime).Seconds()),
		Timestamp:   now.Unix(),
		ActionsHash: s.Actions.Hash(),
	}
	p.Signature = signPacket(p, s.key)
	return p
}

func signPacket(p ScorePacket, key []byte) string {
	payload := fmt.Sprintf("%d:%s:%d:%s", p.Score, p.SessionID, p.Timestamp, p.ActionsHash)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyScorePacket checks the packet signature in constant time.
func VerifyScorePacket(p ScorePacket, key []byte) bool {
	expected := signPacket(p, key)
	return hmac.Equal([]byte(expected), []byte(p.Signature))
}

// ValidateScoreRate checks the score is achievable in the claimed duration.
// Sub-second runs are rated as one second.
func ValidateScoreRate(p ScorePacket) bool {
	if p.Duration < 0 {
		return false
	}
	d := p.Duration
	if d < 1 {
		d = 1
	}
	return float64(p.Score)/float64(d) <= MaxScorePerSecond
}

// ValidateActionCounts checks the score matches the claimed action counts.
func ValidateActionCounts(p ScorePacket) bool {
	expected := p.Destroys*DestroyPoints + p.ScansQuick*ScanPointsQuick + p.ScansFull*ScanPointsFull
	return p.Score == expected
}
