package main

import (
	"testing"
	"time"
)

func TestScorePacketSignAndVerify(t *testing.T) {
	key := []byte("server-secret")
	s := NewRunSession(key)
	s.RecordDestroy("25544")
	s.RecordScan("quick", "25544")
	s.RecordDeath()

	p := s.CreatePacket()
	if !VerifyScorePacket(p, key) {
		t.Fatalf("freshly signed packet failed verification")
	}
	if p.Score != DestroyPoints+ScanPointsQuick {
		t.Errorf("packet score = %d, want %d", p.Score, DestroyPoints+ScanPointsQuick)
	}
}

func TestScorePacketTamperDetection(t *testing.T) {
	key := []byte("server-secret")
	s := NewRunSession(key)
	s.RecordDestroy("25544")
	p := s.CreatePacket()

	tampered := p
	tampered.Score = 99999
	if VerifyScorePacket(tampered, key) {
		t.Errorf("tampered score passed verification")
	}

	tampered = p
	tampered.ActionsHash = "0000000000000000"
	if VerifyScorePacket(tampered, key) {
		t.Errorf("tampered action hash passed verification")
	}

	if VerifyScorePacket(p, []byte("wrong-key")) {
		t.Errorf("packet verified with the wrong key")
	}
}

func TestValidateScoreRate(t *testing.T) {
	cases := []struct {
		name     string
		score    int
		duration int
		want     bool
	}{
		{"normal run", 500, 60, true},
		{"at the limit", MaxScorePerSecond * 10, 10, true},
		{"impossible rate", MaxScorePerSecond*10 + 1, 10, false},
		{"instant death with no score", 0, 0, true},
		{"sub-second run rated as one second", MaxScorePerSecond, 0, true},
		{"negative duration", 10, -5, false},
	}
	for _, tc := range cases {
		p := ScorePacket{Score: tc.score, Duration: tc.duration}
		if got := ValidateScoreRate(p); got != tc.want {
			t.Errorf("%s: ValidateScoreRate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidateActionCounts(t *testing.T) {
	good := ScorePacket{
		Score:      2*DestroyPoints + ScanPointsQuick + ScanPointsFull,
		Destroys:   2,
		ScansQuick: 1,
		ScansFull:  1,
	}
	if !ValidateActionCounts(good) {
		t.Errorf("consistent packet rejected")
	}

	bad := good
	bad.Score += 5
	if ValidateActionCounts(bad) {
		t.Errorf("score inflated past action counts passed validation")
	}
}

func TestActionLogHashChangesWithContent(t *testing.T) {
	var a, b ActionLog
	a.record("destroy", "11111", "")
	b.record("destroy", "22222", "")

	if a.Hash() == b.Hash() {
		t.Errorf("different action logs produced the same hash")
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}
}

func TestRunSessionDuration(t *testing.T) {
	s := NewRunSession([]byte("k"))
	s.StartTime = time.Now().Add(-90 * time.Second)
	p := s.CreatePacket()
	if p.Duration < 89 || p.Duration > 91 {
		t.Errorf("duration = %d, want about 90", p.Duration)
	}
	if !VerifyScorePacket(p, []byte("k")) {
		t.Errorf("packet failed verification")
	}
}
