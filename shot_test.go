package main

import (
	"math"
	"testing"
)

func TestShotExpiresAfterLifetime(t *testing.T) {
	s := newPoolShot()
	s.Reset(0, 0, ShotSpeed, 0, "p1")

	dt := 1.0 / 60.0
	ticks := int(ShotLifetime/dt) + 2
	for i := 0; i < ticks; i++ {
		s.Update(dt)
	}
	if s.Alive {
		t.Errorf("shot still alive after %g seconds", float64(ticks)*dt)
	}
	// Float accumulation can keep the shot alive one tick past the exact
	// boundary, so allow two ticks of travel either way.
	if want := ShotSpeed * ShotLifetime; math.Abs(s.X-want) > 2*ShotSpeed*dt {
		t.Errorf("shot traveled %g, want about %g", s.X, want)
	}
}

func TestShotResetClearsStaleState(t *testing.T) {
	s := newPoolShot()
	s.Reset(0, 0, 100, 100, "old")
	s.Life = 0.1
	s.Alive = false

	s.Reset(5, 5, -50, 0, "new")
	if !s.Alive || s.Life != ShotLifetime {
		t.Errorf("reset shot alive=%v life=%g, want true/%g", s.Alive, s.Life, ShotLifetime)
	}
	if s.OwnerID != "new" || s.VX != -50 || s.VY != 0 {
		t.Errorf("reset left stale owner or velocity: %+v", s)
	}
}
