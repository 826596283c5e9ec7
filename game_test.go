package main

import (
	"math"
	"testing"

	"go.uber.org/zap"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g, err := NewGame(defaults(), GameDeps{
		Log:    zap.NewNop().Sugar(),
		Secret: []byte("test-secret"),
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func TestGameTickMovesEntities(t *testing.T) {
	g := newTestGame(t)
	a := g.AcquireAsteroid(1000, 1000, 40, nil)
	a.VX, a.VY = 60, 0

	dt := 1.0 / float64(g.cfg.TickRate)
	g.update()

	if want := 1000 + 60*dt; math.Abs(a.X-want) > 1e-9 {
		t.Errorf("asteroid x = %g after one tick, want %g", a.X, want)
	}
}

func TestGameReleasesOffMapAsteroids(t *testing.T) {
	g := newTestGame(t)
	a := g.AcquireAsteroid(-200, 100, 40, nil) // past the 2x radius margin
	id := a.ID

	g.update()

	if _, ok := g.asteroids[id]; ok {
		t.Errorf("off-map asteroid should have been released")
	}
	if g.asteroidPool.Active() != 0 {
		t.Errorf("pool still tracks %d active after release", g.asteroidPool.Active())
	}
}

func TestGameShotExpiry(t *testing.T) {
	g := newTestGame(t)
	s := g.AcquireShot(1000, 1000, 0, 0, "p1")
	s.Life = 0.001
	id := s.ID

	g.update()

	if _, ok := g.shots[id]; ok {
		t.Errorf("expired shot should have been released")
	}
	if g.shotPool.Available() != defaults().Pools.Shots.Initial {
		t.Errorf("released shot did not return to the pool")
	}
}

func TestGameShotDestroysAsteroid(t *testing.T) {
	g := newTestGame(t)
	g.field.interval = math.Inf(1) // keep the spawner out of this test

	a := g.AcquireAsteroid(1000, 1000, AsteroidMinRadius, nil)
	aID := a.ID
	s := g.AcquireShot(1000, 1000, 0, 0, "nobody")
	sID := s.ID

	g.update()

	if _, ok := g.shots[sID]; ok {
		t.Errorf("shot should be consumed by the hit")
	}
	if _, ok := g.asteroids[aID]; ok {
		t.Errorf("minimum-size asteroid should be destroyed by the hit")
	}
	if len(g.asteroids) != 0 {
		t.Errorf("minimum-size asteroid left %d offspring, want 0", len(g.asteroids))
	}
}

func TestGameShotSplitsLargeAsteroid(t *testing.T) {
	g := newTestGame(t)
	g.field.interval = math.Inf(1)

	a := g.AcquireAsteroid(1000, 1000, 60, nil)
	a.VX = 50
	aID := a.ID
	g.AcquireShot(1000, 1000, 0, 0, "nobody")

	g.update()

	if _, ok := g.asteroids[aID]; ok {
		t.Errorf("hit asteroid should be gone from the live set")
	}
	if len(g.asteroids) != 2 {
		t.Fatalf("split left %d asteroids, want 2 offspring", len(g.asteroids))
	}
	for _, c := range g.asteroids {
		if c.Radius != 60-AsteroidMinRadius {
			t.Errorf("offspring radius = %g, want %g", c.Radius, 60-AsteroidMinRadius)
		}
	}
}

func TestGameDoubleHitSplitsOnce(t *testing.T) {
	g := newTestGame(t)
	g.field.interval = math.Inf(1)

	p := g.AddPlayer("gunner", 0)
	if p == nil {
		t.Fatalf("AddPlayer returned nil")
	}
	p.X, p.Y = 100, 100

	// Two shots overlapping the same asteroid in the same tick. The
	// split of the first hit recycles the parent's pool instance into an
	// offspring; the second hit must not destroy that offspring.
	g.AcquireAsteroid(3000, 3000, 60, nil)
	g.AcquireShot(3000, 3000, 0, 0, p.ID)
	g.AcquireShot(3000, 3000, 0, 0, p.ID)

	g.update()

	if len(g.shots) != 0 {
		t.Errorf("%d shots left, want both consumed", len(g.shots))
	}
	if len(g.asteroids) != 2 {
		t.Fatalf("%d live asteroids after double hit, want exactly 2 offspring", len(g.asteroids))
	}
	for _, c := range g.asteroids {
		if c.Radius != 60-AsteroidMinRadius {
			t.Errorf("offspring radius = %g, want %g (no re-split)", c.Radius, 60-AsteroidMinRadius)
		}
	}
	if p.Session.Destroys != 1 || p.Session.Score != DestroyPoints {
		t.Errorf("double hit scored destroys=%d score=%d, want 1/%d",
			p.Session.Destroys, p.Session.Score, DestroyPoints)
	}
}

func TestGameScanProgressResetsOnRecycle(t *testing.T) {
	g := newTestGame(t)
	g.field.interval = math.Inf(1)

	p := g.AddPlayer("scanner", 0)
	if p == nil {
		t.Fatalf("AddPlayer returned nil")
	}
	p.X, p.Y = 1000, 1000
	a := g.AcquireAsteroid(1100, 1000, 40, nil)
	a.VX, a.VY = 0, 0
	g.HandleInput(p.ID, ClientInput{Scan: true})

	ticks := int(0.75 * float64(g.cfg.TickRate))
	for i := 0; i < ticks; i++ {
		g.update()
	}
	if p.ScanTarget == nil || p.ScanTimer <= 0 {
		t.Fatalf("scan should be in progress, target=%v timer=%g", p.ScanTarget, p.ScanTimer)
	}

	// Release the target; the pool hands the same instance straight back
	// as a new asteroid at the same spot.
	g.ReleaseAsteroid(a)
	if p.ScanTarget != nil {
		t.Errorf("releasing the target should drop the scan lock")
	}
	b := g.AcquireAsteroid(1100, 1000, 40, nil)
	b.VX, b.VY = 0, 0

	// Same hold again: combined old+new progress passes the quick
	// threshold, progress on the new target alone does not.
	for i := 0; i < ticks; i++ {
		g.update()
	}
	if b.Scanned {
		t.Errorf("scan progress carried over to a recycled asteroid")
	}

	extra := int((g.cfg.ScanTimeQuick-0.75)*float64(g.cfg.TickRate)) + 3
	for i := 0; i < extra; i++ {
		g.update()
	}
	if !b.Scanned {
		t.Errorf("scan should still complete after a full hold on the new target")
	}
}

func TestGamePlayerDeathEndsRun(t *testing.T) {
	g := newTestGame(t)
	g.field.interval = math.Inf(1)

	p := g.AddPlayer("tester", 0)
	if p == nil {
		t.Fatalf("AddPlayer returned nil")
	}
	p.Session.Score = 30
	g.AcquireAsteroid(p.X, p.Y, 40, nil) // overlapping the ship

	g.update()

	if _, ok := g.players[p.ID]; ok {
		t.Errorf("dead player should be removed from the session")
	}
}

func TestGameScoringOnDestroy(t *testing.T) {
	g := newTestGame(t)
	g.field.interval = math.Inf(1)

	p := g.AddPlayer("gunner", 0)
	if p == nil {
		t.Fatalf("AddPlayer returned nil")
	}
	// Park the ship far from the asteroid so it survives the tick.
	p.X, p.Y = 100, 100

	g.AcquireAsteroid(3000, 3000, AsteroidMinRadius, &DebrisObject{NoradID: "11111"})
	g.AcquireShot(3000, 3000, 0, 0, p.ID)

	g.update()

	if p.Session.Score != DestroyPoints {
		t.Errorf("score = %d after destroy, want %d", p.Session.Score, DestroyPoints)
	}
	if p.Session.Destroys != 1 {
		t.Errorf("destroys = %d, want 1", p.Session.Destroys)
	}
}

func TestGameScanAwardsPoints(t *testing.T) {
	g := newTestGame(t)
	g.field.interval = math.Inf(1) // no surprise spawns during the long hold

	p := g.AddPlayer("scanner", 0)
	if p == nil {
		t.Fatalf("AddPlayer returned nil")
	}
	p.X, p.Y = 1000, 1000
	a := g.AcquireAsteroid(1100, 1000, 40, &DebrisObject{NoradID: "22222", Name: "SL-16 R/B"})
	a.VX, a.VY = 0, 0

	g.HandleInput(p.ID, ClientInput{Scan: true})

	// Hold the beam past the quick scan threshold.
	ticks := int(g.cfg.ScanTimeQuick*float64(g.cfg.TickRate)) + 2
	for i := 0; i < ticks; i++ {
		g.update()
	}

	if !a.Scanned {
		t.Errorf("asteroid should be quick-scanned after %g seconds", g.cfg.ScanTimeQuick)
	}
	if a.FullScan {
		t.Errorf("asteroid should not be full-scanned yet")
	}
	if p.Session.Score != ScanPointsQuick {
		t.Errorf("score = %d after quick scan, want %d", p.Session.Score, ScanPointsQuick)
	}

	// Keep holding until the full scan completes.
	ticks = int((g.cfg.ScanTimeFull-g.cfg.ScanTimeQuick)*float64(g.cfg.TickRate)) + 2
	for i := 0; i < ticks; i++ {
		g.update()
	}

	if !a.FullScan {
		t.Errorf("asteroid should be full-scanned after %g seconds", g.cfg.ScanTimeFull)
	}
	if want := ScanPointsQuick + ScanPointsFull; p.Session.Score != want {
		t.Errorf("score = %d after full scan, want %d", p.Session.Score, want)
	}
}

func TestGameSessionLimit(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < maxPlayersPerSession; i++ {
		if g.AddPlayer("p", 0) == nil {
			t.Fatalf("player %d rejected below the session limit", i)
		}
	}
	if g.AddPlayer("extra", 0) != nil {
		t.Errorf("player beyond the session limit should be rejected")
	}
}

func TestGameStatsConservation(t *testing.T) {
	g := newTestGame(t)
	g.AcquireAsteroid(100, 100, 40, nil)
	g.AcquireAsteroid(500, 500, 20, nil)
	g.AcquireShot(300, 300, 0, 0, "p1")

	stats := g.Stats()
	if stats.Asteroids != 2 || stats.Shots != 1 {
		t.Errorf("live counts = %d asteroids / %d shots, want 2/1", stats.Asteroids, stats.Shots)
	}
	if stats.AsteroidActive != 2 {
		t.Errorf("pool active = %d, want 2", stats.AsteroidActive)
	}
	total := g.asteroidPool.Total()
	if stats.AsteroidActive+stats.AsteroidFree != total {
		t.Errorf("pool conservation violated: active=%d free=%d total=%d",
			stats.AsteroidActive, stats.AsteroidFree, total)
	}
}
