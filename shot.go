package main

const (
	ShotRadius   = 5.0
	ShotSpeed    = 500.0 // pixels/s
	ShotLifetime = 2.0   // seconds until auto-despawn
	ShotOffset   = 25.0  // spawn distance from ship center
)

// Shot is a pooled player projectile with a fixed lifetime.
type Shot struct {
	Body
	ID      string
	OwnerID string
	Life    float64
}

// newPoolShot is the shot pool factory.
func newPoolShot() *Shot {
	return &Shot{Body: Body{Kind: KindShot}}
}

// Reset reinitializes a reused shot. Overwrites every field, in particular
// the remaining lifetime and velocity left over from a previous life.
func (s *Shot) Reset(x, y, vx, vy float64, ownerID string) {
	s.ID = GenerateID(3)
	s.X = x
	s.Y = y
	s.VX = vx
	s.VY = vy
	s.Radius = ShotRadius
	s.Alive = true
	s.Kind = KindShot
	s.OwnerID = ownerID
	s.Life = ShotLifetime
}

// Update moves the shot one tick. Expired shots mark themselves dead; the
// game loop releases them after iteration.
func (s *Shot) Update(dt float64) {
	if !s.Alive {
		return
	}
	s.X += s.VX * dt
	s.Y += s.VY * dt
	s.Life -= dt
	if s.Life <= 0 {
		s.Alive = false
	}
}

// ToState converts to protocol state
func (s *Shot) ToState() ShotState {
	return ShotState{
		ID:    s.ID,
		X:     round1(s.X),
		Y:     round1(s.Y),
		Owner: s.OwnerID,
	}
}

// AcquireShot is the shot lifecycle adapter: pool acquire (or plain
// construction), full reset, registration into the tracking map.
func (g *Game) AcquireShot(x, y, vx, vy float64, ownerID string) *Shot {
	var s *Shot
	pooled := false
	if g.shotPool != nil {
		s, pooled = g.shotPool.Acquire()
	} else {
		s = newPoolShot()
	}
	s.Reset(x, y, vx, vy, ownerID)
	s.pooled = pooled
	g.shots[s.ID] = s
	return s
}

// ReleaseShot marks the shot dead, detaches it and returns it to the pool.
// Idempotent; overflow instances are dropped for the GC.
func (g *Game) ReleaseShot(s *Shot) {
	s.Alive = false
	delete(g.shots, s.ID)
	if g.shotPool != nil && s.pooled {
		g.shotPool.Release(s)
	}
}
