package main

import "math"

const (
	AsteroidMinRadius = 20.0
	AsteroidKinds     = 3
	AsteroidMaxRadius = AsteroidMinRadius * AsteroidKinds
	AsteroidSpinMin   = 0.5
	AsteroidSpinMax   = 2.0

	SplitAngleMinDeg = 20.0
	SplitAngleMaxDeg = 50.0
	SplitSpeedScale  = 1.2
)

// Asteroid is a pooled hostile entity carrying optional debris metadata.
// Instances cycle through the asteroid pool; every field is overwritten by
// Reset at the start of each life.
type Asteroid struct {
	Body
	ID       string
	Rotation float64
	Spin     float64
	Debris   *DebrisObject
	Scanned  bool
	FullScan bool
}

// newPoolAsteroid is the asteroid pool factory. Instances come out dead and
// unusable until Reset.
func newPoolAsteroid() *Asteroid {
	return &Asteroid{Body: Body{Kind: KindAsteroid}}
}

// Reset reinitializes a (possibly reused) asteroid for a new life. Every
// field a previous life could have touched is overwritten here; a missed
// field would leak state across pool reuses.
func (a *Asteroid) Reset(x, y, radius float64, debris *DebrisObject) {
	a.ID = GenerateID(4)
	a.X = x
	a.Y = y
	a.VX = 0
	a.VY = 0
	a.Radius = radius
	a.Alive = true
	a.Kind = KindAsteroid
	a.Rotation = randFloat() * 2 * math.Pi
	a.Spin = randRange(AsteroidSpinMin, AsteroidSpinMax)
	if randFloat() < 0.5 {
		a.Spin = -a.Spin
	}
	a.Debris = debris
	a.Scanned = false
	a.FullScan = false
}

// Update moves the asteroid one tick in a straight line.
func (a *Asteroid) Update(dt float64) {
	if !a.Alive {
		return
	}
	a.X += a.VX * dt
	a.Y += a.VY * dt
	a.Rotation += a.Spin * dt
}

// OffMap reports whether the asteroid has fully left the world (no wrapping).
func (a *Asteroid) OffMap(worldW, worldH float64) bool {
	margin := a.Radius * 2
	return a.X < -margin || a.X > worldW+margin ||
		a.Y < -margin || a.Y > worldH+margin
}

// ToState converts to protocol state. Debris identity is only revealed once
// the asteroid has been scanned.
func (a *Asteroid) ToState() AsteroidState {
	s := AsteroidState{
		ID:      a.ID,
		X:       round1(a.X),
		Y:       round1(a.Y),
		Radius:  a.Radius,
		Rot:     math.Round(a.Rotation*100) / 100,
		Scanned: a.Scanned,
	}
	if a.Scanned && a.Debris != nil {
		s.NoradID = a.Debris.NoradID
		if a.FullScan {
			s.Name = a.Debris.Name
		}
	}
	return s
}

// AcquireAsteroid is the asteroid lifecycle adapter: pool acquire (or plain
// construction when no pool is configured), full reset, and registration into
// the game's tracking map.
func (g *Game) AcquireAsteroid(x, y, radius float64, debris *DebrisObject) *Asteroid {
	var a *Asteroid
	pooled := false
	if g.asteroidPool != nil {
		a, pooled = g.asteroidPool.Acquire()
	} else {
		a = newPoolAsteroid()
	}
	a.Reset(x, y, radius, debris)
	a.pooled = pooled
	g.asteroids[a.ID] = a
	return a
}

// ReleaseAsteroid marks the asteroid dead, detaches it from the tracking map
// and hands it back to the pool. Safe to call twice; overflow instances are
// simply dropped. Scan locks on the instance are broken here: the pool can
// recycle this exact pointer into a new asteroid within the same tick, and a
// beam that kept the pointer would carry its progress onto that stranger.
func (g *Game) ReleaseAsteroid(a *Asteroid) {
	a.Alive = false
	delete(g.asteroids, a.ID)
	for _, p := range g.players {
		if p.ScanTarget == a {
			p.EndScan()
		}
	}
	if g.asteroidPool != nil && a.pooled {
		g.asteroidPool.Release(a)
	}
}

// SplitAsteroid destroys an asteroid and spawns its offspring. Position and
// velocity are captured before release: the release may hand this instance to
// the next acquire, so in-flight reads of the parent would be corrupted.
// Below the minimum radius there are no offspring. Otherwise exactly two are
// spawned with radius reduced by the minimum, velocities rotated by a random
// angle in [20,50] degrees (one each way) and scaled 1.2x, debris metadata
// propagated unchanged.
func (g *Game) SplitAsteroid(a *Asteroid) []*Asteroid {
	if !a.Alive {
		return nil
	}
	x, y := a.X, a.Y
	vx, vy := a.VX, a.VY
	radius := a.Radius
	debris := a.Debris

	g.ReleaseAsteroid(a)

	if radius <= AsteroidMinRadius {
		return nil
	}

	newRadius := radius - AsteroidMinRadius
	angle := randRange(SplitAngleMinDeg, SplitAngleMaxDeg) * math.Pi / 180

	children := make([]*Asteroid, 0, 2)
	for _, offset := range [2]float64{angle, -angle} {
		child := g.AcquireAsteroid(x, y, newRadius, debris)
		child.VX, child.VY = Rotate(vx, vy, offset)
		child.VX *= SplitSpeedScale
		child.VY *= SplitSpeedScale
		children = append(children, child)
	}
	return children
}
