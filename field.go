package main

import "math"

const (
	FieldSpeedMin    = 40.0
	FieldSpeedMax    = 100.0
	FieldSpreadDeg   = 30.0 // velocity cone half-angle off the inward edge normal
	FieldClearFactor = 2.0  // spawn clearance box, in spawn radii
)

// AsteroidField spawns asteroids from the world edges at a fixed interval,
// attaching debris catalog metadata to each one.
type AsteroidField struct {
	interval   float64
	spawnTimer float64
	debris     *DebrisFetcher
}

// NewAsteroidField creates a spawner with the given interval in seconds.
func NewAsteroidField(interval float64, debris *DebrisFetcher) *AsteroidField {
	return &AsteroidField{interval: interval, debris: debris}
}

// Update advances the spawn timer and spawns at most one asteroid. It runs
// after the game has rebuilt the spatial hash for the tick: the clearance
// check queries the fresh grid, and the spawned asteroid is inserted so the
// tick's collision queries see a consistent entity set.
func (f *AsteroidField) Update(g *Game, dt float64) {
	f.spawnTimer += dt
	if f.spawnTimer <= f.interval {
		return
	}
	f.spawnTimer = 0

	radius := AsteroidMinRadius * float64(1+int(randFloat()*AsteroidKinds)%AsteroidKinds)
	x, y, angle := f.edgeSpawn(g.worldW, g.worldH, radius)

	// Skip the spawn when the entry area is already crowded.
	clear := radius * FieldClearFactor
	if len(g.spatial.QueryRect(x-clear, y-clear, x+clear, y+clear)) > 0 {
		return
	}

	var debris *DebrisObject
	if f.debris != nil {
		debris = f.debris.GetRandom()
	}

	speed := randRange(FieldSpeedMin, FieldSpeedMax)
	angle += randRange(-FieldSpreadDeg, FieldSpreadDeg) * math.Pi / 180

	a := g.AcquireAsteroid(x, y, radius, debris)
	a.VX = math.Cos(angle) * speed
	a.VY = math.Sin(angle) * speed
	g.spatial.Insert(a)
}

// edgeSpawn picks a random world edge and returns a spawn position just
// outside it plus the inward normal angle.
func (f *AsteroidField) edgeSpawn(worldW, worldH, radius float64) (x, y, angle float64) {
	switch int(randFloat() * 4) {
	case 0: // left, heading right
		return -radius, randFloat() * worldH, 0
	case 1: // right, heading left
		return worldW + radius, randFloat() * worldH, math.Pi
	case 2: // top, heading down
		return randFloat() * worldW, -radius, math.Pi / 2
	default: // bottom, heading up
		return randFloat() * worldW, worldH + radius, -math.Pi / 2
	}
}
