package main

// EntityKind discriminates what an entity is without runtime type checks.
// Spatial queries return mixed candidates; callers filter on this tag.
type EntityKind uint8

const (
	KindAsteroid EntityKind = iota
	KindShot
	KindPlayer
)

func (k EntityKind) String() string {
	switch k {
	case KindAsteroid:
		return "asteroid"
	case KindShot:
		return "shot"
	case KindPlayer:
		return "player"
	}
	return "unknown"
}

// Body is the collision state every entity kind embeds: position, velocity,
// circular extent, liveness and kind tag. Dead entities are logically absent
// even while still allocated (pooled instances keep their Body between lives).
type Body struct {
	X, Y   float64
	VX, VY float64
	Radius float64
	Alive  bool
	Kind   EntityKind

	// pooled marks instances handed out by a Pool. Overflow instances
	// (allocated past the pool cap) carry false and are never re-pooled.
	pooled bool
}

func (b *Body) body() *Body { return b }

// Entity is anything that participates in broad-phase collision detection.
// Implemented by embedding Body.
type Entity interface {
	body() *Body
}

// Overlaps reports whether two bodies' circles touch or intersect.
func (b *Body) Overlaps(o *Body) bool {
	return CheckCollision(b.X, b.Y, b.Radius, o.X, o.Y, o.Radius)
}
