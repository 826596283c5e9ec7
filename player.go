package main

import "math"

const (
	PlayerRadius    = 20.0
	PlayerSpeed     = 200.0 // pixels/s
	PlayerTurnSpeed = 5.0   // radians/s
	ShootCooldown   = 0.3   // seconds between shots
)

// Player is a ship flying the arena, scanning and shooting debris. Players
// are not pooled: they live exactly as long as their run.
type Player struct {
	Body
	ID       string
	Name     string
	Rotation float64
	FireCD   float64

	// Latest input, applied each tick
	Turn   float64 // -1..1
	Thrust float64 // -1..1
	Firing bool
	Scan   bool

	// Scan progress, advanced by the game while Scan is held
	ScanTimer  float64
	ScanTarget *Asteroid

	Session *RunSession
	DBID    int64 // persisted account id, 0 for unsaved guests
}

// NewPlayer creates a player at the given position with a fresh run session.
func NewPlayer(id, name string, x, y float64, session *RunSession) *Player {
	return &Player{
		Body: Body{
			X:      x,
			Y:      y,
			Radius: PlayerRadius,
			Alive:  true,
			Kind:   KindPlayer,
		},
		ID:      id,
		Name:    name,
		Session: session,
	}
}

// Update applies input for one tick: turn, thrust, cooldowns. The ship stays
// clamped inside the world.
func (p *Player) Update(dt, worldW, worldH float64) {
	if !p.Alive {
		return
	}

	p.Rotation += Clamp(p.Turn, -1, 1) * PlayerTurnSpeed * dt
	p.Rotation = NormalizeAngle(p.Rotation)

	thrust := Clamp(p.Thrust, -1, 1)
	if thrust != 0 {
		p.X += math.Cos(p.Rotation) * PlayerSpeed * thrust * dt
		p.Y += math.Sin(p.Rotation) * PlayerSpeed * thrust * dt
		p.X = Clamp(p.X, 0, worldW)
		p.Y = Clamp(p.Y, 0, worldH)
	}

	if p.FireCD > 0 {
		p.FireCD -= dt
	}
}

// CanFire reports whether the player wants to and may fire this tick.
func (p *Player) CanFire() bool {
	return p.Alive && p.Firing && p.FireCD <= 0
}

// SetScanTarget retargets the scan beam. Switching targets restarts the
// progress timer.
func (p *Player) SetScanTarget(a *Asteroid) {
	if a != p.ScanTarget {
		p.ScanTarget = a
		p.ScanTimer = 0
	}
}

// EndScan drops the current scan target and progress.
func (p *Player) EndScan() {
	p.ScanTarget = nil
	p.ScanTimer = 0
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	score := 0
	if p.Session != nil {
		score = p.Session.Score
	}
	s := PlayerState{
		ID:    p.ID,
		Name:  p.Name,
		X:     round1(p.X),
		Y:     round1(p.Y),
		Rot:   round1(p.Rotation),
		Score: score,
		Alive: p.Alive,
	}
	if p.ScanTarget != nil {
		s.ScanID = p.ScanTarget.ID
		s.ScanT = round1(p.ScanTimer)
	}
	return s
}
