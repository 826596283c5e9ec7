package main

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	maxPlayersPerSession = 8
	maxShotsPerSession   = 500
	spawnPlacementTries  = 10
)

// Broadcaster sends messages to one client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// GameDeps are the shared server services a game session uses.
type GameDeps struct {
	Log       *zap.SugaredLogger
	DB        *DB
	Analytics *Analytics
	Debris    *DebrisFetcher
	Secret    []byte // HMAC key for score packets
}

// Game holds the state for one session: the simulation core (spatial hash,
// entity pools, live entity maps) plus the clients watching it. All mutation
// happens under mu from the session's Run goroutine and the websocket
// handlers; the per-tick core itself is single-threaded.
type Game struct {
	mu   sync.RWMutex
	cfg  GameConfig
	deps GameDeps

	worldW, worldH float64

	players   map[string]*Player
	asteroids map[string]*Asteroid
	shots     map[string]*Shot
	clients   map[string]Broadcaster

	spatial      *SpatialHash
	asteroidPool *Pool[*Asteroid]
	shotPool     *Pool[*Shot]
	field        *AsteroidField

	tick    uint64
	running bool
	stop    chan struct{}
}

// NewGame constructs a session from config. Pool and grid construction errors
// are configuration errors and fatal for the session.
func NewGame(cfg *Config, deps GameDeps) (*Game, error) {
	asteroidPool, err := NewPool(newPoolAsteroid, cfg.Pools.Asteroids.Initial, cfg.Pools.Asteroids.Max)
	if err != nil {
		return nil, err
	}
	shotPool, err := NewPool(newPoolShot, cfg.Pools.Shots.Initial, cfg.Pools.Shots.Max)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:          cfg.Game,
		deps:         deps,
		worldW:       cfg.World.Width,
		worldH:       cfg.World.Height,
		players:      make(map[string]*Player),
		asteroids:    make(map[string]*Asteroid),
		shots:        make(map[string]*Shot),
		clients:      make(map[string]Broadcaster),
		spatial:      NewSpatialHash(cfg.Spatial.CellSize),
		asteroidPool: asteroidPool,
		shotPool:     shotPool,
		stop:         make(chan struct{}),
	}
	g.field = NewAsteroidField(cfg.Game.SpawnInterval, deps.Debris)
	return g, nil
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(g.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// AddPlayer adds a new player with a fresh run session. Returns nil when the
// session is full. dbID links the run to a persisted account (0 = none).
func (g *Game) AddPlayer(name string, dbID int64) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= maxPlayersPerSession {
		return nil
	}

	x, y := g.clearSpawnPosition()
	p := NewPlayer(GenerateID(4), name, x, y, NewRunSession(g.deps.Secret))
	p.DBID = dbID
	g.players[p.ID] = p

	if g.deps.Analytics != nil {
		g.deps.Analytics.Track(EvtRunStart, dbID, p.Session.SessionID, "")
	}
	return p
}

// clearSpawnPosition picks a central spawn point, preferring spots whose grid
// neighborhood is free of live asteroids. The grid holds the last completed
// tick here, which is exactly the population a joining ship must avoid.
func (g *Game) clearSpawnPosition() (float64, float64) {
	for i := 0; i < spawnPlacementTries; i++ {
		x := g.worldW/4 + randFloat()*g.worldW/2
		y := g.worldH/4 + randFloat()*g.worldH/2
		blocked := false
		for _, e := range g.spatial.QueryPoint(x, y) {
			b := e.body()
			if b.Alive && CheckCollision(x, y, PlayerRadius*3, b.X, b.Y, b.Radius) {
				blocked = true
				break
			}
		}
		if !blocked {
			return x, y
		}
	}
	return g.worldW / 2, g.worldH / 2
}

// RemovePlayer removes a player from the game
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.players, id)
	delete(g.clients, id)
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// HandleInput processes input from a player
func (g *Game) HandleInput(playerID string, input ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok {
		return
	}
	p.Turn = input.Turn
	p.Thrust = input.Thrust
	p.Firing = input.Fire
	p.Scan = input.Scan
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// update runs one game tick: advance entities, rebuild the broad-phase index
// from the live set, spawn, query, then apply deferred releases and splits.
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	dt := 1.0 / float64(g.cfg.TickRate)
	g.tick++

	// Advance players, handle firing
	for _, p := range g.players {
		p.Update(dt, g.worldW, g.worldH)
		if p.CanFire() && len(g.shots) < maxShotsPerSession {
			vx := math.Cos(p.Rotation) * ShotSpeed
			vy := math.Sin(p.Rotation) * ShotSpeed
			g.AcquireShot(
				p.X+math.Cos(p.Rotation)*ShotOffset,
				p.Y+math.Sin(p.Rotation)*ShotOffset,
				vx, vy, p.ID,
			)
			p.FireCD = ShootCooldown
		}
	}

	// Advance shots and asteroids; release expired/off-map ones after the
	// map iteration, not during it.
	var deadShots []*Shot
	for _, s := range g.shots {
		s.Update(dt)
		if !s.Alive {
			deadShots = append(deadShots, s)
		}
	}
	var goneAsteroids []*Asteroid
	for _, a := range g.asteroids {
		a.Update(dt)
		if a.OffMap(g.worldW, g.worldH) {
			goneAsteroids = append(goneAsteroids, a)
		}
	}
	for _, s := range deadShots {
		g.ReleaseShot(s)
	}
	for _, a := range goneAsteroids {
		g.ReleaseAsteroid(a)
	}

	// Rebuild the broad-phase index from the current live set. Queries
	// below this point see this tick's state.
	g.spatial.Clear()
	for _, a := range g.asteroids {
		g.spatial.Insert(a)
	}
	for _, s := range g.shots {
		g.spatial.Insert(s)
	}
	for _, p := range g.players {
		if p.Alive {
			g.spatial.Insert(p)
		}
	}

	// Spawner queries and inserts into the fresh grid.
	g.field.Update(g, dt)

	g.checkCollisions()
	g.updateScans(dt)

	if g.tick%uint64(g.cfg.BroadcastEvery) == 0 {
		g.broadcastState()
	}
}

// checkCollisions runs the broad-phase queries and narrow-phase tests, then
// applies the outcomes. Hits are collected first and resolved after all
// iteration: releasing or splitting mid-scan would mutate the maps being
// iterated and recycle instances that later queries still reference.
func (g *Game) checkCollisions() {
	type shotHit struct {
		shot       *Shot
		asteroid   *Asteroid
		asteroidID string
	}
	var hits []shotHit
	var deadPlayers []*Player

	for _, s := range g.shots {
		if !s.Alive {
			continue
		}
		for _, cand := range g.spatial.Query(s) {
			b := cand.body()
			if b.Kind != KindAsteroid || !b.Alive {
				continue
			}
			if s.Overlaps(b) {
				a := cand.(*Asteroid)
				hits = append(hits, shotHit{s, a, a.ID})
				break
			}
		}
	}

	for _, p := range g.players {
		if !p.Alive {
			continue
		}
		for _, cand := range g.spatial.Query(p) {
			b := cand.body()
			if b.Kind != KindAsteroid || !b.Alive {
				continue
			}
			if p.Overlaps(b) {
				deadPlayers = append(deadPlayers, p)
				break
			}
		}
	}

	for _, h := range hits {
		g.ReleaseShot(h.shot)
		// Re-validate the hit by id: splitting an earlier hit this tick
		// releases its parent into the pool, and the pool can recycle
		// that exact pointer into an offspring immediately. The Alive
		// flag on the pointer then belongs to a different asteroid, so
		// only the pointer still live in the map under the captured id
		// is the asteroid this shot actually hit.
		cur, ok := g.asteroids[h.asteroidID]
		if !ok || cur != h.asteroid {
			continue
		}
		norad := ""
		if h.asteroid.Debris != nil {
			norad = h.asteroid.Debris.NoradID
		}
		if owner, ok := g.players[h.shot.OwnerID]; ok && owner.Session != nil {
			owner.Session.RecordDestroy(norad)
			if c, ok := g.clients[owner.ID]; ok {
				c.SendJSON(Envelope{T: MsgDestroy, Data: DestroyMsg{
					NoradID: norad,
					Points:  DestroyPoints,
				}})
			}
			if g.deps.Analytics != nil {
				g.deps.Analytics.Track(EvtDestroy, owner.DBID, owner.Session.SessionID, norad)
			}
		}
		g.SplitAsteroid(h.asteroid)
	}

	for _, p := range deadPlayers {
		g.endRun(p)
	}
}

// updateScans advances scan beams for players holding scan. Targeting picks
// the nearest live asteroid in range via a rect query on the fresh grid.
func (g *Game) updateScans(dt float64) {
	for _, p := range g.players {
		if !p.Alive || !p.Scan {
			p.EndScan()
			continue
		}

		if target := g.nearestAsteroid(p.X, p.Y, g.cfg.ScanRange); target != nil {
			p.SetScanTarget(target)
		}
		a := p.ScanTarget
		if a == nil {
			continue
		}
		if !a.Alive || Distance(p.X, p.Y, a.X, a.Y) > g.cfg.ScanRange {
			p.EndScan()
			continue
		}

		p.ScanTimer += dt
		norad := ""
		if a.Debris != nil {
			norad = a.Debris.NoradID
		}
		switch {
		case p.ScanTimer >= g.cfg.ScanTimeFull && !a.FullScan:
			a.FullScan = true
			a.Scanned = true
			g.scanCompleted(p, a, "full", norad)
		case p.ScanTimer >= g.cfg.ScanTimeQuick && !a.Scanned:
			a.Scanned = true
			g.scanCompleted(p, a, "quick", norad)
		}
	}
}

func (g *Game) scanCompleted(p *Player, a *Asteroid, scanType, norad string) {
	points := ScanPointsQuick
	if scanType == "full" {
		points = ScanPointsFull
	}
	if p.Session != nil {
		p.Session.RecordScan(scanType, norad)
	}
	if c, ok := g.clients[p.ID]; ok {
		msg := ScannedMsg{ScanType: scanType, Points: points}
		if a.Debris != nil {
			msg.Debris = a.Debris
		}
		c.SendJSON(Envelope{T: MsgScanned, Data: msg})
	}
	if g.deps.Analytics != nil {
		evt := EvtScanQuick
		if scanType == "full" {
			evt = EvtScanFull
		}
		g.deps.Analytics.Track(evt, p.DBID, p.Session.SessionID, norad)
	}
}

// nearestAsteroid returns the closest live asteroid within maxRange of a
// point, or nil.
func (g *Game) nearestAsteroid(x, y, maxRange float64) *Asteroid {
	var nearest *Asteroid
	nearestDist := maxRange
	for _, cand := range g.spatial.QueryRect(x-maxRange, y-maxRange, x+maxRange, y+maxRange) {
		b := cand.body()
		if b.Kind != KindAsteroid || !b.Alive {
			continue
		}
		if d := Distance(x, y, b.X, b.Y); d < nearestDist {
			nearestDist = d
			nearest = cand.(*Asteroid)
		}
	}
	return nearest
}

// endRun finishes a player's run: sign the score packet, persist it, notify
// the client and drop the player from the simulation.
func (g *Game) endRun(p *Player) {
	p.Alive = false

	var packet ScorePacket
	if p.Session != nil {
		p.Session.RecordDeath()
		packet = p.Session.CreatePacket()
	}

	if c, ok := g.clients[p.ID]; ok {
		c.SendJSON(Envelope{T: MsgGameOver, Data: GameOverMsg{
			Score:  packet.Score,
			Packet: packet,
		}})
	}
	if g.deps.Analytics != nil {
		g.deps.Analytics.Track(EvtPlayerDeath, p.DBID, packet.SessionID, "")
		g.deps.Analytics.Track(EvtRunEnd, p.DBID, packet.SessionID, strconv.Itoa(packet.Score))
	}

	// Persist off the tick goroutine; verification mirrors what a remote
	// submission endpoint would do.
	if g.deps.DB != nil && p.Session != nil {
		dbID := p.DBID
		secret := g.deps.Secret
		log := g.deps.Log
		go func() {
			if !VerifyScorePacket(packet, secret) || !ValidateScoreRate(packet) || !ValidateActionCounts(packet) {
				log.Warnw("rejecting run packet", "session", packet.SessionID, "score", packet.Score)
				return
			}
			if err := g.deps.DB.InsertRun(dbID, packet); err != nil {
				log.Errorw("persist run", "error", err, "session", packet.SessionID)
			}
		}()
	}

	delete(g.players, p.ID)
}

// broadcastState sends the current game state to all clients as a binary
// msgpack frame.
func (g *Game) broadcastState() {
	state := GameState{
		Tick:      g.tick,
		Players:   make([]PlayerState, 0, len(g.players)),
		Asteroids: make([]AsteroidState, 0, len(g.asteroids)),
		Shots:     make([]ShotState, 0, len(g.shots)),
	}
	for _, p := range g.players {
		state.Players = append(state.Players, p.ToState())
	}
	for _, a := range g.asteroids {
		state.Asteroids = append(state.Asteroids, a.ToState())
	}
	for _, s := range g.shots {
		state.Shots = append(state.Shots, s.ToState())
	}

	data, err := msgpack.Marshal(state)
	if err != nil {
		g.deps.Log.Errorw("marshal state", "error", err)
		return
	}
	for _, client := range g.clients {
		client.SendBinary(data)
	}
}

// GameStats is a diagnostics snapshot of the simulation core.
type GameStats struct {
	Players        int
	Asteroids      int
	Shots          int
	GridEntities   int
	GridCells      int
	AsteroidActive int
	AsteroidFree   int
	ShotActive     int
	ShotFree       int
}

// Stats snapshots pool and grid counters (debug surface).
func (g *Game) Stats() GameStats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return GameStats{
		Players:        len(g.players),
		Asteroids:      len(g.asteroids),
		Shots:          len(g.shots),
		GridEntities:   g.spatial.EntityCount(),
		GridCells:      g.spatial.CellCount(),
		AsteroidActive: g.asteroidPool.Active(),
		AsteroidFree:   g.asteroidPool.Available(),
		ShotActive:     g.shotPool.Active(),
		ShotFree:       g.shotPool.Available(),
	}
}
