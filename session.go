package main

import (
	"errors"
	"sync"
	"time"
)

const (
	maxSessions          = 20
	sessionSweepInterval = 30 * time.Second
	sessionIdleGrace     = 2 * time.Minute
)

var ErrTooManySessions = errors.New("session limit reached")

// SessionManager owns the set of running game sessions.
type SessionManager struct {
	mu       sync.RWMutex
	cfg      *Config
	deps     GameDeps
	sessions map[string]*managedSession
	stop     chan struct{}
}

type managedSession struct {
	id      string
	name    string
	game    *Game
	created time.Time
	emptyAt time.Time // zero while occupied
}

func NewSessionManager(cfg *Config, deps GameDeps) *SessionManager {
	sm := &SessionManager{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[string]*managedSession),
		stop:     make(chan struct{}),
	}
	go sm.sweeper()
	return sm
}

// CreateSession starts a new game session and returns its id.
func (sm *SessionManager) CreateSession(name string) (string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return "", ErrTooManySessions
	}
	game, err := NewGame(sm.cfg, sm.deps)
	if err != nil {
		return "", err
	}

	id := GenerateID(3)
	for sm.sessions[id] != nil {
		id = GenerateID(3)
	}
	if name == "" {
		name = "game-" + id
	}
	sm.sessions[id] = &managedSession{
		id:      id,
		name:    name,
		game:    game,
		created: time.Now(),
		emptyAt: time.Now(),
	}
	go game.Run()

	sm.deps.Log.Infow("session created", "id", id, "name", name)
	return id, nil
}

// GetSession returns the game for a session id, or nil.
func (sm *SessionManager) GetSession(id string) *Game {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, ok := sm.sessions[id]; ok {
		return s.game
	}
	return nil
}

// ListSessions returns joinable sessions for the lobby.
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		infos = append(infos, SessionInfo{
			ID:      s.id,
			Name:    s.name,
			Players: s.game.PlayerCount(),
			Max:     maxPlayersPerSession,
		})
	}
	return infos
}

// Close stops the sweeper and all running sessions.
func (sm *SessionManager) Close() {
	close(sm.stop)
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, s := range sm.sessions {
		s.game.Stop()
		delete(sm.sessions, id)
	}
}

// sweeper stops sessions that have sat empty past the grace period.
func (sm *SessionManager) sweeper() {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.sweep()
		case <-sm.stop:
			return
		}
	}
}

func (sm *SessionManager) sweep() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for id, s := range sm.sessions {
		if s.game.PlayerCount() > 0 {
			s.emptyAt = time.Time{}
			continue
		}
		if s.emptyAt.IsZero() {
			s.emptyAt = now
			continue
		}
		if now.Sub(s.emptyAt) > sessionIdleGrace {
			stats := s.game.Stats()
			sm.deps.Log.Infow("stopping idle session",
				"id", id,
				"asteroids", stats.Asteroids,
				"pool_active", stats.AsteroidActive,
				"pool_free", stats.AsteroidFree,
			)
			s.game.Stop()
			delete(sm.sessions, id)
		}
	}
}
