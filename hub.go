package main

import (
	"sync"

	"go.uber.org/zap"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub tracks connected clients and enforces connection limits. Game state
// fan-out happens per session; the hub only owns connection lifecycle.
type Hub struct {
	log      *zap.SugaredLogger
	sessions *SessionManager
	auth     *Auth
	db       *DB

	mu      sync.Mutex
	clients map[*Client]struct{}
	perIP   map[string]int
}

func NewHub(log *zap.SugaredLogger, sessions *SessionManager, auth *Auth, db *DB) *Hub {
	return &Hub{
		log:      log,
		sessions: sessions,
		auth:     auth,
		db:       db,
		clients:  make(map[*Client]struct{}),
		perIP:    make(map[string]int),
	}
}

// CanAccept reports whether a new connection from ip is within limits.
func (h *Hub) CanAccept(ip string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) < maxTotalConns && h.perIP[ip] < maxConnsPerIP
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.perIP[c.ip]++
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if h.perIP[c.ip] <= 1 {
		delete(h.perIP, c.ip)
	} else {
		h.perIP[c.ip]--
	}
}

// ConnCount returns the number of connected clients.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
