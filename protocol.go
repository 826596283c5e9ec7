package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgCreate   = "create" // create session
	MsgList     = "list"   // list sessions
	MsgInput    = "input"
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgBoard    = "board" // leaderboard request
)

// Server -> Client message types
const (
	MsgWelcome  = "welcome"
	MsgCreated  = "created" // session created, client should navigate
	MsgSessions = "sessions"
	MsgJoined   = "joined"
	MsgState    = "state" // binary msgpack, not JSON
	MsgScanned  = "scanned"
	MsgDestroy  = "destroy"
	MsgGameOver = "gameover"
	MsgAuthOK   = "auth_ok"
	MsgBoardRes = "board"
	MsgError    = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is sent by the client every input frame
type ClientInput struct {
	Turn   float64 `json:"turn"`   // -1..1
	Thrust float64 `json:"thrust"` // -1..1
	Fire   bool    `json:"fire"`
	Scan   bool    `json:"scan"`
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Token     string `json:"tok,omitempty"` // optional JWT from a previous login
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	SessionName string `json:"sname"`
}

// AuthMsg carries register/login credentials
type AuthMsg struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

// AuthOKMsg is the register/login response
type AuthOKMsg struct {
	PlayerID int64  `json:"pid"`
	Username string `json:"u"`
	Token    string `json:"tok"`
}

// SessionInfo describes one joinable session
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Max     int    `json:"max"`
}

// WelcomeMsg greets a new connection
type WelcomeMsg struct {
	ServerTime int64 `json:"ts"`
}

// JoinedMsg confirms a join and carries the player's identity
type JoinedMsg struct {
	PlayerID  string  `json:"id"`
	SessionID string  `json:"sid"`
	RunID     string  `json:"run"`
	WorldW    float64 `json:"w"`
	WorldH    float64 `json:"h"`
}

// ScannedMsg notifies a player of a completed scan
type ScannedMsg struct {
	ScanType string        `json:"scan"` // "quick" or "full"
	Points   int           `json:"pts"`
	Debris   *DebrisObject `json:"debris,omitempty"`
}

// DestroyMsg notifies a player of a confirmed asteroid destroy
type DestroyMsg struct {
	NoradID string `json:"norad,omitempty"`
	Points  int    `json:"pts"`
}

// GameOverMsg ends a run with the signed score packet
type GameOverMsg struct {
	Score  int         `json:"score"`
	Packet ScorePacket `json:"packet"`
}

// BoardEntry is one leaderboard row
type BoardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Destroys int    `json:"destroys"`
	Scans    int    `json:"scans"`
}

// GameState is broadcast as a binary msgpack frame every broadcast tick.
type GameState struct {
	Tick      uint64          `msgpack:"t"`
	Players   []PlayerState   `msgpack:"p"`
	Asteroids []AsteroidState `msgpack:"a"`
	Shots     []ShotState     `msgpack:"s"`
}

// PlayerState is broadcast per player
type PlayerState struct {
	ID    string  `msgpack:"id"`
	Name  string  `msgpack:"n"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	Rot   float64 `msgpack:"r"`
	Score int     `msgpack:"sc"`
	Alive bool    `msgpack:"a"`
	// Current scan beam, if any
	ScanID string  `msgpack:"st,omitempty"`
	ScanT  float64 `msgpack:"sp,omitempty"`
}

// AsteroidState is broadcast per asteroid. NoradID appears after a quick
// scan, Name after a full scan.
type AsteroidState struct {
	ID      string  `msgpack:"id"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	Radius  float64 `msgpack:"rd"`
	Rot     float64 `msgpack:"r"`
	Scanned bool    `msgpack:"sc"`
	NoradID string  `msgpack:"no,omitempty"`
	Name    string  `msgpack:"nm,omitempty"`
}

// ShotState is broadcast per shot
type ShotState struct {
	ID    string  `msgpack:"id"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	Owner string  `msgpack:"o"`
}
