package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64

	// Incoming message rate limit per connection.
	msgWindow     = time.Second
	msgsPerWindow = 120
)

// binaryMarker prefixes queued frames that must go out as binary websocket
// messages (msgpack game state). JSON control messages have no prefix.
const binaryMarker = 0xFF

// Client is one websocket connection. It may be in the lobby (no game) or
// attached to a session as a player.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ip   string

	game     *Game
	playerID string

	// Authenticated account, 0 until login/register/guest creation.
	dbID     int64
	username string

	msgTimes []time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn, ip string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		ip:   ip,
	}
}

// SendJSON queues a JSON message. Drops when the queue is full rather than
// blocking the game tick.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Errorw("marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// SendBinary queues a binary frame (prefixed with the marker byte for the
// write pump).
func (c *Client) SendBinary(data []byte) {
	framed := make([]byte, 0, len(data)+1)
	framed = append(framed, binaryMarker)
	framed = append(framed, data...)
	select {
	case c.send <- framed:
	default:
	}
}

// Serve registers the client and runs its pumps. Blocks until the read pump
// exits.
func (c *Client) Serve() {
	c.hub.register(c)
	go c.writePump()
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ServerTime: time.Now().UnixMilli()}})
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.leaveGame()
		c.hub.unregister(c)
		close(c.send)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debugw("read error", "ip", c.ip, "error", err)
			}
			return
		}
		if !c.allowMessage() {
			c.sendError("slow down")
			continue
		}
		c.handleMessage(data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msgType := websocket.TextMessage
			if len(data) > 0 && data[0] == binaryMarker {
				msgType = websocket.BinaryMessage
				data = data[1:]
			}
			if err := c.conn.WriteMessage(msgType, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) allowMessage() bool {
	now := time.Now()
	recent := c.msgTimes[:0]
	for _, t := range c.msgTimes {
		if now.Sub(t) < msgWindow {
			recent = append(recent, t)
		}
	}
	c.msgTimes = append(recent, now)
	return len(c.msgTimes) <= msgsPerWindow
}

func (c *Client) handleMessage(data []byte) {
	var env InEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("bad message")
		return
	}

	switch env.T {
	case MsgInput:
		var input ClientInput
		if err := json.Unmarshal(env.D, &input); err != nil {
			return
		}
		if c.game != nil && c.playerID != "" {
			input.Turn = Clamp(input.Turn, -1, 1)
			input.Thrust = Clamp(input.Thrust, -1, 1)
			c.game.HandleInput(c.playerID, input)
		}

	case MsgJoin:
		var msg JoinMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			c.sendError("bad join")
			return
		}
		c.handleJoin(msg)

	case MsgCreate:
		var msg CreateMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			c.sendError("bad create")
			return
		}
		id, err := c.hub.sessions.CreateSession(msg.SessionName)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": id}})

	case MsgList:
		c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})

	case MsgRegister:
		var msg AuthMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			c.sendError("bad register")
			return
		}
		id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.dbID, c.username = id, msg.Username
		c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{PlayerID: id, Username: msg.Username, Token: token}})

	case MsgLogin:
		var msg AuthMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			c.sendError("bad login")
			return
		}
		id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.ip)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.dbID, c.username = id, msg.Username
		c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{PlayerID: id, Username: msg.Username, Token: token}})

	case MsgBoard:
		entries, err := c.hub.db.GetLeaderboard(20)
		if err != nil {
			c.hub.log.Errorw("leaderboard", "error", err)
			c.sendError("leaderboard unavailable")
			return
		}
		board := make([]BoardEntry, len(entries))
		for i, e := range entries {
			board[i] = BoardEntry{
				Rank:     i + 1,
				Username: e.Username,
				Score:    e.Score,
				Destroys: e.Destroys,
				Scans:    e.Scans,
			}
		}
		c.SendJSON(Envelope{T: MsgBoardRes, Data: board})

	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) handleJoin(msg JoinMsg) {
	if c.game != nil {
		c.leaveGame()
	}

	game := c.hub.sessions.GetSession(msg.SessionID)
	if game == nil {
		c.sendError("session not found")
		return
	}

	name := c.username
	if msg.Token != "" && c.dbID == 0 {
		if id, username, err := c.hub.auth.ValidateToken(msg.Token); err == nil {
			c.dbID, c.username, name = id, username, username
		}
	}
	if c.dbID == 0 {
		id, guestName, err := c.hub.auth.GuestAccount(msg.Name)
		if err != nil {
			c.hub.log.Errorw("guest account", "error", err)
			c.sendError("join failed")
			return
		}
		c.dbID, c.username, name = id, guestName, guestName
	}

	p := game.AddPlayer(name, c.dbID)
	if p == nil {
		c.sendError("session full")
		return
	}
	c.game = game
	c.playerID = p.ID
	game.SetClient(p.ID, c)

	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{
		PlayerID:  p.ID,
		SessionID: msg.SessionID,
		RunID:     p.Session.SessionID,
		WorldW:    game.worldW,
		WorldH:    game.worldH,
	}})
}

func (c *Client) leaveGame() {
	if c.game == nil {
		return
	}
	c.game.RemovePlayer(c.playerID)
	c.game = nil
	c.playerID = ""
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: map[string]string{"msg": msg}})
}
