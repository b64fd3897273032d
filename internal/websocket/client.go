package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// State is the lifecycle stage of a client connection.
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

type Client struct {
	id     uuid.UUID
	userID uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	// mu guards state and the closing of send.
	mu    sync.Mutex
	state State
}

// NewClient wraps an upgraded connection. The caller must already have
// verified the access token that yielded userID.
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, sendBuffer int) *Client {
	id := uuid.New()
	return &Client{
		id:     id,
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: hub.logger.With(zap.String("conn_id", id.String()), zap.String("user_id", userID.String())),
		state:  StateConnecting,
	}
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// transition moves from one state to the next and reports whether the
// client was in from.
func (c *Client) transition(from, to State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	return true
}

// markDisconnected makes the client terminal and closes its send channel.
// Only the first call returns true.
func (c *Client) markDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisconnected {
		return false
	}
	c.state = StateDisconnected
	close(c.send)
	return true
}

// trySend enqueues without blocking. It returns false when the client is
// gone or its buffer is full.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisconnected {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
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
				c.logger.Info("websocket closed unexpectedly", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(ErrCodeInvalidMessage, "Message must be a JSON object")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.hub.scheduleDisconnect(c)
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				c.hub.scheduleDisconnect(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.scheduleDisconnect(c)
				return
			}
		}
	}
}

// handleMessage runs on the read goroutine, so a client's operations are
// applied one at a time in arrival order.
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		var payload RoomPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.ListID == 0 {
			c.sendError(ErrCodeInvalidPayload, "listId is required")
			return
		}
		if msg.Type == MessageTypeSubscribe {
			c.hub.handleSubscribe(c, payload.ListID)
		} else {
			c.hub.handleUnsubscribe(c, payload.ListID)
		}

	default:
		c.sendError(ErrCodeUnknownType, "Unknown message type: "+string(msg.Type))
	}
}

func (c *Client) sendError(code, message string) {
	msg, _ := NewMessage(MessageTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
	c.Send(msg)
}

// Send delivers a message to this client only. A full buffer schedules the
// client for disconnect.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal message", zap.Error(err))
		return
	}
	if !c.trySend(data) {
		c.hub.scheduleDisconnect(c)
	}
}
