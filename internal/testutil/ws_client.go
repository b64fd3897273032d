package testutil

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dom/shared-lists/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	conn, resp, err := DialWS(url)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("failed to connect to websocket (status %d): %v", status, err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// DialWS performs the handshake without failing the test, for asserting
// on rejected handshakes.
func DialWS(url string) (*gorillaWS.Conn, *http.Response, error) {
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	return dialer.Dial(url, nil)
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// SendRaw writes an arbitrary text frame.
func (c *WSClient) SendRaw(data []byte) {
	c.t.Helper()

	c.mu.Lock()
	err := c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to write message: %v", err)
	}
}

// Send marshals and writes a client message.
func (c *WSClient) Send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}
	c.SendRaw(data)
}

// Subscribe joins a list's room and waits for the acknowledgement.
func (c *WSClient) Subscribe(listID uint) {
	c.t.Helper()
	c.Send(websocket.MessageTypeSubscribe, websocket.RoomPayload{ListID: listID})
	c.ExpectMessage(websocket.MessageTypeSubscribed, 2*time.Second)
}

// Unsubscribe leaves a list's room and waits for the acknowledgement.
func (c *WSClient) Unsubscribe(listID uint) {
	c.t.Helper()
	c.Send(websocket.MessageTypeUnsubscribe, websocket.RoomPayload{ListID: listID})
	c.ExpectMessage(websocket.MessageTypeUnsubscribed, 2*time.Second)
}

// ExpectMessage waits for a message of the specified type, skipping others.
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectEvent waits for a room event and decodes its payload into v.
func (c *WSClient) ExpectEvent(kind websocket.EventKind, v interface{}, timeout time.Duration) {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageType(kind), timeout)
	if v == nil {
		return
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", kind, err)
	}
}

// ExpectError waits for and decodes an error message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeError, timeout)

	var payload websocket.ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode error payload: %v", err)
	}
	return &payload
}

// ExpectErrorWithCode waits for an error message carrying code.
func (c *WSClient) ExpectErrorWithCode(code string, timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	payload := c.ExpectError(timeout)
	if payload.Code != code {
		c.t.Fatalf("expected error code %s, got %s (%s)", code, payload.Code, payload.Message)
	}
	return payload
}

// ExpectNoMessage fails if any message arrives within timeout.
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg, ok := <-c.messages:
		if ok {
			c.t.Fatalf("expected no message, got %s: %s", msg.Type, string(msg.Payload))
		}
	case <-time.After(timeout):
	}
}

// ExpectNoMessageOfType fails if a message of msgType arrives within
// timeout. Other messages are discarded.
func (c *WSClient) ExpectNoMessageOfType(msgType websocket.MessageType, timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				return
			}
			if msg.Type == msgType {
				c.t.Fatalf("unexpected %s message: %s", msgType, string(msg.Payload))
			}
		case <-deadline:
			return
		}
	}
}

// CollectMessages returns every message received within timeout.
func (c *WSClient) CollectMessages(timeout time.Duration) []*websocket.Message {
	var msgs []*websocket.Message
	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		case <-deadline:
			return msgs
		}
	}
}

// ExpectClosed waits for the server to close the connection.
func (c *WSClient) ExpectClosed(timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case _, ok := <-c.messages:
			if !ok {
				return
			}
		case <-deadline:
			c.t.Fatalf("timeout waiting for connection to close")
		}
	}
}
