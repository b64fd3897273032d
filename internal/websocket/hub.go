package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrHubStopped = errors.New("hub stopped")

const (
	disconnectQueueSize = 256
	listLookupTimeout   = 5 * time.Second
)

// ListLookup confirms a list exists before a client may join its room.
type ListLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// Hub is the broadcast gateway. It owns the connection registry, applies
// subscribe/unsubscribe requests from clients and fans published events
// out to room members.
type Hub struct {
	registry *Registry
	lists    ListLookup
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	stopped bool

	// publishMu serializes fan-out so every member of a room observes
	// events in the same order.
	publishMu sync.Mutex

	disconnects chan *Client
	stop        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
}

// NewHub creates a hub. lists may be nil, in which case any list ID may be
// subscribed to.
func NewHub(lists ListLookup, logger *zap.Logger) *Hub {
	return &Hub{
		registry:    NewRegistry(),
		lists:       lists,
		logger:      logger.With(zap.String("component", "hub")),
		clients:     make(map[uuid.UUID]*Client),
		disconnects: make(chan *Client, disconnectQueueSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run processes scheduled disconnects until Stop is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			clients := make([]*Client, 0, len(h.clients))
			for _, client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.Unlock()

			for _, client := range clients {
				h.Disconnect(client)
			}
			return

		case client := <-h.disconnects:
			h.Disconnect(client)
		}
	}
}

// Stop disconnects every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()
		close(h.stop)
	})
	<-h.done
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Register authenticates the client into the hub. From here on the client
// may subscribe to rooms.
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return ErrHubStopped
	}
	if err := h.registry.Register(client.id, client.userID); err != nil {
		h.mu.Unlock()
		return fmt.Errorf("register client %s: %w", client.id, err)
	}
	h.clients[client.id] = client
	h.mu.Unlock()

	client.transition(StateConnecting, StateAuthenticated)
	h.logger.Debug("client registered",
		zap.String("conn_id", client.id.String()),
		zap.String("user_id", client.userID.String()))
	return nil
}

// Disconnect removes the client from every room and closes its outbound
// queue. It is safe to call any number of times, from any goroutine, and
// for clients that never finished registering.
func (h *Hub) Disconnect(client *Client) {
	if !client.markDisconnected() {
		return
	}

	h.mu.Lock()
	delete(h.clients, client.id)
	h.mu.Unlock()

	rooms := h.registry.Unregister(client.id)
	for _, roomID := range rooms {
		h.notifyPeers(roomID, client.id, PeerLeftEvent{
			UserID: client.userID.String(),
			ListID: roomID.ListID(),
		})
	}

	h.logger.Debug("client disconnected",
		zap.String("conn_id", client.id.String()),
		zap.Int("rooms", len(rooms)))
}

// scheduleDisconnect hands the client to the run loop so the caller never
// blocks on cleanup.
func (h *Hub) scheduleDisconnect(client *Client) {
	select {
	case h.disconnects <- client:
	default:
		go h.Disconnect(client)
	}
}

func (h *Hub) client(id uuid.UUID) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

func (h *Hub) handleSubscribe(client *Client, listID uint) {
	if client.State() != StateAuthenticated {
		client.sendError(ErrCodeUnauthorized, "Connection is not authenticated")
		return
	}

	if h.lists != nil {
		ctx, cancel := context.WithTimeout(context.Background(), listLookupTimeout)
		exists, err := h.lists.Exists(ctx, listID)
		cancel()
		if err != nil {
			h.logger.Error("list lookup failed", zap.Uint("list_id", listID), zap.Error(err))
			client.sendError(ErrCodeInternal, "Could not subscribe to list")
			return
		}
		if !exists {
			client.sendError(ErrCodeRoomNotFound, "List does not exist")
			return
		}
	}

	roomID := domain.ListRoom(listID)
	ack, _ := NewMessage(MessageTypeSubscribed, RoomPayload{ListID: listID})

	// The acknowledgement is queued under the publish lock so it reaches the
	// client before any event published to the room after the join.
	h.publishMu.Lock()
	added, err := h.registry.Subscribe(client.id, roomID)
	if err == nil {
		client.Send(ack)
	}
	h.publishMu.Unlock()

	if err != nil {
		client.sendError(ErrCodeUnauthorized, "Connection is not registered")
		return
	}

	if added {
		h.notifyPeers(roomID, client.id, PeerJoinedEvent{
			UserID: client.userID.String(),
			ListID: listID,
		})
	}
}

func (h *Hub) handleUnsubscribe(client *Client, listID uint) {
	if client.State() != StateAuthenticated {
		client.sendError(ErrCodeUnauthorized, "Connection is not authenticated")
		return
	}

	roomID := domain.ListRoom(listID)
	ack, _ := NewMessage(MessageTypeUnsubscribed, RoomPayload{ListID: listID})

	h.publishMu.Lock()
	removed := h.registry.Unsubscribe(client.id, roomID)
	client.Send(ack)
	h.publishMu.Unlock()

	if removed {
		h.notifyPeers(roomID, client.id, PeerLeftEvent{
			UserID: client.userID.String(),
			ListID: listID,
		})
	}
}

// Publish fans an event out to every connection currently in the room.
// Delivery to each member is independent: members that cannot accept the
// event are scheduled for disconnect and the rest still receive it.
func (h *Hub) Publish(roomID domain.RoomID, event Event) error {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return ErrHubStopped
	}

	return h.broadcast(roomID, uuid.Nil, event)
}

// notifyPeers sends an advisory event to the room, skipping the originator.
func (h *Hub) notifyPeers(roomID domain.RoomID, except uuid.UUID, event Event) {
	if err := h.broadcast(roomID, except, event); err != nil {
		h.logger.Warn("peer notification failed", zap.Stringer("room", roomID), zap.Error(err))
	}
}

func (h *Hub) broadcast(roomID domain.RoomID, except uuid.UUID, event Event) error {
	msg, err := NewEventMessage(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Kind(), err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Kind(), err)
	}

	var failed []*Client

	h.publishMu.Lock()
	for _, connID := range h.registry.MembersOf(roomID) {
		if connID == except {
			continue
		}
		client := h.client(connID)
		if client == nil {
			continue
		}
		if !client.trySend(data) {
			failed = append(failed, client)
		}
	}
	h.publishMu.Unlock()

	for _, client := range failed {
		h.logger.Warn("dropping slow or closed client",
			zap.String("conn_id", client.id.String()),
			zap.Stringer("room", roomID))
		h.scheduleDisconnect(client)
	}
	return nil
}

// ConnectionCount and RoomCount report registry sizes.
func (h *Hub) ConnectionCount() int {
	return h.registry.ConnectionCount()
}

func (h *Hub) RoomCount() int {
	return h.registry.RoomCount()
}
