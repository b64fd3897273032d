package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/shared-lists/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"

	// Server to Client
	MessageTypeSubscribed   MessageType = "subscribed"
	MessageTypeUnsubscribed MessageType = "unsubscribed"
	MessageTypeError        MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// NewEventMessage wraps a room event; the message type is the event kind.
func NewEventMessage(event Event) (*Message, error) {
	return NewMessage(MessageType(event.Kind()), event)
}

// Client to Server payloads

type RoomPayload struct {
	ListID uint `json:"listId"`
}

// Server to Client payloads

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes sent to clients.
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
	ErrCodeInternal       = "INTERNAL"
)

// EventKind names a room event on the wire.
type EventKind string

const (
	EventListCreated EventKind = "list-created"
	EventListUpdated EventKind = "list-updated"
	EventListDeleted EventKind = "list-deleted"
	EventItemAdded   EventKind = "item-added"
	EventItemUpdated EventKind = "item-updated"
	EventItemDeleted EventKind = "item-deleted"
	EventPeerJoined  EventKind = "peer-joined"
	EventPeerLeft    EventKind = "peer-left"
)

// Event is a room-scoped notification. The set of implementations is closed;
// each kind has exactly one payload type below.
type Event interface {
	Kind() EventKind
	isEvent()
}

type ListCreatedEvent struct {
	ListID uint                 `json:"listId"`
	List   *domain.ShoppingList `json:"list"`
}

type ListUpdatedEvent struct {
	ListID uint                 `json:"listId"`
	List   *domain.ShoppingList `json:"list"`
}

type ListDeletedEvent struct {
	ListID uint `json:"listId"`
}

type ItemAddedEvent struct {
	ListID uint         `json:"listId"`
	Item   *domain.Item `json:"item"`
}

type ItemUpdatedEvent struct {
	ListID uint         `json:"listId"`
	Item   *domain.Item `json:"item"`
}

type ItemDeletedEvent struct {
	ListID uint `json:"listId"`
	ItemID uint `json:"itemId"`
}

type PeerJoinedEvent struct {
	UserID string `json:"userId"`
	ListID uint   `json:"listId"`
}

type PeerLeftEvent struct {
	UserID string `json:"userId"`
	ListID uint   `json:"listId"`
}

func (ListCreatedEvent) Kind() EventKind { return EventListCreated }
func (ListUpdatedEvent) Kind() EventKind { return EventListUpdated }
func (ListDeletedEvent) Kind() EventKind { return EventListDeleted }
func (ItemAddedEvent) Kind() EventKind   { return EventItemAdded }
func (ItemUpdatedEvent) Kind() EventKind { return EventItemUpdated }
func (ItemDeletedEvent) Kind() EventKind { return EventItemDeleted }
func (PeerJoinedEvent) Kind() EventKind  { return EventPeerJoined }
func (PeerLeftEvent) Kind() EventKind    { return EventPeerLeft }

func (ListCreatedEvent) isEvent() {}
func (ListUpdatedEvent) isEvent() {}
func (ListDeletedEvent) isEvent() {}
func (ItemAddedEvent) isEvent()   {}
func (ItemUpdatedEvent) isEvent() {}
func (ItemDeletedEvent) isEvent() {}
func (PeerJoinedEvent) isEvent()  {}
func (PeerLeftEvent) isEvent()    {}
