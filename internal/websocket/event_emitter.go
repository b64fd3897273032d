package websocket

import (
	"github.com/dom/shared-lists/internal/domain"
	"go.uber.org/zap"
)

// EventEmitter turns committed list mutations into room events. It is the
// publisher handed to the list service.
type EventEmitter struct {
	hub    *Hub
	logger *zap.Logger
}

func NewEventEmitter(hub *Hub) *EventEmitter {
	return &EventEmitter{
		hub:    hub,
		logger: hub.logger,
	}
}

func (e *EventEmitter) publish(listID uint, event Event) {
	roomID := domain.ListRoom(listID)
	if err := e.hub.Publish(roomID, event); err != nil {
		e.logger.Warn("publish failed",
			zap.String("kind", string(event.Kind())),
			zap.Stringer("room", roomID),
			zap.Error(err))
	}
}

// --- List events ---

// ListCreated publishes on the new list's own room, which is normally
// still empty. Every committed mutation yields exactly one event.
func (e *EventEmitter) ListCreated(list *domain.ShoppingList) {
	e.publish(list.ID, ListCreatedEvent{ListID: list.ID, List: list})
}

func (e *EventEmitter) ListUpdated(list *domain.ShoppingList) {
	e.publish(list.ID, ListUpdatedEvent{ListID: list.ID, List: list})
}

func (e *EventEmitter) ListDeleted(listID uint) {
	e.publish(listID, ListDeletedEvent{ListID: listID})
}

// --- Item events ---

func (e *EventEmitter) ItemAdded(listID uint, item *domain.Item) {
	e.publish(listID, ItemAddedEvent{ListID: listID, Item: item})
}

func (e *EventEmitter) ItemUpdated(listID uint, item *domain.Item) {
	e.publish(listID, ItemUpdatedEvent{ListID: listID, Item: item})
}

func (e *EventEmitter) ItemDeleted(listID, itemID uint) {
	e.publish(listID, ItemDeletedEvent{ListID: listID, ItemID: itemID})
}
