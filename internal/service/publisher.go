package service

import "github.com/dom/shared-lists/internal/domain"

// EventPublisher receives committed list mutations. Implementations must not
// block the caller on slow subscribers.
type EventPublisher interface {
	ListCreated(list *domain.ShoppingList)
	ListUpdated(list *domain.ShoppingList)
	ListDeleted(listID uint)
	ItemAdded(listID uint, item *domain.Item)
	ItemUpdated(listID uint, item *domain.Item)
	ItemDeleted(listID, itemID uint)
}

type nopPublisher struct{}

func (nopPublisher) ListCreated(*domain.ShoppingList) {}
func (nopPublisher) ListUpdated(*domain.ShoppingList) {}
func (nopPublisher) ListDeleted(uint)                 {}
func (nopPublisher) ItemAdded(uint, *domain.Item)     {}
func (nopPublisher) ItemUpdated(uint, *domain.Item)   {}
func (nopPublisher) ItemDeleted(uint, uint)           {}
