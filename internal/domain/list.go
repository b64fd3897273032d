package domain

import (
	"strings"
	"time"
)

type ShoppingList struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description *string   `json:"description"`
	Items       []Item    `json:"items" gorm:"foreignKey:ShoppingListID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (ShoppingList) TableName() string {
	return "shopping_lists"
}

func (l *ShoppingList) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

type Item struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ShoppingListID uint      `json:"shoppingListId" gorm:"not null;index"`
	Name           string    `json:"name" gorm:"not null"`
	Quantity       int       `json:"quantity" gorm:"not null;default:1"`
	Unit           *string   `json:"unit"`
	Completed      bool      `json:"completed" gorm:"not null;default:false"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Item) TableName() string {
	return "shopping_list_items"
}

func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrNameRequired
	}
	if i.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// ListPatch carries the optional fields of a list update.
type ListPatch struct {
	Name        *string
	Description *string
}

func (p ListPatch) Apply(l *ShoppingList) error {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return ErrNameRequired
		}
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = p.Description
	}
	return nil
}

// ItemPatch carries the optional fields of an item update.
type ItemPatch struct {
	Name      *string
	Quantity  *int
	Unit      *string
	Completed *bool
	Notes     *string
}

func (p ItemPatch) Apply(i *Item) error {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Quantity != nil {
		i.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		i.Unit = p.Unit
	}
	if p.Completed != nil {
		i.Completed = *p.Completed
	}
	if p.Notes != nil {
		i.Notes = p.Notes
	}
	return i.Validate()
}
