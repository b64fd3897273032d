package postgres

import (
	"context"
	"strings"

	"github.com/dom/shared-lists/internal/domain"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *itemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	return translate("create item", r.db.WithContext(ctx).Create(item).Error)
}

func (r *itemRepository) GetByID(ctx context.Context, id uint) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate("get item", err)
	}
	return &item, nil
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	result := r.db.WithContext(ctx).
		Model(item).
		Select("name", "quantity", "unit", "completed", "notes").
		Updates(item)
	if result.Error != nil {
		return translate("update item", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("update item", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Item{}, id)
	if result.Error != nil {
		return translate("delete item", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("delete item", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *itemRepository) SearchNames(ctx context.Context, query string, limit int) ([]string, error) {
	var names []string
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.db.WithContext(ctx).
		Model(&domain.Item{}).
		Distinct("name").
		Where("LOWER(name) LIKE ?", pattern).
		Limit(limit).
		Pluck("name", &names).Error
	if err != nil {
		return nil, translate("search item names", err)
	}
	return names, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
