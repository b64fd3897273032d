package postgres

import (
	"context"

	"github.com/dom/shared-lists/internal/domain"
	"gorm.io/gorm"
)

type listRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *listRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(ctx context.Context, list *domain.ShoppingList) error {
	return translate("create list", r.db.WithContext(ctx).Create(list).Error)
}

func (r *listRepository) GetByID(ctx context.Context, id uint) (*domain.ShoppingList, error) {
	var list domain.ShoppingList
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&list, id).Error
	if err != nil {
		return nil, translate("get list", err)
	}
	return &list, nil
}

func (r *listRepository) GetAll(ctx context.Context) ([]*domain.ShoppingList, error) {
	var lists []*domain.ShoppingList
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id ASC").
		Find(&lists).Error
	if err != nil {
		return nil, translate("list lists", err)
	}
	return lists, nil
}

func (r *listRepository) Update(ctx context.Context, list *domain.ShoppingList) error {
	result := r.db.WithContext(ctx).
		Model(list).
		Select("name", "description").
		Updates(list)
	if result.Error != nil {
		return translate("update list", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("update list", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *listRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.ShoppingList{}, id)
	if result.Error != nil {
		return translate("delete list", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("delete list", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *listRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ShoppingList{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, translate("list exists", err)
	}
	return count > 0, nil
}
