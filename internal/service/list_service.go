package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/repository"
	"go.uber.org/zap"
)

// ListService is the mutation layer for shopping lists and their items.
// Events are published only after the corresponding write succeeded.
type ListService struct {
	listRepo  repository.ListRepository
	itemRepo  repository.ItemRepository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewListService(listRepo repository.ListRepository, itemRepo repository.ItemRepository, publisher EventPublisher, logger *zap.Logger) *ListService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ListService{
		listRepo:  listRepo,
		itemRepo:  itemRepo,
		publisher: publisher,
		logger:    logger.With(zap.String("component", "lists")),
	}
}

type CreateListInput struct {
	Name        string
	Description *string
}

type CreateItemInput struct {
	Name     string
	Quantity *int
	Unit     *string
	Notes    *string
}

func (s *ListService) GetAll(ctx context.Context) ([]*domain.ShoppingList, error) {
	return s.listRepo.GetAll(ctx)
}

func (s *ListService) Get(ctx context.Context, id uint) (*domain.ShoppingList, error) {
	list, err := s.listRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListNotFound
		}
		return nil, err
	}
	return list, nil
}

// Exists reports whether a list with the given ID is stored.
func (s *ListService) Exists(ctx context.Context, id uint) (bool, error) {
	return s.listRepo.Exists(ctx, id)
}

func (s *ListService) Create(ctx context.Context, input CreateListInput) (*domain.ShoppingList, error) {
	now := time.Now()
	list := &domain.ShoppingList{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Items:       []domain.Item{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}

	if err := s.listRepo.Create(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Debug("list created", zap.Uint("list_id", list.ID))
	s.publisher.ListCreated(list)
	return list, nil
}

func (s *ListService) Update(ctx context.Context, id uint, patch domain.ListPatch) (*domain.ShoppingList, error) {
	list, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(list); err != nil {
		return nil, err
	}

	if err := s.listRepo.Update(ctx, list); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListNotFound
		}
		return nil, err
	}

	// Re-read so subscribers get the committed state.
	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publisher.ListUpdated(updated)
	return updated, nil
}

func (s *ListService) Delete(ctx context.Context, id uint) error {
	if err := s.listRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListNotFound
		}
		return err
	}

	s.logger.Debug("list deleted", zap.Uint("list_id", id))
	s.publisher.ListDeleted(id)
	return nil
}

func (s *ListService) AddItem(ctx context.Context, listID uint, input CreateItemInput) (*domain.Item, error) {
	item := &domain.Item{
		ShoppingListID: listID,
		Name:           strings.TrimSpace(input.Name),
		Quantity:       1,
		Unit:           input.Unit,
		Notes:          input.Notes,
	}
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.listRepo.Exists(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrListNotFound
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.publisher.ItemAdded(listID, item)
	return item, nil
}

func (s *ListService) UpdateItem(ctx context.Context, listID, itemID uint, patch domain.ItemPatch) (*domain.Item, error) {
	item, err := s.getItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(item); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	updated, err := s.getItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}

	s.publisher.ItemUpdated(listID, updated)
	return updated, nil
}

func (s *ListService) RemoveItem(ctx context.Context, listID, itemID uint) error {
	if _, err := s.getItem(ctx, listID, itemID); err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	s.publisher.ItemDeleted(listID, itemID)
	return nil
}

// getItem loads an item and checks it belongs to listID.
func (s *ListService) getItem(ctx context.Context, listID, itemID uint) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if item.ShoppingListID != listID {
		return nil, ErrItemNotFound
	}
	return item, nil
}
