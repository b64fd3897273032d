package service

import (
	"github.com/dom/shared-lists/internal/config"
	"github.com/dom/shared-lists/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth  *AuthService
	Lists *ListService
	Items *ItemService
}

// NewServices wires the services. publisher receives list events once they
// are committed; nil disables broadcasting.
func NewServices(repos *repository.Repositories, cfg *config.Config, publisher EventPublisher, logger *zap.Logger) *Services {
	return &Services{
		Auth:  NewAuthService(repos.User, repos.Session, cfg, logger),
		Lists: NewListService(repos.List, repos.Item, publisher, logger),
		Items: NewItemService(repos.Item),
	}
}
