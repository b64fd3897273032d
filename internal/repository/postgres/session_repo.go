package postgres

import (
	"context"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Upsert(ctx context.Context, session *domain.UserSession) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "refresh_token_hash", "expires_at", "created_at"}),
	}).Create(session).Error
	return translate("upsert session", err)
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error) {
	var session domain.UserSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, translate("get session", err)
	}
	return &session, nil
}

// Rotate relies on the row lock taken by DELETE: a concurrent rotation of
// the same session blocks until this transaction commits and then deletes
// nothing.
func (r *sessionRepository) Rotate(ctx context.Context, oldID uuid.UUID, next *domain.UserSession) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.UserSession{}, "id = ? AND user_id = ?", oldID, next.UserID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrStaleSession
		}
		return tx.Create(next).Error
	})
	return translate("rotate session", err)
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return translate("delete sessions", r.db.WithContext(ctx).Delete(&domain.UserSession{}, "user_id = ?", userID).Error)
}
