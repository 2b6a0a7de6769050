package contact

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/pagination"
	"github.com/folio-space/core/internal/pkg/response"
)

var ErrNotFound = errors.New("contact message not found")

// Repository is the contact_messages table access.
type Repository interface {
	Create(ctx context.Context, m *models.ContactMessageModel) error
	List(ctx context.Context, q pagination.Query, unreadOnly bool) ([]models.ContactMessageModel, response.Pagination, error)
	Recent(ctx context.Context, limit int) ([]models.ContactMessageModel, error)
	SetRead(ctx context.Context, id string, read bool) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, unreadOnly bool) (int64, error)
}

type gormRepository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository { return &gormRepository{db: db} }

func (r *gormRepository) Create(ctx context.Context, m *models.ContactMessageModel) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *gormRepository) List(ctx context.Context, q pagination.Query, unreadOnly bool) ([]models.ContactMessageModel, response.Pagination, error) {
	tx := r.db.Model(&models.ContactMessageModel{})
	if unreadOnly {
		tx = tx.Where("is_read = ?", false)
	}
	var items []models.ContactMessageModel
	pag, err := pagination.Paginate(ctx, tx.Order("created_at DESC"), q, &items)
	return items, pag, err
}

func (r *gormRepository) Recent(ctx context.Context, limit int) ([]models.ContactMessageModel, error) {
	var items []models.ContactMessageModel
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

func (r *gormRepository) SetRead(ctx context.Context, id string, read bool) error {
	// Select forces the column into the statement even when read is false.
	res := r.db.WithContext(ctx).Model(&models.ContactMessageModel{}).
		Where("id = ?", id).
		Select("is_read", "updated_at").
		Updates(map[string]any{"is_read": read})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.ContactMessageModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Count(ctx context.Context, unreadOnly bool) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.ContactMessageModel{})
	if unreadOnly {
		tx = tx.Where("is_read = ?", false)
	}
	var n int64
	err := tx.Count(&n).Error
	return n, err
}
