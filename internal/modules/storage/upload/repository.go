package upload

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/pagination"
	"github.com/folio-space/core/internal/pkg/response"
)

var ErrAssetNotFound = errors.New("asset not found")

// AssetRepository persists upload records.
type AssetRepository interface {
	Create(ctx context.Context, a *models.AssetModel) error
	List(ctx context.Context, q pagination.Query) ([]models.AssetModel, response.Pagination, error)
	Get(ctx context.Context, id string) (*models.AssetModel, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type gormAssets struct{ db *gorm.DB }

func NewAssetRepository(db *gorm.DB) AssetRepository { return &gormAssets{db: db} }

func (r *gormAssets) Create(ctx context.Context, a *models.AssetModel) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *gormAssets) List(ctx context.Context, q pagination.Query) ([]models.AssetModel, response.Pagination, error) {
	var items []models.AssetModel
	tx := r.db.Model(&models.AssetModel{}).Order("created_at DESC")
	pag, err := pagination.Paginate(ctx, tx, q, &items)
	return items, pag, err
}

func (r *gormAssets) Get(ctx context.Context, id string) (*models.AssetModel, error) {
	var a models.AssetModel
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *gormAssets) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.AssetModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func (r *gormAssets) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.AssetModel{}).Count(&n).Error
	return n, err
}
