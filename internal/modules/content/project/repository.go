package project

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/folio-space/core/internal/models"
)

type ListFilter struct {
	ActiveOnly bool
	WithImages bool
}

// Repository is the table access used by the project service.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]models.ProjectModel, error)
	Get(ctx context.Context, id string, withImages bool) (*models.ProjectModel, error)
	Create(ctx context.Context, p *models.ProjectModel) error
	Update(ctx context.Context, id string, updates map[string]any) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, activeOnly bool) (int64, error)
	NextDisplayOrder(ctx context.Context) (int, error)
	Reorder(ctx context.Context, ids []string) error

	ListImages(ctx context.Context, projectID string) ([]models.ProjectImageModel, error)
	AddImages(ctx context.Context, images []models.ProjectImageModel) error
	DeleteImage(ctx context.Context, projectID, imageID string) error
}

type gormRepository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository { return &gormRepository{db: db} }

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC").Order("created_at ASC")
}

func (r *gormRepository) List(ctx context.Context, f ListFilter) ([]models.ProjectModel, error) {
	tx := r.db.WithContext(ctx).Model(&models.ProjectModel{})
	if f.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if f.WithImages {
		tx = tx.Preload("Images", orderedImages)
	}
	var items []models.ProjectModel
	err := tx.Order("display_order ASC").Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *gormRepository) Get(ctx context.Context, id string, withImages bool) (*models.ProjectModel, error) {
	tx := r.db.WithContext(ctx)
	if withImages {
		tx = tx.Preload("Images", orderedImages)
	}
	var p models.ProjectModel
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) Create(ctx context.Context, p *models.ProjectModel) error {
	return r.db.WithContext(ctx).Omit("Images").Create(p).Error
}

func (r *gormRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.ProjectModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.ProjectModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Delete(&models.ProjectImageModel{}, "project_id = ?", id).Error
	})
}

func (r *gormRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.ProjectModel{})
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var n int64
	err := tx.Count(&n).Error
	return n, err
}

// NextDisplayOrder is the position a new project takes: one past the current count.
func (r *gormRepository) NextDisplayOrder(ctx context.Context) (int, error) {
	n, err := r.Count(ctx, false)
	if err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}

// Reorder assigns display_order 1..n following ids.
func (r *gormRepository) Reorder(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&models.ProjectModel{}).Where("id = ?", id).Update("display_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormRepository) ListImages(ctx context.Context, projectID string) ([]models.ProjectImageModel, error) {
	var items []models.ProjectImageModel
	err := orderedImages(r.db.WithContext(ctx).Where("project_id = ?", projectID)).Find(&items).Error
	return items, err
}

func (r *gormRepository) AddImages(ctx context.Context, images []models.ProjectImageModel) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

func (r *gormRepository) DeleteImage(ctx context.Context, projectID, imageID string) error {
	res := r.db.WithContext(ctx).Delete(&models.ProjectImageModel{}, "id = ? AND project_id = ?", imageID, projectID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
