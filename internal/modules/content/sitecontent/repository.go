package sitecontent

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/folio-space/core/internal/models"
)

var ErrNotFound = errors.New("site content not found")

// Repository is the site_contents table access.
type Repository interface {
	ListAll(ctx context.Context) ([]models.SiteContentModel, error)
	ListByPage(ctx context.Context, page string) ([]models.SiteContentModel, error)
	Get(ctx context.Context, page, section string) (*models.SiteContentModel, error)
	// Upsert inserts the block or replaces the content of the existing
	// (page_name, section_name) row.
	Upsert(ctx context.Context, m *models.SiteContentModel) error
	Delete(ctx context.Context, page, section string) error
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository { return &gormRepository{db: db} }

func (r *gormRepository) ListAll(ctx context.Context) ([]models.SiteContentModel, error) {
	var items []models.SiteContentModel
	err := r.db.WithContext(ctx).Order("page_name ASC").Order("section_name ASC").Find(&items).Error
	return items, err
}

func (r *gormRepository) ListByPage(ctx context.Context, page string) ([]models.SiteContentModel, error) {
	var items []models.SiteContentModel
	err := r.db.WithContext(ctx).Where("page_name = ?", page).Order("section_name ASC").Find(&items).Error
	return items, err
}

func (r *gormRepository) Get(ctx context.Context, page, section string) (*models.SiteContentModel, error) {
	var m models.SiteContentModel
	err := r.db.WithContext(ctx).Where("page_name = ? AND section_name = ?", page, section).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) Upsert(ctx context.Context, m *models.SiteContentModel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "page_name"}, {Name: "section_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_text", "content_data", "updated_at", "deleted_at"}),
	}).Create(m).Error
}

func (r *gormRepository) Delete(ctx context.Context, page, section string) error {
	res := r.db.WithContext(ctx).
		Where("page_name = ? AND section_name = ?", page, section).
		Delete(&models.SiteContentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
