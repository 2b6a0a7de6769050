// Package offering manages the service cards shown on /servicos.
package offering

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/events"
)

const DefaultIcon = "HelpCircle"

var (
	ErrNotFound = errors.New("service not found")

	iconPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,63}$`)
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

type CreateServiceDTO struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	IconName     string `json:"icon_name"`
	DisplayOrder *int   `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

type UpdateServiceDTO struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	IconName     *string `json:"icon_name"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

func validateIcon(name string) error {
	if !iconPattern.MatchString(name) {
		return &ValidationError{Field: "icon_name", Message: "Nome de ícone inválido"}
	}
	return nil
}

func (d *CreateServiceDTO) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "Informe o título do serviço"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Message: "Informe a descrição do serviço"}
	}
	if d.IconName = strings.TrimSpace(d.IconName); d.IconName == "" {
		d.IconName = DefaultIcon
	}
	return validateIcon(d.IconName)
}

func (d *UpdateServiceDTO) updates() (map[string]any, error) {
	out := map[string]any{}
	if d.Title != nil {
		if strings.TrimSpace(*d.Title) == "" {
			return nil, &ValidationError{Field: "title", Message: "Informe o título do serviço"}
		}
		out["title"] = strings.TrimSpace(*d.Title)
	}
	if d.Description != nil {
		if strings.TrimSpace(*d.Description) == "" {
			return nil, &ValidationError{Field: "description", Message: "Informe a descrição do serviço"}
		}
		out["description"] = strings.TrimSpace(*d.Description)
	}
	if d.IconName != nil {
		icon := strings.TrimSpace(*d.IconName)
		if err := validateIcon(icon); err != nil {
			return nil, err
		}
		out["icon_name"] = icon
	}
	if d.DisplayOrder != nil {
		out["display_order"] = *d.DisplayOrder
	}
	if d.IsActive != nil {
		out["is_active"] = *d.IsActive
	}
	return out, nil
}

// Repository is the services table access.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]models.ServiceModel, error)
	Get(ctx context.Context, id string) (*models.ServiceModel, error)
	Create(ctx context.Context, s *models.ServiceModel) error
	Update(ctx context.Context, id string, updates map[string]any) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, activeOnly bool) (int64, error)
}

type gormRepository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository { return &gormRepository{db: db} }

func (r *gormRepository) List(ctx context.Context, activeOnly bool) ([]models.ServiceModel, error) {
	tx := r.db.WithContext(ctx).Model(&models.ServiceModel{})
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var items []models.ServiceModel
	err := tx.Order("display_order ASC").Order("created_at ASC").Find(&items).Error
	return items, err
}

func (r *gormRepository) Get(ctx context.Context, id string) (*models.ServiceModel, error) {
	var s models.ServiceModel
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *gormRepository) Create(ctx context.Context, s *models.ServiceModel) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *gormRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.ServiceModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.ServiceModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.ServiceModel{})
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var n int64
	err := tx.Count(&n).Error
	return n, err
}

type Service struct {
	repo   Repository
	notify events.Notifier
}

func NewService(repo Repository, notify events.Notifier) *Service {
	return &Service{repo: repo, notify: notify}
}

// ListActive returns the services shown publicly, ordered for display.
func (s *Service) ListActive(ctx context.Context) ([]models.ServiceModel, error) {
	items, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]models.ServiceModel, 0, len(items))
	for _, it := range items {
		if it.IsActive {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.ServiceModel, error) {
	return s.repo.List(ctx, false)
}

func (s *Service) Get(ctx context.Context, id string) (*models.ServiceModel, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, dto *CreateServiceDTO) (*models.ServiceModel, error) {
	if err := dto.validate(); err != nil {
		return nil, err
	}
	m := &models.ServiceModel{
		Title:       strings.TrimSpace(dto.Title),
		Description: strings.TrimSpace(dto.Description),
		IconName:    dto.IconName,
		IsActive:    true,
	}
	if dto.IsActive != nil {
		m.IsActive = *dto.IsActive
	}
	if dto.DisplayOrder != nil {
		m.DisplayOrder = *dto.DisplayOrder
	} else {
		n, err := s.repo.Count(ctx, false)
		if err != nil {
			return nil, err
		}
		m.DisplayOrder = int(n) + 1
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Insert, m.ID)
	return m, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateServiceDTO) (*models.ServiceModel, error) {
	updates, err := dto.updates()
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.publish(ctx, events.Update, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.Delete, id)
	return nil
}

func (s *Service) Counts(ctx context.Context) (total, active int64, err error) {
	if total, err = s.repo.Count(ctx, false); err != nil {
		return 0, 0, err
	}
	if active, err = s.repo.Count(ctx, true); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func (s *Service) publish(ctx context.Context, typ events.ChangeType, id string) {
	s.notify.Publish(ctx, events.ChangeEvent{Table: events.TableServices, Type: typ, ID: id})
}
