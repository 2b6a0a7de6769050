package project

import (
	"context"
	"strings"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/events"
)

type Service struct {
	repo   Repository
	notify events.Notifier
}

func NewService(repo Repository, notify events.Notifier) *Service {
	return &Service{repo: repo, notify: notify}
}

// ListActive returns the projects shown on the public site, with galleries.
func (s *Service) ListActive(ctx context.Context) ([]models.ProjectModel, error) {
	items, err := s.repo.List(ctx, ListFilter{ActiveOnly: true, WithImages: true})
	if err != nil {
		return nil, err
	}
	return keepActive(items), nil
}

// ListAll returns every project for the admin panel.
func (s *Service) ListAll(ctx context.Context) ([]models.ProjectModel, error) {
	return s.repo.List(ctx, ListFilter{WithImages: true})
}

// Get loads one project. With activeOnly an inactive project is reported as missing.
func (s *Service) Get(ctx context.Context, id string, activeOnly bool) (*models.ProjectModel, error) {
	p, err := s.repo.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if activeOnly && !p.IsActive {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, dto *CreateProjectDTO) (*models.ProjectModel, error) {
	if err := dto.validate(); err != nil {
		return nil, err
	}
	p := &models.ProjectModel{
		Title:        strings.TrimSpace(dto.Title),
		Description:  strings.TrimSpace(dto.Description),
		ImageURL:     strings.TrimSpace(dto.ImageURL),
		Problem:      strings.TrimSpace(dto.Problem),
		Solution:     strings.TrimSpace(dto.Solution),
		Result:       strings.TrimSpace(dto.Result),
		Learnings:    strings.TrimSpace(dto.Learnings),
		Technologies: strings.Join(models.SplitTags(dto.Technologies), ", "),
		IsActive:     true,
	}
	if dto.IsActive != nil {
		p.IsActive = *dto.IsActive
	}
	if dto.DisplayOrder != nil {
		p.DisplayOrder = *dto.DisplayOrder
	} else {
		next, err := s.repo.NextDisplayOrder(ctx)
		if err != nil {
			return nil, err
		}
		p.DisplayOrder = next
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TableProjects, events.Insert, p.ID)
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateProjectDTO) (*models.ProjectModel, error) {
	updates, err := dto.updates()
	if err != nil {
		return nil, err
	}
	if tech, ok := updates["technologies"].(string); ok {
		updates["technologies"] = strings.Join(models.SplitTags(tech), ", ")
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.publish(ctx, events.TableProjects, events.Update, id)
	}
	return s.repo.Get(ctx, id, true)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TableProjects, events.Delete, id)
	return nil
}

// SetActive toggles whether the project is listed publicly.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": active}); err != nil {
		return err
	}
	s.publish(ctx, events.TableProjects, events.Update, id)
	return nil
}

func (s *Service) Reorder(ctx context.Context, ids []string) error {
	if err := s.repo.Reorder(ctx, ids); err != nil {
		return err
	}
	s.publish(ctx, events.TableProjects, events.Update, "")
	return nil
}

// Counts returns the total and active number of projects.
func (s *Service) Counts(ctx context.Context) (total, active int64, err error) {
	if total, err = s.repo.Count(ctx, false); err != nil {
		return 0, 0, err
	}
	if active, err = s.repo.Count(ctx, true); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// AddImages appends images to the end of the project gallery.
func (s *Service) AddImages(ctx context.Context, projectID string, inputs []ImageInput) ([]models.ProjectImageModel, error) {
	if _, err := s.repo.Get(ctx, projectID, false); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListImages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	next := len(existing) + 1
	if n := len(existing); n > 0 && existing[n-1].DisplayOrder >= next {
		next = existing[n-1].DisplayOrder + 1
	}

	images := make([]models.ProjectImageModel, 0, len(inputs))
	for _, in := range inputs {
		url := strings.TrimSpace(in.URL)
		if url == "" {
			continue
		}
		images = append(images, models.ProjectImageModel{
			ProjectID:    projectID,
			URL:          url,
			Caption:      strings.TrimSpace(in.Caption),
			DisplayOrder: next,
		})
		next++
	}
	if len(images) == 0 {
		return images, nil
	}
	if err := s.repo.AddImages(ctx, images); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TableProjectImages, events.Insert, projectID)
	s.publish(ctx, events.TableProjects, events.Update, projectID)
	return images, nil
}

func (s *Service) DeleteImage(ctx context.Context, projectID, imageID string) error {
	if err := s.repo.DeleteImage(ctx, projectID, imageID); err != nil {
		return err
	}
	s.publish(ctx, events.TableProjectImages, events.Delete, imageID)
	s.publish(ctx, events.TableProjects, events.Update, projectID)
	return nil
}

func (s *Service) publish(ctx context.Context, table string, typ events.ChangeType, id string) {
	s.notify.Publish(ctx, events.ChangeEvent{Table: table, Type: typ, ID: id})
}

func keepActive(items []models.ProjectModel) []models.ProjectModel {
	out := make([]models.ProjectModel, 0, len(items))
	for _, p := range items {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}
