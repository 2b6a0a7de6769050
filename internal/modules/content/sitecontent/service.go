// Package sitecontent stores editable page copy keyed by page and section.
package sitecontent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/events"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// Section is one block submitted by the admin panel.
type Section struct {
	Name string          `json:"section_name"`
	Text *string         `json:"content_text"`
	Data json.RawMessage `json:"content_data"`
}

type SaveOptions struct {
	// Atomic runs every upsert in one transaction. Without it upserts are
	// issued one after another and earlier ones stay committed on failure.
	Atomic bool
}

// PartialSaveError reports a non-atomic save that stopped midway.
type PartialSaveError struct {
	Saved  []string
	Failed string
	Err    error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("save section %q failed after saving %v: %v", e.Failed, e.Saved, e.Err)
}

func (e *PartialSaveError) Unwrap() error { return e.Err }

type Service struct {
	repo   Repository
	notify events.Notifier
}

func NewService(repo Repository, notify events.Notifier) *Service {
	return &Service{repo: repo, notify: notify}
}

func (s *Service) ListAll(ctx context.Context) ([]models.SiteContentModel, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListByPage(ctx context.Context, page string) ([]models.SiteContentModel, error) {
	if err := validateName("page_name", page); err != nil {
		return nil, err
	}
	return s.repo.ListByPage(ctx, page)
}

func (s *Service) Get(ctx context.Context, page, section string) (*models.SiteContentModel, error) {
	return s.repo.Get(ctx, page, section)
}

// Save upserts a single section.
func (s *Service) Save(ctx context.Context, page string, sec Section) (*models.SiteContentModel, error) {
	m, err := toModel(page, sec)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Update, page+"/"+sec.Name)
	return s.repo.Get(ctx, page, sec.Name)
}

// SaveSections upserts every section of page in order. See SaveOptions for
// the failure semantics.
func (s *Service) SaveSections(ctx context.Context, page string, sections []Section, opts SaveOptions) error {
	blocks := make([]*models.SiteContentModel, 0, len(sections))
	for _, sec := range sections {
		m, err := toModel(page, sec)
		if err != nil {
			return err
		}
		blocks = append(blocks, m)
	}
	if len(blocks) == 0 {
		return nil
	}

	if opts.Atomic {
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			for _, m := range blocks {
				if err := tx.Upsert(ctx, m); err != nil {
					return fmt.Errorf("save section %q: %w", m.SectionName, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.publish(ctx, events.Update, page)
		return nil
	}

	saved := make([]string, 0, len(blocks))
	for _, m := range blocks {
		if err := s.repo.Upsert(ctx, m); err != nil {
			if len(saved) > 0 {
				s.publish(ctx, events.Update, page)
			}
			return &PartialSaveError{Saved: saved, Failed: m.SectionName, Err: err}
		}
		saved = append(saved, m.SectionName)
	}
	s.publish(ctx, events.Update, page)
	return nil
}

func (s *Service) Delete(ctx context.Context, page, section string) error {
	if err := s.repo.Delete(ctx, page, section); err != nil {
		return err
	}
	s.publish(ctx, events.Delete, page+"/"+section)
	return nil
}

func (s *Service) publish(ctx context.Context, typ events.ChangeType, id string) {
	s.notify.Publish(ctx, events.ChangeEvent{Table: events.TableSiteContents, Type: typ, ID: id})
}

func validateName(field, v string) error {
	if !namePattern.MatchString(v) {
		return &ValidationError{Field: field, Message: "Identificador de página ou seção inválido"}
	}
	return nil
}

func toModel(page string, sec Section) (*models.SiteContentModel, error) {
	page = strings.TrimSpace(page)
	name := strings.TrimSpace(sec.Name)
	if err := validateName("page_name", page); err != nil {
		return nil, err
	}
	if err := validateName("section_name", name); err != nil {
		return nil, err
	}
	m := &models.SiteContentModel{PageName: page, SectionName: name, ContentText: sec.Text}
	if data := strings.TrimSpace(string(sec.Data)); data != "" && data != "null" {
		if !json.Valid([]byte(data)) {
			return nil, &ValidationError{Field: "content_data", Message: "Conteúdo em formato inválido"}
		}
		m.ContentData = models.JSONData(data)
	}
	return m, nil
}
