package project

import (
	"errors"
	"strings"

	"github.com/folio-space/core/internal/models"
)

var ErrNotFound = errors.New("project not found")

// ValidationError names the form field that failed and the message shown for it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

type CreateProjectDTO struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	Problem      string `json:"problem"`
	Solution     string `json:"solution"`
	Result       string `json:"result"`
	Learnings    string `json:"learnings"`
	Technologies string `json:"technologies"`
	DisplayOrder *int   `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

type UpdateProjectDTO struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"image_url"`
	Problem      *string `json:"problem"`
	Solution     *string `json:"solution"`
	Result       *string `json:"result"`
	Learnings    *string `json:"learnings"`
	Technologies *string `json:"technologies"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

type ReorderDTO struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ImageInput is a gallery entry to attach to a project.
type ImageInput struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

type projectResponse struct {
	models.ProjectModel
	Tags []string `json:"tags"`
}

func toResponse(p *models.ProjectModel) projectResponse {
	if p.Images == nil {
		p.Images = []models.ProjectImageModel{}
	}
	return projectResponse{ProjectModel: *p, Tags: p.Tags()}
}

func toResponses(items []models.ProjectModel) []projectResponse {
	out := make([]projectResponse, len(items))
	for i := range items {
		out[i] = toResponse(&items[i])
	}
	return out
}

var requiredFields = []struct {
	name    string
	message string
	get     func(*CreateProjectDTO) string
}{
	{"title", "Informe o título do projeto", func(d *CreateProjectDTO) string { return d.Title }},
	{"description", "Informe a descrição do projeto", func(d *CreateProjectDTO) string { return d.Description }},
	{"learnings", "Informe os aprendizados do projeto", func(d *CreateProjectDTO) string { return d.Learnings }},
	{"technologies", "Informe ao menos uma tecnologia", func(d *CreateProjectDTO) string { return d.Technologies }},
}

func (d *CreateProjectDTO) validate() error {
	for _, f := range requiredFields {
		if strings.TrimSpace(f.get(d)) == "" {
			return &ValidationError{Field: f.name, Message: f.message}
		}
	}
	if len(models.SplitTags(d.Technologies)) == 0 {
		return &ValidationError{Field: "technologies", Message: "Informe ao menos uma tecnologia"}
	}
	return nil
}

// updates converts the provided fields into a column map, rejecting blanks
// for fields that are required on create.
func (d *UpdateProjectDTO) updates() (map[string]any, error) {
	out := map[string]any{}
	required := map[string]*string{
		"title":        d.Title,
		"description":  d.Description,
		"learnings":    d.Learnings,
		"technologies": d.Technologies,
	}
	for _, f := range requiredFields {
		v := required[f.name]
		if v == nil {
			continue
		}
		if strings.TrimSpace(*v) == "" {
			return nil, &ValidationError{Field: f.name, Message: f.message}
		}
		out[f.name] = strings.TrimSpace(*v)
	}
	optional := map[string]*string{
		"image_url": d.ImageURL,
		"problem":   d.Problem,
		"solution":  d.Solution,
		"result":    d.Result,
	}
	for col, v := range optional {
		if v != nil {
			out[col] = strings.TrimSpace(*v)
		}
	}
	if d.DisplayOrder != nil {
		out["display_order"] = *d.DisplayOrder
	}
	if d.IsActive != nil {
		out["is_active"] = *d.IsActive
	}
	return out, nil
}
