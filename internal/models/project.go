package models

import "strings"

// ProjectModel is a portfolio case study.
type ProjectModel struct {
	Base
	Title        string `json:"title"         gorm:"size:255;not null"`
	Description  string `json:"description"   gorm:"type:text;not null"`
	ImageURL     string `json:"image_url"     gorm:"size:1024"`
	Problem      string `json:"problem"       gorm:"type:text"`
	Solution     string `json:"solution"      gorm:"type:text"`
	Result       string `json:"result"        gorm:"type:text"`
	Learnings    string `json:"learnings"     gorm:"type:text"`
	Technologies string `json:"technologies"  gorm:"type:text"`
	DisplayOrder int    `json:"display_order" gorm:"index"`
	IsActive     bool   `json:"is_active"     gorm:"index"`

	Images []ProjectImageModel `json:"images,omitempty" gorm:"foreignKey:ProjectID"`
}

func (ProjectModel) TableName() string { return "projects" }

// Tags splits the comma separated technologies list, dropping blanks.
func (p ProjectModel) Tags() []string {
	return SplitTags(p.Technologies)
}

// SplitTags splits a comma separated list, trimming entries and dropping empties.
func SplitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// ProjectImageModel is one image of a project gallery.
type ProjectImageModel struct {
	Base
	ProjectID    string `json:"project_id"    gorm:"type:char(36);index;not null"`
	URL          string `json:"url"           gorm:"size:1024;not null"`
	Caption      string `json:"caption"       gorm:"size:255"`
	DisplayOrder int    `json:"display_order"`
}

func (ProjectImageModel) TableName() string { return "project_images" }
