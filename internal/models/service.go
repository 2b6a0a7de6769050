package models

// ServiceModel is an offered service card.
type ServiceModel struct {
	Base
	Title        string `json:"title"         gorm:"size:255;not null"`
	Description  string `json:"description"   gorm:"type:text;not null"`
	IconName     string `json:"icon_name"     gorm:"size:64;not null"`
	DisplayOrder int    `json:"display_order" gorm:"index"`
	IsActive     bool   `json:"is_active"     gorm:"index"`
}

func (ServiceModel) TableName() string { return "services" }
