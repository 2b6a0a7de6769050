package models

// AssetModel records an uploaded object so it can be listed and removed later.
type AssetModel struct {
	Base
	Key          string `json:"key"           gorm:"size:512;uniqueIndex;not null"`
	URL          string `json:"url"           gorm:"size:1024;not null"`
	OriginalName string `json:"original_name" gorm:"size:255"`
	ContentType  string `json:"content_type"  gorm:"size:128"`
	Size         int64  `json:"size"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Backend      string `json:"backend"       gorm:"size:16"`
}

func (AssetModel) TableName() string { return "assets" }
