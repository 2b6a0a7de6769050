package models

// SiteContentModel is an editable block of page copy addressed by page and section.
type SiteContentModel struct {
	Base
	PageName    string   `json:"page_name"    gorm:"size:64;not null;uniqueIndex:idx_site_content_page_section"`
	SectionName string   `json:"section_name" gorm:"size:64;not null;uniqueIndex:idx_site_content_page_section"`
	ContentText *string  `json:"content_text" gorm:"type:text"`
	ContentData JSONData `json:"content_data" gorm:"type:longtext"`
}

func (SiteContentModel) TableName() string { return "site_contents" }
