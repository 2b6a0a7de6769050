package models

// ContactMessageModel is a message submitted through the public contact form.
type ContactMessageModel struct {
	Base
	SenderName  string `json:"sender_name"  gorm:"size:255;not null"`
	SenderEmail string `json:"sender_email" gorm:"size:255;not null"`
	Message     string `json:"message"      gorm:"type:text;not null"`
	IsRead      bool   `json:"is_read"      gorm:"index"`
}

func (ContactMessageModel) TableName() string { return "contact_messages" }
