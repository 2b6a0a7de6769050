package models

import "time"

// UserModel is the site owner account used to sign into the admin panel.
type UserModel struct {
	Base
	Email         string     `json:"email"           gorm:"size:191;uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"               gorm:"not null"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }
