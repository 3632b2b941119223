package models

import "gorm.io/gorm"

// Feedback is a support message left by a user; admins browse and delete them.
type Feedback struct {
	gorm.Model
	UserID  uint   `gorm:"index"`
	Subject string `gorm:"size:200"`
	Message string
}
