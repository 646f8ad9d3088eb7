package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact stores how buyers can reach a user. One per user.
type Contact struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PhoneNumber  *string
	TelegramUser *string
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
