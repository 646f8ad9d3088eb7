package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is optional and one-to-one with User (unique user_id).
type Address struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	City          *string
	StateProvince string    `gorm:"not null"`
	Country       string    `gorm:"not null"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
}

func (Address) TableName() string { return "addresses" }

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
