package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is an uploaded picture of a product; Path is web-relative.
// Position keeps upload order so the first image is stable.
type Image struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Path      string    `gorm:"not null"`
	Position  int       `gorm:"not null;default:0"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
}

func (Image) TableName() string { return "images" }

func (i *Image) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
