package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FallbackCategorySlug receives the products of a deleted category.
const FallbackCategorySlug = "otros"

// Category classifies products. Slug is the unique, URL-safe key.
type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"not null"`
	Slug string    `gorm:"uniqueIndex;not null"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ProductCategory is the product_categories join row.
type ProductCategory struct {
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (ProductCategory) TableName() string { return "product_categories" }

// CategoryStat is a category with the number of products tagged with it.
type CategoryStat struct {
	CategoryID   uuid.UUID
	CategoryName string
	CategorySlug string
	PostCount    int64
}
