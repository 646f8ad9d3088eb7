package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductStatus is restricted to Available | Sold.
type ProductStatus string

const (
	StatusAvailable ProductStatus = "Available"
	StatusSold      ProductStatus = "Sold"
)

// ParseProductStatus matches s case-insensitively. ok is false for anything
// outside the enumerated set.
func ParseProductStatus(s string) (ProductStatus, bool) {
	switch {
	case strings.EqualFold(s, string(StatusAvailable)):
		return StatusAvailable, true
	case strings.EqualFold(s, string(StatusSold)):
		return StatusSold, true
	}
	return "", false
}

func (s ProductStatus) Valid() bool {
	return s == StatusAvailable || s == StatusSold
}

// Text is the Spanish label shown in views.
func (s ProductStatus) Text() string {
	switch s {
	case StatusAvailable:
		return "Disponible"
	case StatusSold:
		return "Vendido"
	}
	return "Desconocido"
}

// Product is the sellable unit behind a Post.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status    ProductStatus   `gorm:"type:varchar(20);not null;default:'Available'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Images     []Image    `gorm:"-"`
	Categories []Category `gorm:"-"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
