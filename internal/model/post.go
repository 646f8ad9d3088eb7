package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Post is a listing: text content paired one-to-one with a Product.
type Post struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"index"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false"`
	ProductID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	SearchText  string     `gorm:"not null;default:''"`

	Product *Product `gorm:"-"`
	Author  *User    `gorm:"-"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.SearchText = SearchText(p.Title, p.Description)
	return nil
}

// SearchText is the lowercased title and description that text search
// matches against. SQLite's LOWER folds ASCII only, so search never
// lowercases in SQL.
func SearchText(title, description string) string {
	return strings.ToLower(title + "\n" + description)
}

// PostListing is a post joined with its product and author, as read by the
// listing queries.
type PostListing struct {
	PostID           uuid.UUID
	ProductID        uuid.UUID
	Title            string
	Description      string
	CreatedAt        time.Time
	Price            decimal.Decimal
	Status           ProductStatus
	AuthorID         uuid.UUID
	AuthorUsername   string
	AuthorProfilePic string
}
