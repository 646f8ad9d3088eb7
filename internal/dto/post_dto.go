package dto

import (
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flea/internal/model"
)

// NoImagePath is shown for posts without images.
const NoImagePath = "/images/no-image.png"

// Default listing sizes.
const (
	DefaultPageSize   = 12
	RecentPostsLimit  = 12
	UserPostsLimit    = 50
	DescriptionLength = 100
)

// Sort orders accepted by search.
const (
	SortRecent    = "recent"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreatePostRequest carries the create form as submitted; Price and the
// category ids are parsed by the service.
type CreatePostRequest struct {
	Title       string                  `form:"title"       validate:"required,min=5,max=255"`
	Description string                  `form:"description" validate:"required,min=20,max=1000"`
	Price       string                  `form:"price"       validate:"required,price"`
	CategoryIDs []string                `form:"categoryIds" validate:"dive,uuid"`
	Images      []*multipart.FileHeader `form:"images"      validate:"-"`
}

func (CreatePostRequest) ValidationMessages() map[string]string {
	return postMessages
}

type UpdatePostRequest struct {
	PostID         uuid.UUID               `form:"-"              validate:"-"`
	Title          string                  `form:"title"          validate:"required,min=5,max=255"`
	Description    string                  `form:"description"    validate:"required,min=20,max=1000"`
	Price          string                  `form:"price"          validate:"required,price"`
	Status         string                  `form:"status"         validate:"required"`
	CategoryIDs    []string                `form:"categoryIds"    validate:"dive,uuid"`
	NewImages      []*multipart.FileHeader `form:"newImages"      validate:"-"`
	DeleteImageIDs []string                `form:"imagesToDelete" validate:"dive,uuid"`
}

func (UpdatePostRequest) ValidationMessages() map[string]string {
	return postMessages
}

var postMessages = map[string]string{
	"Title.required":       "El título es requerido",
	"Title.min":            "El título debe tener entre 5 y 255 caracteres",
	"Title.max":            "El título debe tener entre 5 y 255 caracteres",
	"Description.required": "La descripción es requerida",
	"Description.min":      "La descripción debe tener entre 20 y 1000 caracteres",
	"Description.max":      "La descripción debe tener entre 20 y 1000 caracteres",
	"Price.required":       "El precio es requerido",
	"Price.price":          "El precio debe estar entre 0.01 y 999,999.99",
	"Status.required":      "El estado es requerido",
	"CategoryIDs.uuid":     "Categoría inválida",
	"DeleteImageIDs.uuid":  "Imagen inválida",
}

// SearchQuery is the raw query string of the listing page.
type SearchQuery struct {
	Query    string `form:"searchTerm"`
	Category string `form:"categoryId"`
	MinPrice string `form:"minPrice"`
	MaxPrice string `form:"maxPrice"`
	Status   string `form:"status"`
	SortBy   string `form:"sortBy"`
	Page     int    `form:"page"`
}

// Filter converts the raw query into criteria. Malformed values are
// dropped rather than rejected.
func (q SearchQuery) Filter() SearchFilter {
	f := SearchFilter{
		Query:  strings.TrimSpace(q.Query),
		SortBy: q.SortBy,
		Page:   q.Page,
	}
	if id, err := uuid.Parse(strings.TrimSpace(q.Category)); err == nil {
		f.CategoryID = &id
	}
	f.MinPrice = parseDecimal(q.MinPrice)
	f.MaxPrice = parseDecimal(q.MaxPrice)
	if st, ok := model.ParseProductStatus(q.Status); ok {
		f.Status = &st
	}
	return f
}

func parseDecimal(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// SearchFilter holds the optional, AND-combined search criteria.
type SearchFilter struct {
	Query      string
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Status     *model.ProductStatus
	SortBy     string
	Page       int
	PageSize   int
}

// Normalize clamps paging to valid values.
func (f *SearchFilter) Normalize(defaultPageSize int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if defaultPageSize < 1 {
		defaultPageSize = DefaultPageSize
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	switch f.SortBy {
	case SortPriceAsc, SortPriceDesc:
	default:
		f.SortBy = SortRecent
	}
}

func (f SearchFilter) Offset() int { return (f.Page - 1) * f.PageSize }

// ─── Response DTOs ───────────────────────────────────────────────────────────

// PostCard is the listing projection of a post.
type PostCard struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	Title            string
	Description      string
	Price            decimal.Decimal
	Status           model.ProductStatus
	StatusText       string
	ImagePath        string
	CreatedAt        time.Time
	AuthorUsername   string
	AuthorProfilePic string
}

type SearchResult struct {
	Posts      []PostCard
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
	Filter     SearchFilter
}

func (r SearchResult) HasPrevious() bool { return r.Page > 1 }

func (r SearchResult) HasNext() bool { return r.Page < r.TotalPages }

type ImageView struct {
	ID   uuid.UUID
	Path string
}

// PostDetail is the full projection of a post for its detail page.
type PostDetail struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	Title            string
	Description      string
	Price            decimal.Decimal
	Status           model.ProductStatus
	StatusText       string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	Images           []ImageView
	Categories       []CategoryView
	AuthorID         uuid.UUID
	AuthorUsername   string
	AuthorName       string
	AuthorProfilePic string
	AuthorEmail      string
	AuthorPhone      *string
	AuthorTelegram   *string
	IsOwner          bool
}

// EditPostData pre-fills the edit form.
type EditPostData struct {
	PostID              uuid.UUID
	ProductID           uuid.UUID
	Title               string
	Description         string
	Price               decimal.Decimal
	Status              model.ProductStatus
	Images              []ImageView
	SelectedCategoryIDs []uuid.UUID
	Categories          []CategoryView
}

// IsSelected reports whether the category is linked to the post.
func (d EditPostData) IsSelected(id uuid.UUID) bool {
	for _, s := range d.SelectedCategoryIDs {
		if s == id {
			return true
		}
	}
	return false
}
