package repository

import (
	"context"
	"strings"
	"time"

	"flea/internal/dto"
	"flea/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) (*model.Post, error)
	FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Post, error)
	// Update writes title and description and stamps updated_at.
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Listing queries, newest first.
	Recent(ctx context.Context, limit int) ([]model.PostListing, error)
	ByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]model.PostListing, error)
	ByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]model.PostListing, error)
	List(ctx context.Context) ([]model.PostListing, error)
	GetListing(ctx context.Context, id uuid.UUID) (*model.PostListing, error)

	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	// Search applies the optional filters of f and returns one page plus the
	// total number of matches.
	Search(ctx context.Context, f dto.SearchFilter) ([]model.PostListing, int64, error)
}

type postRepo struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepo{db: db} }

const listingColumns = "p.id AS post_id, p.product_id AS product_id, p.title AS title, " +
	"p.description AS description, p.created_at AS created_at, pr.price AS price, pr.status AS status, " +
	"p.author_id AS author_id, u.username AS author_username, u.profile_pic AS author_profile_pic"

func (r *postRepo) Create(ctx context.Context, p *model.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *postRepo) FindByProductID(ctx context.Context, productID uuid.UUID) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&p).Error
	return &p, err
}

func (r *postRepo) FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Find(&posts).Error
	return posts, err
}

func (r *postRepo) Update(ctx context.Context, p *model.Post) error {
	now := time.Now().UTC()
	p.UpdatedAt = &now
	p.SearchText = model.SearchText(p.Title, p.Description)
	return r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", p.ID).Updates(map[string]any{
		"title":       p.Title,
		"description": p.Description,
		"search_text": p.SearchText,
		"updated_at":  now,
	}).Error
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{}).Error
}

// listing is the posts ⨝ products ⨝ users base query.
func (r *postRepo) listing(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts p").
		Select(listingColumns).
		Joins("JOIN products pr ON pr.id = p.product_id").
		Joins("JOIN users u ON u.id = p.author_id")
}

func (r *postRepo) Recent(ctx context.Context, limit int) ([]model.PostListing, error) {
	var rows []model.PostListing
	err := r.listing(ctx).Order("p.created_at DESC").Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *postRepo) ByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]model.PostListing, error) {
	var rows []model.PostListing
	err := r.listing(ctx).Where("p.author_id = ?", authorID).
		Order("p.created_at DESC").Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *postRepo) ByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]model.PostListing, error) {
	var rows []model.PostListing
	err := r.listing(ctx).
		Where("EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.product_id AND pc.category_id = ?)", categoryID).
		Order("p.created_at DESC").Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *postRepo) List(ctx context.Context) ([]model.PostListing, error) {
	var rows []model.PostListing
	err := r.listing(ctx).Order("p.created_at DESC").Scan(&rows).Error
	return rows, err
}

func (r *postRepo) GetListing(ctx context.Context, id uuid.UUID) (*model.PostListing, error) {
	var rows []model.PostListing
	if err := r.listing(ctx).Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *postRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&n).Error
	return n, err
}

func (r *postRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (r *postRepo) CountByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AuthorID uuid.UUID
		N        int64
	}
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Select("author_id, COUNT(*) AS n").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.AuthorID] = row.N
	}
	return out, nil
}

func (r *postRepo) Search(ctx context.Context, f dto.SearchFilter) ([]model.PostListing, int64, error) {
	var total int64
	countQ := r.db.WithContext(ctx).Table("posts p").Joins("JOIN products pr ON pr.id = p.product_id")
	if err := applySearchFilter(countQ, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.PostListing{}, 0, nil
	}

	q := applySearchFilter(r.listing(ctx), f)
	switch f.SortBy {
	case dto.SortPriceAsc:
		q = q.Order("pr.price ASC").Order("p.created_at DESC")
	case dto.SortPriceDesc:
		q = q.Order("pr.price DESC").Order("p.created_at DESC")
	default:
		q = q.Order("p.created_at DESC")
	}

	var rows []model.PostListing
	err := q.Offset(f.Offset()).Limit(f.PageSize).Scan(&rows).Error
	return rows, total, err
}

// applySearchFilter adds one parameterized predicate per present filter.
// q must already join products as pr.
func applySearchFilter(q *gorm.DB, f dto.SearchFilter) *gorm.DB {
	if text := strings.TrimSpace(f.Query); text != "" {
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		q = q.Where(`p.search_text LIKE ? ESCAPE '\'`, pattern)
	}
	if f.CategoryID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.product_id AND pc.category_id = ?)", *f.CategoryID)
	}
	if f.MinPrice != nil {
		q = q.Where("pr.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("pr.price <= ?", *f.MaxPrice)
	}
	if f.Status != nil {
		q = q.Where("pr.status = ?", *f.Status)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
