package repository

import (
	"context"

	"flea/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindBySlug(ctx context.Context, slug string) (*model.Category, error)
	// SlugExists ignores the category with excludeID (uuid.Nil excludes nobody).
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)

	// Product links. AssignToProduct is idempotent.
	AssignToProduct(ctx context.Context, productID, categoryID uuid.UUID) error
	RemoveFromProduct(ctx context.Context, productID, categoryID uuid.UUID) error
	RemoveAllFromProduct(ctx context.Context, productID uuid.UUID) error
	RemoveAllForCategory(ctx context.Context, categoryID uuid.UUID) error
	ForProduct(ctx context.Context, productID uuid.UUID) ([]model.Category, error)
	ProductIDsForCategory(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)

	// Trending returns categories ordered by descending product count.
	Trending(ctx context.Context, limit int) ([]model.CategoryStat, error)
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepo{db: db} }

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return &c, err
}

func (r *categoryRepo) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	return &c, err
}

func (r *categoryRepo) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", c.ID).
		Updates(map[string]any{"name": c.Name, "slug": c.Slug}).Error
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *categoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Count(&n).Error
	return n, err
}

func (r *categoryRepo) AssignToProduct(ctx context.Context, productID, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ProductCategory{ProductID: productID, CategoryID: categoryID}).Error
}

func (r *categoryRepo) RemoveFromProduct(ctx context.Context, productID, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND category_id = ?", productID, categoryID).
		Delete(&model.ProductCategory{}).Error
}

func (r *categoryRepo) RemoveAllFromProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.ProductCategory{}).Error
}

func (r *categoryRepo) RemoveAllForCategory(ctx context.Context, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&model.ProductCategory{}).Error
}

func (r *categoryRepo) ForProduct(ctx context.Context, productID uuid.UUID) ([]model.Category, error) {
	var cats []model.Category
	err := r.db.WithContext(ctx).
		Joins("JOIN product_categories pc ON pc.category_id = categories.id").
		Where("pc.product_id = ?", productID).
		Order("categories.name ASC").
		Find(&cats).Error
	return cats, err
}

func (r *categoryRepo) ProductIDsForCategory(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.ProductCategory{}).
		Where("category_id = ?", categoryID).
		Pluck("product_id", &ids).Error
	return ids, err
}

func (r *categoryRepo) Trending(ctx context.Context, limit int) ([]model.CategoryStat, error) {
	var stats []model.CategoryStat
	err := r.db.WithContext(ctx).
		Table("categories c").
		Select("c.id AS category_id, c.name AS category_name, c.slug AS category_slug, COUNT(pc.product_id) AS post_count").
		Joins("LEFT JOIN product_categories pc ON pc.category_id = c.id").
		Group("c.id, c.name, c.slug").
		Order("post_count DESC, c.name ASC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}
