package repository

import (
	"context"

	"flea/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImageRepository interface {
	Create(ctx context.Context, img *model.Image) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error)
	ForProduct(ctx context.Context, productID uuid.UUID) ([]model.Image, error)
	// FirstForProducts returns one image path per product that has any.
	FirstForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]string, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteForProduct(ctx context.Context, productID uuid.UUID) error
}

type imageRepo struct{ db *gorm.DB }

func NewImageRepository(db *gorm.DB) ImageRepository { return &imageRepo{db: db} }

func (r *imageRepo) Create(ctx context.Context, img *model.Image) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *imageRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error) {
	var img model.Image
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&img).Error
	return &img, err
}

func (r *imageRepo) ForProduct(ctx context.Context, productID uuid.UUID) ([]model.Image, error) {
	var imgs []model.Image
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("position ASC, id ASC").Find(&imgs).Error
	return imgs, err
}

func (r *imageRepo) FirstForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var imgs []model.Image
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id ASC, position ASC, id ASC").
		Find(&imgs).Error
	if err != nil {
		return nil, err
	}
	for _, img := range imgs {
		if _, ok := out[img.ProductID]; !ok {
			out[img.ProductID] = img.Path
		}
	}
	return out, nil
}

func (r *imageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Image{}).Error
}

func (r *imageRepo) DeleteForProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Image{}).Error
}
