package repository

import (
	"context"

	"flea/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AddressRepository interface {
	Create(ctx context.Context, a *model.Address) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Address, error)
	// Upsert inserts or replaces the single address of a.UserID.
	Upsert(ctx context.Context, a *model.Address) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type addressRepo struct{ db *gorm.DB }

func NewAddressRepository(db *gorm.DB) AddressRepository { return &addressRepo{db: db} }

func (r *addressRepo) Create(ctx context.Context, a *model.Address) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *addressRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error
	return &a, err
}

func (r *addressRepo) Upsert(ctx context.Context, a *model.Address) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"city", "state_province", "country"}),
	}).Create(a).Error
}

func (r *addressRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Address{}).Error
}
