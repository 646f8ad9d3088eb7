package repository

import (
	"context"

	"flea/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, c *model.Contact) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Contact, error)
	// ForUsers returns contacts keyed by user id.
	ForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]model.Contact, error)
	// EmailExists ignores the contact of excludeUserID (uuid.Nil excludes nobody).
	EmailExists(ctx context.Context, email string, excludeUserID uuid.UUID) (bool, error)
	Update(ctx context.Context, c *model.Contact) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type contactRepo struct{ db *gorm.DB }

func NewContactRepository(db *gorm.DB) ContactRepository { return &contactRepo{db: db} }

func (r *contactRepo) Create(ctx context.Context, c *model.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contactRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Contact, error) {
	var c model.Contact
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	return &c, err
}

func (r *contactRepo) ForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]model.Contact, error) {
	out := make(map[uuid.UUID]model.Contact, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var contacts []model.Contact
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&contacts).Error; err != nil {
		return nil, err
	}
	for _, c := range contacts {
		out[c.UserID] = c
	}
	return out, nil
}

func (r *contactRepo) EmailExists(ctx context.Context, email string, excludeUserID uuid.UUID) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Contact{}).Where("LOWER(email) = LOWER(?)", email)
	if excludeUserID != uuid.Nil {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *contactRepo) Update(ctx context.Context, c *model.Contact) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *contactRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Contact{}).Error
}
