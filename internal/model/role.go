package model

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names seeded by the initial migration.
const (
	RoleUser      = "User"
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
)

type Role struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"uniqueIndex;not null"`
}

func (Role) TableName() string { return "roles" }

func (r *Role) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// UserRole is the user_roles join row.
type UserRole struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (UserRole) TableName() string { return "user_roles" }

// HasRole reports whether names contains role, ignoring case.
func HasRole(names []string, role string) bool {
	for _, n := range names {
		if strings.EqualFold(n, role) {
			return true
		}
	}
	return false
}
