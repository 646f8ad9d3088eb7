package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flea/internal/model"
)

type RecentActivity struct {
	Type        string // "user" | "post"
	Description string
	Timestamp   time.Time
	Icon        string
	Color       string
}

type DashboardStats struct {
	TotalUsers       int64
	TotalPosts       int64
	TotalCategories  int64
	ActivePosts      int64
	SoldPosts        int64
	NewUsersThisWeek int64
	NewPostsThisWeek int64
	NewPostsToday    int64
	RecentActivity   []RecentActivity
	TopCategories    []CategoryCount
}

type AdminUserItem struct {
	ID         uuid.UUID
	Username   string
	Name       string
	Email      string
	ProfilePic string
	Roles      []string
	PostCount  int64
	CreatedAt  time.Time
}

type AdminUserDetail struct {
	Profile UserProfile
	Posts   []PostCard
}

type RoleView struct {
	ID   uuid.UUID
	Name string
}

// UserRoles backs the role management page.
type UserRoles struct {
	UserID    uuid.UUID
	Username  string
	Assigned  []RoleView
	Available []RoleView
}

type AdminPostItem struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	Title          string
	Price          decimal.Decimal
	Status         model.ProductStatus
	StatusText     string
	CreatedAt      time.Time
	AuthorID       uuid.UUID
	AuthorUsername string
}

type RoleChangeRequest struct {
	RoleID string `form:"roleId" validate:"required,uuid"`
}

func (RoleChangeRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"RoleID.required": "Debe seleccionar un rol",
		"RoleID.uuid":     "Rol inválido",
	}
}
