package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
	"flea/internal/repository"

	"github.com/google/uuid"
)

const (
	MsgRoleAssigned      = "Rol asignado correctamente"
	MsgRoleRemoved       = "Rol removido correctamente"
	MsgUserDeleted       = "Usuario eliminado correctamente"
	MsgAdminPostDeleted  = "Post eliminado correctamente"
	MsgAdminPostNotFound = "Post no encontrado"
	MsgRoleNotFound      = "Rol no encontrado"
	MsgLastAdmin         = "No se puede quitar el rol Admin al último administrador"
	MsgSelfDelete        = "No puedes eliminar tu propia cuenta desde el panel"
	msgDashboardFailed   = "Error al cargar el dashboard"
	msgAdminUsersFailed  = "Error al cargar usuarios"
	msgRolesFailed       = "Error al actualizar roles"
)

const (
	recentActivityPerKind = 5
	recentActivityLimit   = 10
	topCategoriesLimit    = 5
)

type AdminService interface {
	GetDashboardStats(ctx context.Context) (*dto.DashboardStats, error)

	ListUsers(ctx context.Context) ([]dto.AdminUserItem, error)
	GetUserDetail(ctx context.Context, userID uuid.UUID) (*dto.AdminUserDetail, error)
	ListRoles(ctx context.Context) ([]dto.RoleView, error)
	GetUserRoles(ctx context.Context, userID uuid.UUID) (*dto.UserRoles, error)
	AssignRole(ctx context.Context, userID, roleID uuid.UUID) error
	RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error
	// DeleteUser refuses to delete actorID itself.
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error

	ListPosts(ctx context.Context) ([]dto.AdminPostItem, error)
	GetPost(ctx context.Context, postID uuid.UUID) (*dto.AdminPostItem, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error

	ListCategories(ctx context.Context) ([]dto.CategoryCount, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*dto.CategoryView, error)
	CreateCategory(ctx context.Context, form dto.CategoryForm) (*dto.CategoryView, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, form dto.CategoryForm) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type adminService struct {
	store      repository.Store
	users      UserService
	posts      PostService
	categories CategoryService
	now        func() time.Time
}

func NewAdminService(store repository.Store, users UserService, posts PostService, categories CategoryService) AdminService {
	return &adminService{
		store:      store,
		users:      users,
		posts:      posts,
		categories: categories,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *adminService) GetDashboardStats(ctx context.Context) (*dto.DashboardStats, error) {
	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		st  dto.DashboardStats
		err error
	)
	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&st.TotalUsers, func() (int64, error) { return s.store.Users().Count(ctx) }},
		{&st.TotalPosts, func() (int64, error) { return s.store.Posts().Count(ctx) }},
		{&st.TotalCategories, func() (int64, error) { return s.store.Categories().Count(ctx) }},
		{&st.ActivePosts, func() (int64, error) { return s.store.Products().CountByStatus(ctx, model.StatusAvailable) }},
		{&st.SoldPosts, func() (int64, error) { return s.store.Products().CountByStatus(ctx, model.StatusSold) }},
		{&st.NewUsersThisWeek, func() (int64, error) { return s.store.Users().CountSince(ctx, weekAgo) }},
		{&st.NewPostsThisWeek, func() (int64, error) { return s.store.Posts().CountSince(ctx, weekAgo) }},
		{&st.NewPostsToday, func() (int64, error) { return s.store.Posts().CountSince(ctx, today) }},
	}
	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return nil, internal(err, msgDashboardFailed)
		}
	}

	users, err := s.store.Users().ListRecent(ctx, recentActivityPerKind)
	if err != nil {
		return nil, internal(err, msgDashboardFailed)
	}
	posts, err := s.store.Posts().Recent(ctx, recentActivityPerKind)
	if err != nil {
		return nil, internal(err, msgDashboardFailed)
	}
	st.RecentActivity = mergeActivity(users, posts)

	if st.TopCategories, err = s.categories.GetTrending(ctx, topCategoriesLimit); err != nil {
		return nil, err
	}
	return &st, nil
}

// mergeActivity interleaves new users and posts, newest first.
func mergeActivity(users []model.User, posts []model.PostListing) []dto.RecentActivity {
	out := make([]dto.RecentActivity, 0, len(users)+len(posts))
	for _, u := range users {
		out = append(out, dto.RecentActivity{
			Type:        "user",
			Description: "Nuevo usuario registrado: " + u.Username,
			Timestamp:   u.CreatedAt,
			Icon:        "bi-person-plus",
			Color:       "primary",
		})
	}
	for _, p := range posts {
		out = append(out, dto.RecentActivity{
			Type:        "post",
			Description: "Nueva publicación: " + p.Title,
			Timestamp:   p.CreatedAt,
			Icon:        "bi-box-seam",
			Color:       "success",
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > recentActivityLimit {
		out = out[:recentActivityLimit]
	}
	return out
}

func (s *adminService) ListUsers(ctx context.Context) ([]dto.AdminUserItem, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, internal(err, msgAdminUsersFailed)
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	roles, err := s.store.Roles().ForUsers(ctx, ids)
	if err != nil {
		return nil, internal(err, msgAdminUsersFailed)
	}
	contacts, err := s.store.Contacts().ForUsers(ctx, ids)
	if err != nil {
		return nil, internal(err, msgAdminUsersFailed)
	}
	postCounts, err := s.store.Posts().CountByAuthors(ctx, ids)
	if err != nil {
		return nil, internal(err, msgAdminUsersFailed)
	}

	out := make([]dto.AdminUserItem, 0, len(users))
	for _, u := range users {
		out = append(out, dto.AdminUserItem{
			ID:         u.ID,
			Username:   u.Username,
			Name:       u.Name,
			Email:      contacts[u.ID].Email,
			ProfilePic: u.ProfilePic,
			Roles:      roles[u.ID],
			PostCount:  postCounts[u.ID],
			CreatedAt:  u.CreatedAt,
		})
	}
	return out, nil
}

func (s *adminService) GetUserDetail(ctx context.Context, userID uuid.UUID) (*dto.AdminUserDetail, error) {
	p, err := s.userProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.GetUserPosts(ctx, userID, dto.UserPostsLimit)
	if err != nil {
		return nil, err
	}
	return &dto.AdminUserDetail{Profile: *p, Posts: posts}, nil
}

func (s *adminService) userProfile(ctx context.Context, userID uuid.UUID) (*dto.UserProfile, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, internal(err, msgAdminUsersFailed)
	}
	p, err := loadProfile(ctx, s.store, user)
	if err != nil {
		return nil, internal(err, msgAdminUsersFailed)
	}
	return p, nil
}

func (s *adminService) ListRoles(ctx context.Context) ([]dto.RoleView, error) {
	roles, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, internal(err, msgRolesFailed)
	}
	return toRoleViews(roles), nil
}

func (s *adminService) GetUserRoles(ctx context.Context, userID uuid.UUID) (*dto.UserRoles, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, internal(err, msgRolesFailed)
	}
	assigned, err := s.store.Roles().ForUser(ctx, userID)
	if err != nil {
		return nil, internal(err, msgRolesFailed)
	}
	all, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, internal(err, msgRolesFailed)
	}

	has := make(map[uuid.UUID]bool, len(assigned))
	for _, r := range assigned {
		has[r.ID] = true
	}
	var available []model.Role
	for _, r := range all {
		if !has[r.ID] {
			available = append(available, r)
		}
	}
	return &dto.UserRoles{
		UserID:    user.ID,
		Username:  user.Username,
		Assigned:  toRoleViews(assigned),
		Available: toRoleViews(available),
	}, nil
}

func (s *adminService) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	if _, err := s.requireUserAndRole(ctx, s.store, userID, roleID); err != nil {
		return err
	}
	if err := s.store.Roles().Assign(ctx, userID, roleID); err != nil {
		return internal(err, msgRolesFailed)
	}
	return nil
}

func (s *adminService) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		role, err := s.requireUserAndRole(ctx, tx, userID, roleID)
		if err != nil {
			return err
		}
		if strings.EqualFold(role.Name, model.RoleAdmin) {
			current, err := tx.Roles().ForUser(ctx, userID)
			if err != nil {
				return err
			}
			if hasRoleID(current, roleID) {
				n, err := tx.Roles().CountUsersWithRole(ctx, roleID)
				if err != nil {
					return err
				}
				if n <= 1 {
					return apperror.Business(MsgLastAdmin)
				}
			}
		}
		return tx.Roles().Remove(ctx, userID, roleID)
	})
	if err != nil {
		return internal(err, msgRolesFailed)
	}
	return nil
}

func (s *adminService) requireUserAndRole(ctx context.Context, store repository.Store, userID, roleID uuid.UUID) (*model.Role, error) {
	if _, err := store.Users().FindByID(ctx, userID); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, err
	}
	role, err := store.Roles().FindByID(ctx, roleID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgRoleNotFound)
		}
		return nil, err
	}
	return role, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return apperror.Business(MsgSelfDelete)
	}
	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound(MsgUserNotFound)
		}
		return internal(err, msgDeleteUserFailed)
	}
	return s.users.DeleteUser(ctx, userID)
}

func (s *adminService) ListPosts(ctx context.Context) ([]dto.AdminPostItem, error) {
	rows, err := s.store.Posts().List(ctx)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	out := make([]dto.AdminPostItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAdminPostItem(r))
	}
	return out, nil
}

func (s *adminService) GetPost(ctx context.Context, postID uuid.UUID) (*dto.AdminPostItem, error) {
	row, err := s.store.Posts().GetListing(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgAdminPostNotFound)
		}
		return nil, internal(err, msgLoadPostsFailed)
	}
	item := toAdminPostItem(*row)
	return &item, nil
}

func (s *adminService) DeletePost(ctx context.Context, postID uuid.UUID) error {
	if _, err := s.store.Posts().FindByID(ctx, postID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound(MsgAdminPostNotFound)
		}
		return internal(err, msgDeletePostFailed)
	}
	return s.posts.AdminDeletePost(ctx, postID)
}

// ListCategories returns every category with its product count.
func (s *adminService) ListCategories(ctx context.Context) ([]dto.CategoryCount, error) {
	n, err := s.store.Categories().Count(ctx)
	if err != nil {
		return nil, internal(err, msgLoadCategoriesFailed)
	}
	if n == 0 {
		return []dto.CategoryCount{}, nil
	}
	list, err := s.categories.GetTrending(ctx, int(n))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *adminService) GetCategory(ctx context.Context, id uuid.UUID) (*dto.CategoryView, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *adminService) CreateCategory(ctx context.Context, form dto.CategoryForm) (*dto.CategoryView, error) {
	return s.categories.Create(ctx, form)
}

func (s *adminService) UpdateCategory(ctx context.Context, id uuid.UUID, form dto.CategoryForm) error {
	return s.categories.Update(ctx, id, form)
}

func (s *adminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}

func toAdminPostItem(r model.PostListing) dto.AdminPostItem {
	return dto.AdminPostItem{
		ID:             r.PostID,
		ProductID:      r.ProductID,
		Title:          r.Title,
		Price:          r.Price,
		Status:         r.Status,
		StatusText:     r.Status.Text(),
		CreatedAt:      r.CreatedAt,
		AuthorID:       r.AuthorID,
		AuthorUsername: r.AuthorUsername,
	}
}

func toRoleViews(roles []model.Role) []dto.RoleView {
	out := make([]dto.RoleView, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.RoleView{ID: r.ID, Name: r.Name})
	}
	return out
}

func hasRoleID(roles []model.Role, id uuid.UUID) bool {
	for _, r := range roles {
		if r.ID == id {
			return true
		}
	}
	return false
}
