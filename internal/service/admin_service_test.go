package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
)

func (e *testEnv) role(t *testing.T, name string) uuid.UUID {
	t.Helper()
	r, err := e.store.Roles().FindByName(e.ctx, name)
	require.NoError(t, err)
	return r.ID
}

func TestGetDashboardStats(t *testing.T) {
	e := newTestEnv(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	e.admin.now = func() time.Time { return now }

	ana := e.register(t, "ana")
	beto := e.register(t, "beto")
	require.NoError(t, e.db.Model(&model.User{}).Where("id = ?", ana.ID).Update("created_at", now.AddDate(0, 0, -30)).Error)
	require.NoError(t, e.db.Model(&model.User{}).Where("id = ?", beto.ID).Update("created_at", now.Add(-time.Hour)).Error)

	cat := e.category(t, "Varios")
	old := e.post(t, ana.ID, "Viejo", "10", cat)
	e.backdate(t, old, now.AddDate(0, 0, -20))
	week := e.post(t, ana.ID, "De la semana", "10", cat)
	e.backdate(t, week, now.AddDate(0, 0, -2))
	today := e.post(t, beto.ID, "De hoy", "10", cat)
	e.backdate(t, today, now.Add(-2*time.Hour))
	require.NoError(t, e.posts.UpdatePost(e.ctx, dto.UpdatePostRequest{
		PostID:      old,
		Title:       "Viejo",
		Description: "Descripción de prueba para Viejo",
		Price:       "10",
		Status:      string(model.StatusSold),
		CategoryIDs: []string{cat.String()},
	}, ana.ID))

	st, err := e.admin.GetDashboardStats(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.TotalUsers)
	assert.EqualValues(t, 3, st.TotalPosts)
	assert.EqualValues(t, 2, st.TotalCategories, "Varios and otros")
	assert.EqualValues(t, 2, st.ActivePosts)
	assert.EqualValues(t, 1, st.SoldPosts)
	assert.EqualValues(t, 1, st.NewUsersThisWeek)
	assert.EqualValues(t, 2, st.NewPostsThisWeek)
	assert.EqualValues(t, 1, st.NewPostsToday)

	require.Len(t, st.RecentActivity, 5)
	assert.Equal(t, "user", st.RecentActivity[0].Type)
	assert.Equal(t, "Nuevo usuario registrado: beto", st.RecentActivity[0].Description)
	assert.Equal(t, "Nueva publicación: De hoy", st.RecentActivity[1].Description)
	for i := 1; i < len(st.RecentActivity); i++ {
		assert.False(t, st.RecentActivity[i].Timestamp.After(st.RecentActivity[i-1].Timestamp))
	}

	require.NotEmpty(t, st.TopCategories)
	assert.Equal(t, "Varios", st.TopCategories[0].Name)
	assert.EqualValues(t, 3, st.TopCategories[0].PostCount)
}

func TestMergeActivity_CapsAtTen(t *testing.T) {
	base := time.Now()
	var users []model.User
	var posts []model.PostListing
	for i := 0; i < 6; i++ {
		users = append(users, model.User{Username: "u", CreatedAt: base.Add(time.Duration(-2*i) * time.Minute)})
		posts = append(posts, model.PostListing{Title: "p", CreatedAt: base.Add(time.Duration(-2*i-1) * time.Minute)})
	}
	got := mergeActivity(users, posts)
	require.Len(t, got, 10)
	assert.Equal(t, "user", got[0].Type)
	assert.Equal(t, "post", got[1].Type)
	assert.Equal(t, "bi-box-seam", got[1].Icon)
}

func TestListUsers(t *testing.T) {
	e := newTestEnv(t)
	ana := e.register(t, "ana")
	e.register(t, "beto")
	cat := e.category(t, "Varios")
	e.post(t, ana.ID, "Uno", "1", cat)
	e.post(t, ana.ID, "Dos", "1", cat)

	list, err := e.admin.ListUsers(e.ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byName := map[string]dto.AdminUserItem{}
	for _, u := range list {
		byName[u.Username] = u
	}
	assert.EqualValues(t, 2, byName["ana"].PostCount)
	assert.EqualValues(t, 0, byName["beto"].PostCount)
	assert.Equal(t, "beto@flea.test", byName["beto"].Email)
	assert.Equal(t, []string{model.RoleUser}, byName["ana"].Roles)

	detail, err := e.admin.GetUserDetail(e.ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Posts, 2)
	assert.Equal(t, "ana@flea.test", detail.Profile.Email)

	_, err = e.admin.GetUserDetail(e.ctx, uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRoleManagement(t *testing.T) {
	e := newTestEnv(t)
	ana := e.register(t, "ana")
	beto := e.register(t, "beto")
	adminRole := e.role(t, model.RoleAdmin)
	modRole := e.role(t, model.RoleModerator)

	roles, err := e.admin.ListRoles(e.ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	require.NoError(t, e.admin.AssignRole(e.ctx, ana.ID, adminRole))
	require.NoError(t, e.admin.AssignRole(e.ctx, ana.ID, adminRole), "assigning twice is harmless")
	require.NoError(t, e.admin.AssignRole(e.ctx, beto.ID, modRole))

	ur, err := e.admin.GetUserRoles(e.ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, ur.Assigned, 2)
	require.Len(t, ur.Available, 1)
	assert.Equal(t, model.RoleModerator, ur.Available[0].Name)

	err = e.admin.RemoveRole(e.ctx, ana.ID, adminRole)
	assert.Equal(t, MsgLastAdmin, apperror.MessageOf(err, ""))

	require.NoError(t, e.admin.AssignRole(e.ctx, beto.ID, adminRole))
	require.NoError(t, e.admin.RemoveRole(e.ctx, ana.ID, adminRole))

	u, err := e.auth.GetUserWithRoles(e.ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleUser}, u.RoleNames())

	err = e.admin.AssignRole(e.ctx, uuid.New(), modRole)
	assert.Equal(t, MsgUserNotFound, apperror.MessageOf(err, ""))
	err = e.admin.AssignRole(e.ctx, ana.ID, uuid.New())
	assert.Equal(t, MsgRoleNotFound, apperror.MessageOf(err, ""))
}

func TestAdminDeleteUserAndPost(t *testing.T) {
	e := newTestEnv(t)
	admin := e.register(t, "admin")
	ana := e.register(t, "ana")
	cat := e.category(t, "Varios")
	postID := e.post(t, ana.ID, "Guitarra", "200", cat)

	item, err := e.admin.GetPost(e.ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "ana", item.AuthorUsername)
	assert.Equal(t, "Disponible", item.StatusText)

	posts, err := e.admin.ListPosts(e.ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	require.NoError(t, e.admin.DeletePost(e.ctx, postID))
	err = e.admin.DeletePost(e.ctx, postID)
	assert.Equal(t, MsgAdminPostNotFound, apperror.MessageOf(err, ""))
	_, err = e.admin.GetPost(e.ctx, postID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = e.admin.DeleteUser(e.ctx, admin.ID, admin.ID)
	assert.Equal(t, MsgSelfDelete, apperror.MessageOf(err, ""))

	require.NoError(t, e.admin.DeleteUser(e.ctx, admin.ID, ana.ID))
	err = e.admin.DeleteUser(e.ctx, admin.ID, ana.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestAdminListCategories(t *testing.T) {
	e := newTestEnv(t)
	ana := e.register(t, "ana")
	z := e.category(t, "Zapatos")
	e.category(t, "Autos")
	e.post(t, ana.ID, "Zapatillas", "50", z)

	list, err := e.admin.ListCategories(e.ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Autos", "Otros", "Zapatos"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.EqualValues(t, 1, list[2].PostCount)
}
