package service

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
	"flea/internal/security"
)

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ana")
	e.register(t, "beto")

	data, err := e.users.GetEditProfileData(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@flea.test", data.Form.Email)
	assert.Equal(t, "ana", data.Form.TelegramUser)
	assert.Equal(t, "Córdoba", data.Form.City)

	req := data.Form
	req.Username = "beto"
	_, err = e.users.UpdateProfile(e.ctx, u.ID, req)
	assert.Equal(t, MsgUsernameTaken, apperror.MessageOf(err, ""))

	req = data.Form
	req.Email = "beto@flea.test"
	_, err = e.users.UpdateProfile(e.ctx, u.ID, req)
	assert.Equal(t, MsgEmailTaken, apperror.MessageOf(err, ""))

	req = data.Form
	req.Username = "ana_m"
	req.Name = "Ana María"
	req.Email = "ana.maria@flea.test"
	req.TelegramUser = "@anamaria"
	req.PhoneNumber = ""
	req.City = "Rosario"
	req.StateProvince = "Santa Fe"
	identity, err := e.users.UpdateProfile(e.ctx, u.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "ana_m", identity.Username)
	assert.Equal(t, "Ana María", identity.Name)
	assert.Equal(t, []string{model.RoleUser}, identity.Roles)

	p, err := e.auth.GetFullUserProfile(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana.maria@flea.test", p.Email)
	assert.Nil(t, p.PhoneNumber)
	require.NotNil(t, p.TelegramUser)
	assert.Equal(t, "anamaria", *p.TelegramUser)
	require.NotNil(t, p.Address)
	assert.Equal(t, "Santa Fe", p.Address.StateProvince)
	require.NotNil(t, p.Address.City)
	assert.Equal(t, "Rosario", *p.Address.City)
}

func TestUpdateProfile_ConstraintViolationNamesTheField(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ana")
	e.register(t, "beto")
	users := NewUserService(staleChecks{e.store}, security.NewPasswordHasher(security.SchemeSHA256), e.uploads, e.auth, e.posts)

	data, err := e.users.GetEditProfileData(e.ctx, u.ID)
	require.NoError(t, err)

	req := data.Form
	req.Username = "beto"
	_, err = users.UpdateProfile(e.ctx, u.ID, req)
	assert.Equal(t, apperror.KindBusiness, apperror.KindOf(err))
	assert.Equal(t, MsgUsernameTaken, apperror.MessageOf(err, ""))

	req = data.Form
	req.Email = "beto@flea.test"
	_, err = users.UpdateProfile(e.ctx, u.ID, req)
	assert.Equal(t, apperror.KindBusiness, apperror.KindOf(err))
	assert.Equal(t, MsgEmailTaken, apperror.MessageOf(err, ""))

	p, err := e.auth.GetFullUserProfile(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", p.Username)
	assert.Equal(t, "ana@flea.test", p.Email)
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ana")

	err := e.users.ChangePassword(e.ctx, u.ID, "incorrecta", "nueva-clave")
	assert.Equal(t, MsgWrongPassword, apperror.MessageOf(err, ""))

	require.NoError(t, e.users.ChangePassword(e.ctx, u.ID, "secreto123", "nueva-clave"))

	_, err = e.auth.Login(e.ctx, "ana", "secreto123")
	assert.Error(t, err)
	_, err = e.auth.Login(e.ctx, "ana", "nueva-clave")
	assert.NoError(t, err)
}

func TestUpdateProfilePicture(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ana")

	_, err := e.users.UpdateProfilePicture(e.ctx, u.ID, fileHeader(t, "file", "cv.pdf", "application/pdf", []byte("x")))
	assert.Equal(t, apperror.KindBusiness, apperror.KindOf(err))

	first, err := e.users.UpdateProfilePicture(e.ctx, u.ID, fileHeader(t, "file", "yo.png", "image/png", []byte("1")))
	require.NoError(t, err)
	assert.True(t, fileExists(t, e.fs, first))

	second, err := e.users.UpdateProfilePicture(e.ctx, u.ID, fileHeader(t, "file", "yo2.jpg", "image/jpeg", []byte("2")))
	require.NoError(t, err)
	assert.True(t, fileExists(t, e.fs, second))
	assert.False(t, fileExists(t, e.fs, first), "previous picture removed")

	p, err := e.auth.GetFullUserProfile(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, second, p.ProfilePic)
}

func TestDeleteUser_CascadesAndIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ana")
	keep := e.register(t, "beto")
	cat := e.category(t, "Varios")

	_, err := e.posts.CreatePost(e.ctx, dto.CreatePostRequest{
		Title:       "Guitarra",
		Description: "Guitarra criolla con funda",
		Price:       "200",
		CategoryIDs: []string{cat.String()},
		Images:      []*multipart.FileHeader{fileHeader(t, "images", "g.png", "image/png", []byte("g"))},
	}, u.ID)
	require.NoError(t, err)
	e.post(t, u.ID, "Amplificador", "150", cat)
	e.post(t, keep.ID, "Batería", "900", cat)
	pic, err := e.users.UpdateProfilePicture(e.ctx, u.ID, fileHeader(t, "file", "yo.png", "image/png", []byte("1")))
	require.NoError(t, err)

	require.NoError(t, e.users.DeleteUser(e.ctx, u.ID))
	require.NoError(t, e.users.DeleteUser(e.ctx, u.ID), "second delete is a no-op")

	_, err = e.auth.GetFullUserProfile(e.ctx, u.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	var counts = map[string]int64{}
	for table, m := range map[string]any{
		"contacts":   &model.Contact{},
		"addresses":  &model.Address{},
		"user_roles": &model.UserRole{},
	} {
		var n int64
		require.NoError(t, e.db.Model(m).Where("user_id = ?", u.ID).Count(&n).Error)
		counts[table] = n
	}
	assert.Equal(t, map[string]int64{"contacts": 0, "addresses": 0, "user_roles": 0}, counts)

	n, err := e.store.Posts().Count(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "other users' posts survive")
	var products int64
	require.NoError(t, e.db.Model(&model.Product{}).Count(&products).Error)
	assert.EqualValues(t, 1, products)

	assert.Zero(t, countFiles(t, e, "uploads/products"))
	assert.False(t, fileExists(t, e.fs, pic))
}

func TestGetPublicProfile(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ana")
	cat := e.category(t, "Varios")
	e.post(t, u.ID, "Guitarra", "200", cat)

	byName, err := e.users.GetPublicProfile(e.ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.User.ID)
	assert.Len(t, byName.Posts, 1)

	byID, err := e.users.GetPublicProfile(e.ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "ana", byID.User.Username)

	_, err = e.users.GetPublicProfile(e.ctx, "nadie")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
