package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flea/internal/apperror"
	"flea/internal/model"
	"flea/internal/security"
)

func TestRegister_AssignsUserRoleAndContact(t *testing.T) {
	e := newTestEnv(t)

	u, err := e.auth.Register(e.ctx, registerRequest("ana"))
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, []string{model.RoleUser}, u.Roles)
	assert.Equal(t, model.DefaultProfilePic, u.ProfilePic)

	p, err := e.auth.GetFullUserProfile(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@flea.test", p.Email)
	require.NotNil(t, p.TelegramUser)
	assert.Equal(t, "ana", *p.TelegramUser, "leading @ is dropped")
	require.NotNil(t, p.Address)
	assert.Equal(t, "Argentina", p.Address.Country)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "ana")

	req := registerRequest("ana")
	req.Email = "otra@flea.test"
	u, err := e.auth.Register(e.ctx, req)
	assert.Nil(t, u)
	assert.Equal(t, apperror.KindBusiness, apperror.KindOf(err))
	assert.Equal(t, MsgUsernameTaken, apperror.MessageOf(err, ""))

	n, err := e.store.Users().Count(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "no user row created")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "ana")

	req := registerRequest("beto")
	req.Email = "ANA@flea.test"
	_, err := e.auth.Register(e.ctx, req)
	assert.Equal(t, MsgEmailTaken, apperror.MessageOf(err, ""))

	n, err := e.store.Users().Count(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRegister_WithoutAddress(t *testing.T) {
	e := newTestEnv(t)
	req := registerRequest("ana")
	req.StateProvince = ""
	req.Country = ""

	u, err := e.auth.Register(e.ctx, req)
	require.NoError(t, err)

	p, err := e.auth.GetFullUserProfile(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, p.Address)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "ana")

	cases := []struct {
		name     string
		username string
		password string
		ok       bool
	}{
		{"correct credentials", "ana", "secreto123", true},
		{"wrong password", "ana", "otra-clave", false},
		{"unknown user", "nadie", "secreto123", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := e.auth.Login(e.ctx, tc.username, tc.password)
			if !tc.ok {
				assert.Nil(t, u)
				assert.Equal(t, MsgInvalidCredentials, apperror.MessageOf(err, ""))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ana", u.Username)
			assert.Contains(t, u.Roles, model.RoleUser)
		})
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.auth.GetByUsername(e.ctx, "fantasma")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestGetUserWithRoles(t *testing.T) {
	e := newTestEnv(t)
	u := e.register(t, "ana")

	user, err := e.auth.GetUserWithRoles(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleUser}, user.RoleNames())
}

func TestRegister_ConstraintViolationNamesTheField(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "ana")
	auth := NewAuthService(staleChecks{e.store}, security.NewPasswordHasher(security.SchemeSHA256))

	req := registerRequest("ana")
	req.Email = "otra@flea.test"
	_, err := auth.Register(e.ctx, req)
	assert.Equal(t, apperror.KindBusiness, apperror.KindOf(err))
	assert.Equal(t, MsgUsernameTaken, apperror.MessageOf(err, ""))

	req = registerRequest("beto")
	req.Email = "ana@flea.test"
	_, err = auth.Register(e.ctx, req)
	assert.Equal(t, apperror.KindBusiness, apperror.KindOf(err))
	assert.Equal(t, MsgEmailTaken, apperror.MessageOf(err, ""))

	n, err := e.store.Users().Count(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "both registrations rolled back")
}
