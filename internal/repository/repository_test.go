package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"flea/internal/dto"
	"flea/internal/infra"
	"flea/internal/model"
)

func newTestStore(t *testing.T) (context.Context, Store) {
	t.Helper()
	ctx := context.Background()
	db, err := infra.NewDatabase(infra.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(ctx, db, infra.DriverSQLite))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return ctx, NewStore(db)
}

func createUser(t *testing.T, ctx context.Context, s Store, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Name: username, PasswordHash: "x", ProfilePic: model.DefaultProfilePic}
	require.NoError(t, s.Users().Create(ctx, u))
	return u
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	ctx, s := newTestStore(t)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx Store) error {
		createUser(t, ctx, tx, "ana")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserRepo_UpdateMissing(t *testing.T) {
	ctx, s := newTestStore(t)
	err := s.Users().UpdateName(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	u := createUser(t, ctx, s, "ana")
	require.NoError(t, s.Users().UpdateName(ctx, u.ID, "Ana"))
	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.NotNil(t, got.UpdatedAt)
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	ctx, s := newTestStore(t)
	createUser(t, ctx, s, "ana")
	err := s.Users().Create(ctx, &model.User{Username: "ana", Name: "otra", PasswordHash: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestContactRepo_EmailExistsIgnoresCase(t *testing.T) {
	ctx, s := newTestStore(t)
	u := createUser(t, ctx, s, "ana")
	require.NoError(t, s.Contacts().Create(ctx, &model.Contact{Email: "Ana@Flea.test", UserID: u.ID}))

	taken, err := s.Contacts().EmailExists(ctx, "ana@flea.TEST", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.Contacts().EmailExists(ctx, "ana@flea.test", u.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own email is not a conflict")
}

func TestAddressRepo_Upsert(t *testing.T) {
	ctx, s := newTestStore(t)
	u := createUser(t, ctx, s, "ana")

	require.NoError(t, s.Addresses().Upsert(ctx, &model.Address{StateProvince: "Córdoba", Country: "Argentina", UserID: u.ID}))
	city := "Rosario"
	require.NoError(t, s.Addresses().Upsert(ctx, &model.Address{City: &city, StateProvince: "Santa Fe", Country: "Argentina", UserID: u.ID}))

	a, err := s.Addresses().FindByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Santa Fe", a.StateProvince)
	require.NotNil(t, a.City)
	assert.Equal(t, "Rosario", *a.City)
}

func TestRoleRepo_ForUsers(t *testing.T) {
	ctx, s := newTestStore(t)
	ana := createUser(t, ctx, s, "ana")
	beto := createUser(t, ctx, s, "beto")

	admin, err := s.Roles().FindByName(ctx, "admin")
	require.NoError(t, err)
	user, err := s.Roles().FindByName(ctx, model.RoleUser)
	require.NoError(t, err)

	require.NoError(t, s.Roles().Assign(ctx, ana.ID, user.ID))
	require.NoError(t, s.Roles().Assign(ctx, ana.ID, admin.ID))
	require.NoError(t, s.Roles().Assign(ctx, ana.ID, admin.ID))

	got, err := s.Roles().ForUsers(ctx, []uuid.UUID{ana.ID, beto.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin", "User"}, got[ana.ID])
	assert.Empty(t, got[beto.ID])

	n, err := s.Roles().CountUsersWithRole(ctx, admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestImageRepo_FirstForProducts(t *testing.T) {
	ctx, s := newTestStore(t)
	p1 := &model.Product{Price: decimal.NewFromInt(10)}
	p2 := &model.Product{Price: decimal.NewFromInt(20)}
	require.NoError(t, s.Products().Create(ctx, p1))
	require.NoError(t, s.Products().Create(ctx, p2))
	assert.Equal(t, model.StatusAvailable, p1.Status)

	require.NoError(t, s.Images().Create(ctx, &model.Image{Path: "/uploads/products/b.png", Position: 1, ProductID: p1.ID}))
	require.NoError(t, s.Images().Create(ctx, &model.Image{Path: "/uploads/products/a.png", Position: 0, ProductID: p1.ID}))

	got, err := s.Images().FirstForProducts(ctx, []uuid.UUID{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{p1.ID: "/uploads/products/a.png"}, got)
}

func TestPostRepo_GetListingMissing(t *testing.T) {
	ctx, s := newTestStore(t)
	_, err := s.Posts().GetListing(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostRepo_SearchFoldsNonASCIICase(t *testing.T) {
	ctx, s := newTestStore(t)
	author := createUser(t, ctx, s, "ana")

	product := &model.Product{Price: decimal.NewFromInt(25)}
	require.NoError(t, s.Products().Create(ctx, product))
	post := &model.Post{Title: "Árbol de navidad", Description: "Con luces LED", ProductID: product.ID, AuthorID: author.ID}
	require.NoError(t, s.Posts().Create(ctx, post))
	assert.Equal(t, "árbol de navidad\ncon luces led", post.SearchText)

	search := func(q string) int64 {
		f := dto.SearchFilter{Query: q}
		f.Normalize(10)
		_, total, err := s.Posts().Search(ctx, f)
		require.NoError(t, err)
		return total
	}
	assert.EqualValues(t, 1, search("ÁRBOL"))
	assert.EqualValues(t, 1, search("luces led"))

	post.Title = "ÑANDÚ de peluche"
	require.NoError(t, s.Posts().Update(ctx, post))
	assert.EqualValues(t, 1, search("ñandú"))
	assert.Zero(t, search("árbol"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

func TestPing(t *testing.T) {
	ctx, s := newTestStore(t)
	assert.NoError(t, s.Ping(ctx))
}
