package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"flea/internal/dto"
	"flea/internal/infra"
	"flea/internal/model"
	"flea/internal/repository"
	"flea/internal/security"
	"flea/internal/storage"
)

// ── Test Environment ─────────────────────────────────────────────────────────

type testEnv struct {
	ctx        context.Context
	db         *gorm.DB
	store      repository.Store
	fs         afero.Fs
	uploads    storage.FileUploadService
	auth       AuthService
	posts      PostService
	categories CategoryService
	users      UserService
	admin      *adminService
}

func newTestEnv(t *testing.T) *testEnv {
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

	store := repository.NewStore(db)
	fs := afero.NewMemMapFs()
	uploads := storage.NewFileUploadService(fs, 1<<20)
	hasher := security.NewPasswordHasher(security.SchemeSHA256)

	auth := NewAuthService(store, hasher)
	posts := NewPostService(store, uploads, 2)
	categories := NewCategoryService(store)
	users := NewUserService(store, hasher, uploads, auth, posts)
	admin := NewAdminService(store, users, posts, categories).(*adminService)

	return &testEnv{
		ctx:        ctx,
		db:         db,
		store:      store,
		fs:         fs,
		uploads:    uploads,
		auth:       auth,
		posts:      posts,
		categories: categories,
		users:      users,
		admin:      admin,
	}
}

// staleChecks answers every username and email existence check with false,
// as when a concurrent request takes the value between check and write.
type staleChecks struct{ repository.Store }

func (s staleChecks) Users() repository.UserRepository {
	return staleUsers{s.Store.Users()}
}

func (s staleChecks) Contacts() repository.ContactRepository {
	return staleContacts{s.Store.Contacts()}
}

func (s staleChecks) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error { return fn(staleChecks{tx}) })
}

type staleUsers struct{ repository.UserRepository }

func (staleUsers) UsernameExists(context.Context, string, uuid.UUID) (bool, error) { return false, nil }

type staleContacts struct{ repository.ContactRepository }

func (staleContacts) EmailExists(context.Context, string, uuid.UUID) (bool, error) { return false, nil }

// ── Fixtures ─────────────────────────────────────────────────────────────────

func registerRequest(username string) dto.RegisterRequest {
	return dto.RegisterRequest{
		Username:        username,
		Name:            "Nombre " + username,
		Email:           username + "@flea.test",
		Password:        "secreto123",
		ConfirmPassword: "secreto123",
		PhoneNumber:     "+54 11 5555-0000",
		TelegramUser:    "@" + username,
		City:            "Córdoba",
		StateProvince:   "Córdoba",
		Country:         "Argentina",
	}
}

func (e *testEnv) register(t *testing.T, username string) *dto.AuthUser {
	t.Helper()
	u, err := e.auth.Register(e.ctx, registerRequest(username))
	require.NoError(t, err)
	return u
}

func (e *testEnv) category(t *testing.T, name string) uuid.UUID {
	t.Helper()
	c, err := e.categories.Create(e.ctx, dto.CategoryForm{Name: name})
	require.NoError(t, err)
	return c.ID
}

func (e *testEnv) fallbackCategory(t *testing.T) uuid.UUID {
	t.Helper()
	c, err := e.store.Categories().FindBySlug(e.ctx, model.FallbackCategorySlug)
	require.NoError(t, err)
	return c.ID
}

func (e *testEnv) post(t *testing.T, authorID uuid.UUID, title, price string, categoryIDs ...uuid.UUID) uuid.UUID {
	t.Helper()
	ids := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		ids = append(ids, id.String())
	}
	postID, err := e.posts.CreatePost(e.ctx, dto.CreatePostRequest{
		Title:       title,
		Description: "Descripción de prueba para " + title,
		Price:       price,
		CategoryIDs: ids,
	}, authorID)
	require.NoError(t, err)
	return postID
}

// backdate moves a post's creation time so ordering is deterministic.
func (e *testEnv) backdate(t *testing.T, postID uuid.UUID, at time.Time) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.Post{}).Where("id = ?", postID).Update("created_at", at).Error)
}

// fileHeader builds a real *multipart.FileHeader by round-tripping a
// multipart body through net/http.
func fileHeader(t *testing.T, field, name, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func fileExists(t *testing.T, fs afero.Fs, webPath string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, webPath[1:])
	require.NoError(t, err)
	return ok
}
