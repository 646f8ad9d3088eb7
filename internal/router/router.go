package router

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"flea/internal/config"
	"flea/internal/handler"
	"flea/internal/middleware"
	"flea/internal/repository"
	"flea/internal/security"
	"flea/internal/service"
	"flea/internal/session"
	"flea/internal/storage"
	"flea/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

const memorySessionPurge = 5 * time.Minute

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
// rdb may be nil, in which case sessions live in process memory. webRoot is
// the filesystem holding uploads/; ctx bounds background goroutines.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, webRoot afero.Fs) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	// ── Sessions ─────────────────────────────────────────────────────────────
	var sessionStore session.Store
	if rdb != nil {
		sessionStore = session.NewRedisStore(rdb)
	} else {
		sessionStore = session.NewMemoryStore(ctx, memorySessionPurge)
	}
	sessions := session.NewManager(sessionStore, cfg.SessionCookie,
		time.Duration(cfg.SessionIdleMinutes)*time.Minute, cfg.IsProduction())

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(sessions.Middleware())

	// ── Repositories ─────────────────────────────────────────────────────────
	store := repository.NewStore(db)

	// ── Services ─────────────────────────────────────────────────────────────
	hasher := security.NewPasswordHasher(cfg.PasswordScheme)
	uploads := storage.NewFileUploadService(webRoot, cfg.MaxUploadBytes())

	authSvc := service.NewAuthService(store, hasher)
	categorySvc := service.NewCategoryService(store)
	postSvc := service.NewPostService(store, uploads, cfg.PageSize)
	userSvc := service.NewUserService(store, hasher, uploads, authSvc, postSvc)
	adminSvc := service.NewAdminService(store, userSvc, postSvc, categorySvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	homeH := handler.NewHomeHandler(postSvc, categorySvc)
	accountH := handler.NewAccountHandler(authSvc, userSvc, postSvc)
	postsH := handler.NewPostsHandler(postSvc, categorySvc)
	usersH := handler.NewUsersHandler(userSvc)
	adminH := handler.NewAdminHandler(adminSvc)

	// ── Static files ─────────────────────────────────────────────────────────
	r.StaticFS("/uploads", afero.NewHttpFs(webRoot).Dir("uploads"))
	r.Static("/images", filepath.Join(cfg.StaticDir, "images"))
	r.Static("/css", filepath.Join(cfg.StaticDir, "css"))

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/", homeH.Index)
	r.GET("/health", handler.Health(store, rdb))
	r.GET("/posts/details/:id", postsH.Details)
	r.GET("/user/profile/:key", usersH.Profile)

	limiter := middleware.NewLoginLimiter(ctx, cfg.LoginRateLimit)

	account := r.Group("/account")
	{
		account.GET("/register", accountH.RegisterPage)
		account.POST("/register", accountH.Register)
		account.GET("/login", accountH.LoginPage)
		account.POST("/login", limiter.Middleware(), accountH.Login)
		account.GET("/logout", accountH.LogoutPage)
		account.POST("/logout", accountH.Logout)
		account.GET("/accessdenied", accountH.AccessDenied)

		me := account.Group("", middleware.RequireAuth())
		me.GET("/profile", accountH.Profile)
		me.GET("/editprofile", accountH.EditProfilePage)
		me.POST("/editprofile", accountH.EditProfile)
		me.POST("/profilepicture", accountH.ProfilePicture)
		me.GET("/changepassword", accountH.ChangePasswordPage)
		me.POST("/changepassword", accountH.ChangePassword)
		me.PUT("/changepassword", accountH.ChangePassword)
		me.POST("/delete", accountH.Delete)
	}

	posts := r.Group("/posts", middleware.RequireAuth())
	{
		posts.GET("/create", postsH.CreatePage)
		posts.POST("/create", postsH.Create)
		posts.GET("/edit/:id", postsH.EditPage)
		posts.POST("/edit/:id", postsH.Edit)
		posts.POST("/delete/:id", postsH.Delete)
		posts.GET("/myposts", postsH.MyPosts)
	}

	// Moderators and admins
	admin := r.Group("/admin", middleware.RequireModerator())
	{
		admin.GET("", adminH.Dashboard)
		admin.GET("/dashboard", adminH.Dashboard)
		admin.GET("/users", adminH.Users)
		admin.GET("/users/:id", adminH.UserDetail)
		admin.GET("/posts", adminH.Posts)
		admin.GET("/categories", adminH.Categories)
		admin.GET("/categories/create", adminH.CreateCategoryPage)
		admin.POST("/categories/create", adminH.CreateCategory)
		admin.GET("/categories/:id/edit", adminH.EditCategoryPage)
		admin.POST("/categories/:id/edit", adminH.EditCategory)
	}

	// Admins only
	adminOnly := r.Group("/admin", middleware.RequireAdmin())
	{
		adminOnly.GET("/users/:id/roles", adminH.UserRoles)
		adminOnly.POST("/users/:id/roles/assign", adminH.AssignRole)
		adminOnly.POST("/users/:id/roles/remove", adminH.RemoveRole)
		adminOnly.GET("/users/:id/delete", adminH.DeleteUserPage)
		adminOnly.POST("/users/:id/delete", adminH.DeleteUser)
		adminOnly.GET("/posts/:id/delete", adminH.DeletePostPage)
		adminOnly.POST("/posts/:id/delete", adminH.DeletePost)
		adminOnly.GET("/categories/:id/delete", adminH.DeleteCategoryPage)
		adminOnly.POST("/categories/:id/delete", adminH.DeleteCategory)
	}

	r.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, middleware.ErrorTemplate, gin.H{
			"Title":     "Página no encontrada",
			"Message":   "La página solicitada no existe.",
			"RequestID": c.GetString(middleware.RequestIDKey),
		})
	})

	return r, nil
}
