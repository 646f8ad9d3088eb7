package handler

import (
	"net/http"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/service"
	"flea/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	msgLoggedOut       = "Sesión cerrada"
	msgPictureRequired = "Debe seleccionar una imagen"
	pathHome           = "/"
	pathProfile        = "/account/profile"
	pathEditProfile    = "/account/editprofile"
	pathChangePassword = "/account/changepassword"
)

type AccountHandler struct {
	auth  service.AuthService
	users service.UserService
	posts service.PostService
}

func NewAccountHandler(auth service.AuthService, users service.UserService, posts service.PostService) *AccountHandler {
	return &AccountHandler{auth: auth, users: users, posts: posts}
}

// ── Register / login ─────────────────────────────────────────────────────────

func (h *AccountHandler) RegisterPage(c *gin.Context) {
	if session.From(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, pathHome)
		return
	}
	render(c, http.StatusOK, "register.html", gin.H{"Title": "Registrarse", "Form": dto.RegisterRequest{}})
}

// Register creates the account and signs the new user in.
func (h *AccountHandler) Register(c *gin.Context) {
	if session.From(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, pathHome)
		return
	}
	var req dto.RegisterRequest
	page := func(errs map[string]string) {
		req.Password, req.ConfirmPassword = "", ""
		render(c, http.StatusOK, "register.html", gin.H{"Title": "Registrarse", "Form": req, "Errors": errs})
	}
	if errs := bindForm(c, &req); len(errs) > 0 {
		page(errs)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		if errs, ok := formFailure(err); ok {
			page(errs)
			return
		}
		_ = c.Error(err)
		return
	}

	s := session.From(c)
	s.SignIn(toIdentity(user))
	redirectWith(c, pathHome, session.FlashSuccess, service.MsgRegistered)
}

func (h *AccountHandler) LoginPage(c *gin.Context) {
	if session.From(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, pathHome)
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{
		"Title": "Iniciar sesión",
		"Form":  dto.LoginRequest{ReturnURL: c.Query("returnUrl")},
	})
}

func (h *AccountHandler) Login(c *gin.Context) {
	if session.From(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, pathHome)
		return
	}
	var req dto.LoginRequest
	page := func(errs map[string]string) {
		req.Password = ""
		render(c, http.StatusOK, "login.html", gin.H{"Title": "Iniciar sesión", "Form": req, "Errors": errs})
	}
	if errs := bindForm(c, &req); len(errs) > 0 {
		page(errs)
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errs, ok := formFailure(err); ok {
			page(errs)
			return
		}
		_ = c.Error(err)
		return
	}

	session.From(c).SignIn(toIdentity(user))
	target := pathHome
	if u, ok := safeReturnURL(req.ReturnURL); ok {
		target = u
	}
	redirectWith(c, target, session.FlashSuccess, service.MsgLoggedIn)
}

// LogoutPage asks for confirmation; only the POST signs out.
func (h *AccountHandler) LogoutPage(c *gin.Context) {
	if !session.From(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, pathHome)
		return
	}
	render(c, http.StatusOK, "logout.html", gin.H{"Title": "Cerrar sesión"})
}

func (h *AccountHandler) Logout(c *gin.Context) {
	s := session.From(c)
	s.Clear()
	redirectWith(c, pathHome, session.FlashInfo, msgLoggedOut)
}

func (h *AccountHandler) AccessDenied(c *gin.Context) {
	render(c, http.StatusForbidden, "accessdenied.html", gin.H{"Title": "Acceso denegado"})
}

// ── Profile ──────────────────────────────────────────────────────────────────

func (h *AccountHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	uid := mustUserID(c)

	profile, err := h.auth.GetFullUserProfile(ctx, uid)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			// The account is gone; drop the stale identity.
			session.From(c).Clear()
			redirectWith(c, pathHome, session.FlashError, apperror.MessageOf(err, service.MsgUserNotFound))
			return
		}
		_ = c.Error(err)
		return
	}
	posts, err := h.posts.GetUserPosts(ctx, uid, dto.UserPostsLimit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "profile.html", gin.H{"Title": "Mi perfil", "Profile": profile, "Posts": posts})
}

func (h *AccountHandler) EditProfilePage(c *gin.Context) {
	data, err := h.users.GetEditProfileData(c.Request.Context(), mustUserID(c))
	if err != nil {
		failTo(c, pathProfile, err)
		return
	}
	render(c, http.StatusOK, "edit_profile.html", gin.H{
		"Title":      "Editar perfil",
		"Form":       data.Form,
		"ProfilePic": data.ProfilePic,
	})
}

func (h *AccountHandler) EditProfile(c *gin.Context) {
	s := session.From(c)
	var req dto.EditProfileRequest
	page := func(errs map[string]string) {
		render(c, http.StatusOK, "edit_profile.html", gin.H{
			"Title":      "Editar perfil",
			"Form":       req,
			"ProfilePic": s.ProfilePic(),
			"Errors":     errs,
		})
	}
	if errs := bindForm(c, &req); len(errs) > 0 {
		page(errs)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), mustUserID(c), req)
	if err != nil {
		if errs, ok := formFailure(err); ok {
			page(errs)
			return
		}
		failTo(c, pathProfile, err)
		return
	}
	s.UpdateProfile(user.Username, user.Name, user.ProfilePic)
	redirectWith(c, pathProfile, session.FlashSuccess, service.MsgProfileUpdated)
}

func (h *AccountHandler) ProfilePicture(c *gin.Context) {
	file, err := c.FormFile("profilePicture")
	if err != nil {
		redirectWith(c, pathEditProfile, session.FlashError, msgPictureRequired)
		return
	}
	path, err := h.users.UpdateProfilePicture(c.Request.Context(), mustUserID(c), file)
	if err != nil {
		failTo(c, pathEditProfile, err)
		return
	}
	session.From(c).UpdateProfile("", "", path)
	redirectWith(c, pathEditProfile, session.FlashSuccess, service.MsgProfilePicUpdated)
}

func (h *AccountHandler) ChangePasswordPage(c *gin.Context) {
	render(c, http.StatusOK, "change_password.html", gin.H{"Title": "Cambiar contraseña"})
}

// ChangePassword serves both POST and PUT.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	page := func(errs map[string]string) {
		render(c, http.StatusOK, "change_password.html", gin.H{"Title": "Cambiar contraseña", "Errors": errs})
	}
	if errs := bindForm(c, &req); len(errs) > 0 {
		page(errs)
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), mustUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindBusiness {
			page(map[string]string{"CurrentPassword": apperror.MessageOf(err, service.MsgWrongPassword)})
			return
		}
		failTo(c, pathChangePassword, err)
		return
	}
	redirectWith(c, pathProfile, session.FlashSuccess, service.MsgPasswordChanged)
}

// Delete removes the signed-in account and everything it owns.
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), mustUserID(c)); err != nil {
		failTo(c, pathProfile, err)
		return
	}
	session.From(c).Clear()
	redirectWith(c, pathHome, session.FlashInfo, service.MsgAccountDeleted)
}
