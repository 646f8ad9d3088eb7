package handler

import (
	"net/http"

	"flea/internal/apperror"
	"flea/internal/service"
	"flea/internal/session"

	"github.com/gin-gonic/gin"
)

type UsersHandler struct{ users service.UserService }

func NewUsersHandler(users service.UserService) *UsersHandler { return &UsersHandler{users: users} }

// Profile shows a public profile; key is a user id or a username.
func (h *UsersHandler) Profile(c *gin.Context) {
	profile, err := h.users.GetPublicProfile(c.Request.Context(), c.Param("key"))
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			redirectWith(c, pathHome, session.FlashError, apperror.MessageOf(err, service.MsgUserNotFound))
			return
		}
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "user_profile.html", gin.H{"Title": profile.User.Name, "Profile": profile})
}
