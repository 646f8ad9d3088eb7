package middleware

import (
	"net/http"
	"net/url"

	"flea/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	LoginPath        = "/account/login"
	AccessDeniedPath = "/account/accessdenied"
)

// RequireAuth redirects anonymous visitors to the login page, carrying the
// requested URL as returnUrl.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.From(c).IsAuthenticated() {
			redirectToLogin(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only users holding the Admin role.
func RequireAdmin() gin.HandlerFunc {
	return requireRole(func(s *session.Session) bool { return s.IsAdmin() })
}

// RequireModerator allows users holding Admin or Moderator.
func RequireModerator() gin.HandlerFunc {
	return requireRole(func(s *session.Session) bool { return s.IsModerator() })
}

func requireRole(allowed func(*session.Session) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.From(c)
		if !s.IsAuthenticated() {
			redirectToLogin(c)
			return
		}
		if !allowed(s) {
			c.Redirect(http.StatusFound, AccessDeniedPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	target := LoginPath + "?returnUrl=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, target)
	c.Abort()
}
