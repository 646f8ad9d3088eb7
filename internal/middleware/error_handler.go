package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorTemplate is the page rendered for unhandled failures.
const ErrorTemplate = "error.html"

const internalErrorMessage = "Ocurrió un error inesperado. Intente nuevamente más tarde."

// ErrorHandler logs errors attached with c.Error and, when the handler wrote
// nothing, renders the generic error page. Raw errors never reach the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Err(err.Err).
			Msg("unhandled error")

		if !c.Writer.Written() {
			renderError(c)
		}
	}
}

// Recovery handles panics and converts them into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				if !c.Writer.Written() {
					renderError(c)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}

func renderError(c *gin.Context) {
	c.HTML(http.StatusInternalServerError, ErrorTemplate, gin.H{
		"Title":     "Error",
		"Message":   internalErrorMessage,
		"RequestID": c.GetString(RequestIDKey),
	})
	c.Abort()
}

// Logger logs each request with method, path, status, latency, and request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
