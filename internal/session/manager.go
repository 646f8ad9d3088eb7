package session

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const contextKey = "session"

// Manager loads the session of each request and persists it before the
// first byte of the response is written.
type Manager struct {
	sm *scs.SessionManager
}

// NewManager keeps sessions in store for idleTTL since the last request.
// The cookie is HttpOnly, SameSite=Lax and lives until the browser closes.
func NewManager(store Store, cookieName string, idleTTL time.Duration, secure bool) *Manager {
	sm := scs.New()
	sm.Store = store
	sm.IdleTimeout = idleTTL
	sm.Lifetime = maxLifetime
	sm.Cookie.Name = cookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	sm.Cookie.Persist = false
	return &Manager{sm: sm}
}

// maxLifetime bounds a session regardless of activity.
const maxLifetime = 7 * 24 * time.Hour

// Middleware attaches a *Session to the gin context. It is the gin form of
// scs's LoadAndSave.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Vary", "Cookie")

		var token string
		if ck, err := c.Request.Cookie(m.sm.Cookie.Name); err == nil {
			token = ck.Value
		}
		ctx, err := m.sm.Load(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("session load failed")
			if ctx, err = m.sm.Load(c.Request.Context(), ""); err != nil {
				_ = c.AbortWithError(http.StatusInternalServerError, err)
				return
			}
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextKey, &Session{sm: m.sm, ctx: ctx})

		w := &committingWriter{ResponseWriter: c.Writer}
		w.commit = func() { m.commit(ctx, w.ResponseWriter) }
		c.Writer = w

		c.Next()

		w.commitOnce()
	}
}

func (m *Manager) commit(ctx context.Context, w http.ResponseWriter) {
	switch m.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := m.sm.Commit(ctx)
		if err != nil {
			log.Error().Err(err).Msg("session save failed")
			return
		}
		m.sm.WriteSessionCookie(ctx, w, token, expiry)
	case scs.Destroyed:
		m.sm.WriteSessionCookie(ctx, w, "", time.Time{})
	}
}

// detached backs sessions of requests that did not pass through a Manager.
// Nothing it holds is ever committed.
var detached = scs.New()

// From returns the session attached by Middleware, or an empty anonymous
// session when none is attached.
func From(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	parent := context.Background()
	if c.Request != nil {
		parent = c.Request.Context()
	}
	// Load without a token never reaches the store, so it cannot fail.
	ctx, _ := detached.Load(parent, "")
	s := &Session{sm: detached, ctx: ctx}
	c.Set(contextKey, s)
	return s
}

// committingWriter saves the session right before headers go out, so the
// Set-Cookie header is still writable.
type committingWriter struct {
	gin.ResponseWriter
	commit func()
	done   bool
}

func (w *committingWriter) commitOnce() {
	if w.done {
		return
	}
	w.done = true
	w.commit()
}

func (w *committingWriter) WriteHeader(code int) {
	w.commitOnce()
	w.ResponseWriter.WriteHeader(code)
}

func (w *committingWriter) WriteHeaderNow() {
	w.commitOnce()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *committingWriter) Write(b []byte) (int, error) {
	w.commitOnce()
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) WriteString(s string) (int, error) {
	w.commitOnce()
	return w.ResponseWriter.WriteString(s)
}
