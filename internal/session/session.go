// Package session keeps per-browser state on the server, keyed by an opaque
// cookie value. It is a typed view over an scs session manager.
package session

import (
	"context"
	"encoding/gob"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Flash kinds rendered by the layout.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

type Flash struct {
	Kind    string
	Message string
}

// Session keys.
const (
	keyUserID     = "user_id"
	keyUsername   = "username"
	keyName       = "name"
	keyProfilePic = "profile_pic"
	keyRoles      = "roles"
	keyFlashes    = "flashes"
)

func init() {
	gob.Register([]Flash{})
}

// Identity is the signed-in user as remembered by the session.
type Identity struct {
	UserID     uuid.UUID
	Username   string
	Name       string
	ProfilePic string
	Roles      []string
}

// Session is the state of one browser for the current request. Changes are
// persisted by the middleware before the response is written.
type Session struct {
	sm  *scs.SessionManager
	ctx context.Context
}

// UserID returns the signed-in user id.
func (s *Session) UserID() (uuid.UUID, bool) {
	if s == nil {
		return uuid.Nil, false
	}
	raw := s.sm.GetString(s.ctx, keyUserID)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *Session) IsAuthenticated() bool {
	_, ok := s.UserID()
	return ok
}

func (s *Session) Username() string { return s.sm.GetString(s.ctx, keyUsername) }

func (s *Session) Name() string { return s.sm.GetString(s.ctx, keyName) }

func (s *Session) ProfilePic() string { return s.sm.GetString(s.ctx, keyProfilePic) }

func (s *Session) Roles() []string {
	roles, _ := s.sm.Get(s.ctx, keyRoles).([]string)
	return roles
}

// HasRole compares role names case-insensitively.
func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles() {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (s *Session) IsAdmin() bool { return s.HasRole("Admin") }

// IsModerator is true for moderators and admins.
func (s *Session) IsModerator() bool { return s.HasRole("Moderator") || s.IsAdmin() }

// SignIn stores the identity and rotates the session token. Pending flashes
// survive.
func (s *Session) SignIn(u Identity) {
	if err := s.sm.RenewToken(s.ctx); err != nil {
		log.Warn().Err(err).Msg("session token renewal failed")
	}
	s.sm.Put(s.ctx, keyUserID, u.UserID.String())
	s.sm.Put(s.ctx, keyUsername, u.Username)
	s.sm.Put(s.ctx, keyName, u.Name)
	s.sm.Put(s.ctx, keyProfilePic, u.ProfilePic)
	s.sm.Put(s.ctx, keyRoles, append([]string(nil), u.Roles...))
}

// UpdateProfile refreshes the display fields after a profile edit.
func (s *Session) UpdateProfile(username, name, profilePic string) {
	if username != "" {
		s.sm.Put(s.ctx, keyUsername, username)
	}
	if name != "" {
		s.sm.Put(s.ctx, keyName, name)
	}
	if profilePic != "" {
		s.sm.Put(s.ctx, keyProfilePic, profilePic)
	}
}

// Clear drops all state; the stored session is deleted and the cookie
// expired. A flash added afterwards starts a fresh anonymous session.
func (s *Session) Clear() {
	if err := s.sm.Destroy(s.ctx); err != nil {
		log.Warn().Err(err).Msg("session destroy failed")
	}
}

func (s *Session) AddFlash(kind, message string) {
	flashes, _ := s.sm.Get(s.ctx, keyFlashes).([]Flash)
	s.sm.Put(s.ctx, keyFlashes, append(flashes, Flash{Kind: kind, Message: message}))
}

// Flashes returns and removes pending flash messages.
func (s *Session) Flashes() []Flash {
	if s == nil || !s.sm.Exists(s.ctx, keyFlashes) {
		return nil
	}
	flashes, _ := s.sm.Pop(s.ctx, keyFlashes).([]Flash)
	return flashes
}
