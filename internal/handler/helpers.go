package handler

import (
	"errors"
	"net/http"
	"strings"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/middleware"
	"flea/internal/service"
	"flea/internal/session"
	"flea/internal/slug"
	"flea/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	msgInvalidForm  = "El formulario enviado no es válido"
	msgInvalidValue = "Valor inválido"
	msgInvalidID    = "Identificador inválido"
	msgUnexpected   = "Ocurrió un error inesperado. Intente nuevamente más tarde."

	// formErrorKey carries a form-level message in the field error map.
	formErrorKey = "_form"
)

var validate = validator.New()

func init() {
	// Rules for raw price and slug strings.
	_ = validate.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, ok := service.ParsePrice(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.Valid(fl.Field().String())
	})
}

type messager interface {
	ValidationMessages() map[string]string
}

// bindForm binds the submitted form into req and runs its validate tags.
// The returned map is keyed by struct field name and empty when req is valid.
func bindForm(c *gin.Context, req any) map[string]string {
	fields := map[string]string{}
	if err := c.ShouldBind(req); err != nil {
		fields[formErrorKey] = msgInvalidForm
		return fields
	}
	err := validate.Struct(req)
	if err == nil {
		return fields
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields[formErrorKey] = msgInvalidForm
		return fields
	}

	var messages map[string]string
	if m, ok := req.(messager); ok {
		messages = m.ValidationMessages()
	}
	for _, fe := range verrs {
		name := fe.StructField()
		// Slice elements report as Field[i].
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		if _, seen := fields[name]; seen {
			continue
		}
		msg, ok := messages[name+"."+fe.Tag()]
		if !ok {
			msg = msgInvalidValue
		}
		fields[name] = msg
	}
	return fields
}

// render fills in the layout data every page needs and writes the template.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	s := session.From(c)
	data["CurrentUser"] = currentUser(s)
	data["Flashes"] = s.Flashes()
	data["RequestID"] = c.GetString(middleware.RequestIDKey)
	if _, ok := data["Title"]; !ok {
		data["Title"] = "Flea"
	}
	errs, _ := data["Errors"].(map[string]string)
	if errs == nil {
		errs = map[string]string{}
	}
	if msg, ok := errs[formErrorKey]; ok {
		if _, set := data["Error"]; !set {
			data["Error"] = msg
		}
	}
	data["Errors"] = errs
	c.HTML(status, name, data)
}

func currentUser(s *session.Session) web.CurrentUser {
	id, ok := s.UserID()
	if !ok {
		return web.CurrentUser{}
	}
	return web.CurrentUser{
		Authenticated: true,
		ID:            id,
		Username:      s.Username(),
		Name:          s.Name(),
		ProfilePic:    s.ProfilePic(),
		IsAdmin:       s.IsAdmin(),
		IsModerator:   s.IsModerator(),
	}
}

func flash(c *gin.Context, kind, msg string) {
	session.From(c).AddFlash(kind, msg)
}

func redirectWith(c *gin.Context, target, kind, msg string) {
	flash(c, kind, msg)
	c.Redirect(http.StatusFound, target)
}

// failTo flashes the user-facing message of err and redirects to target.
// Internal errors are also attached to the context for logging.
func failTo(c *gin.Context, target string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		_ = c.Error(err)
	}
	redirectWith(c, target, session.FlashError, apperror.MessageOf(err, msgUnexpected))
}

// formFailure sorts a service error for a form page. It returns the field
// errors to redisplay, or false when err must be handled as a page error.
func formFailure(err error) (map[string]string, bool) {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		var ve *apperror.ValidationError
		fields := map[string]string{}
		if errors.As(err, &ve) {
			for k, v := range ve.Fields {
				fields[k] = v
			}
		}
		if len(fields) == 0 {
			fields[formErrorKey] = apperror.MessageOf(err, msgInvalidForm)
		}
		return fields, true
	case apperror.KindBusiness:
		return map[string]string{formErrorKey: apperror.MessageOf(err, msgInvalidForm)}, true
	}
	return nil, false
}

// paramID parses the :id route parameter.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}

// mustUserID returns the signed-in user id; routes using it sit behind
// RequireAuth.
func mustUserID(c *gin.Context) uuid.UUID {
	id, _ := session.From(c).UserID()
	return id
}

func toIdentity(u *dto.AuthUser) session.Identity {
	return session.Identity{
		UserID:     u.ID,
		Username:   u.Username,
		Name:       u.Name,
		ProfilePic: u.ProfilePic,
		Roles:      u.Roles,
	}
}

// safeReturnURL accepts only local absolute paths.
func safeReturnURL(raw string) (string, bool) {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return "", false
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "", false
	}
	return raw, true
}
