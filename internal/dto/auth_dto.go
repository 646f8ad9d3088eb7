package dto

import "github.com/google/uuid"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegisterRequest struct {
	Username        string `form:"username"        validate:"required,min=3,max=50"`
	Name            string `form:"name"            validate:"required,max=100"`
	Email           string `form:"email"           validate:"required,email"`
	Password        string `form:"password"        validate:"required,min=6,max=100"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
	PhoneNumber     string `form:"phoneNumber"     validate:"omitempty,max=50"`
	TelegramUser    string `form:"telegramUser"    validate:"omitempty,max=100"`
	City            string `form:"city"            validate:"omitempty,max=100"`
	StateProvince   string `form:"stateProvince"   validate:"required,max=100"`
	Country         string `form:"country"         validate:"required,max=100"`
}

func (RegisterRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"Username.required":        "El nombre de usuario es requerido",
		"Username.min":             "El usuario debe tener entre 3 y 50 caracteres",
		"Username.max":             "El usuario debe tener entre 3 y 50 caracteres",
		"Name.required":            "El nombre completo es requerido",
		"Name.max":                 "El nombre no puede exceder 100 caracteres",
		"Email.required":           "El email es requerido",
		"Email.email":              "Email inválido",
		"Password.required":        "La contraseña es requerida",
		"Password.min":             "La contraseña debe tener al menos 6 caracteres",
		"Password.max":             "La contraseña no puede exceder 100 caracteres",
		"ConfirmPassword.required": "Debe confirmar la contraseña",
		"ConfirmPassword.eqfield":  "Las contraseñas no coinciden",
		"StateProvince.required":   "El estado/provincia es requerido",
		"Country.required":         "El país es requerido",
	}
}

type LoginRequest struct {
	Username  string `form:"username"  validate:"required"`
	Password  string `form:"password"  validate:"required"`
	ReturnURL string `form:"returnUrl"`
}

func (LoginRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"Username.required": "El nombre de usuario es requerido",
		"Password.required": "La contraseña es requerida",
	}
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// AuthUser is the identity stored in the session after login or registration.
type AuthUser struct {
	ID         uuid.UUID
	Username   string
	Name       string
	ProfilePic string
	Roles      []string
}
