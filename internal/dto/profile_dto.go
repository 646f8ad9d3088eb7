package dto

import (
	"time"

	"github.com/google/uuid"
)

type EditProfileRequest struct {
	Username      string `form:"username"      validate:"omitempty,min=3,max=50"`
	Name          string `form:"name"          validate:"required,max=100"`
	Email         string `form:"email"         validate:"required,email"`
	PhoneNumber   string `form:"phoneNumber"   validate:"omitempty,max=50"`
	TelegramUser  string `form:"telegramUser"  validate:"omitempty,max=100"`
	City          string `form:"city"          validate:"omitempty,max=100"`
	StateProvince string `form:"stateProvince" validate:"omitempty,max=100"`
	Country       string `form:"country"       validate:"omitempty,max=100"`
}

func (EditProfileRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"Username.min":   "El usuario debe tener entre 3 y 50 caracteres",
		"Username.max":   "El usuario debe tener entre 3 y 50 caracteres",
		"Name.required":  "El nombre completo es requerido",
		"Name.max":       "El nombre no puede exceder 100 caracteres",
		"Email.required": "El email es requerido",
		"Email.email":    "Email inválido",
	}
}

type ChangePasswordRequest struct {
	CurrentPassword    string `form:"currentPassword"    validate:"required"`
	NewPassword        string `form:"newPassword"        validate:"required,min=6,max=100"`
	ConfirmNewPassword string `form:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

func (ChangePasswordRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"CurrentPassword.required":    "La contraseña actual es requerida",
		"NewPassword.required":        "La nueva contraseña es requerida",
		"NewPassword.min":             "La contraseña debe tener al menos 6 caracteres",
		"NewPassword.max":             "La contraseña no puede exceder 100 caracteres",
		"ConfirmNewPassword.required": "Debe confirmar la nueva contraseña",
		"ConfirmNewPassword.eqfield":  "Las contraseñas no coinciden",
	}
}

type AddressView struct {
	City          *string
	StateProvince string
	Country       string
}

// UserProfile is a user with contact, address and roles.
type UserProfile struct {
	ID           uuid.UUID
	Username     string
	Name         string
	ProfilePic   string
	CreatedAt    time.Time
	Roles        []string
	Email        string
	PhoneNumber  *string
	TelegramUser *string
	Address      *AddressView
}

// PublicProfile is what other users see on /user/profile.
type PublicProfile struct {
	User  UserProfile
	Posts []PostCard
}

// EditProfileData pre-fills the edit profile form.
type EditProfileData struct {
	Form       EditProfileRequest
	ProfilePic string
}
