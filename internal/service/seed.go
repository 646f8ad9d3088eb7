package service

import (
	"context"
	"strings"

	"flea/internal/apperror"
	"flea/internal/model"
	"flea/internal/repository"
	"flea/internal/security"
)

const msgSeedAdminFailed = "Error al crear el administrador"

// SeedAdmin creates username as an administrator, or grants Admin (and User)
// to an existing account. password and email are only used on creation.
// created reports whether a new account was inserted.
func SeedAdmin(ctx context.Context, store repository.Store, hasher security.PasswordHasher, username, password, email string) (created bool, err error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return false, apperror.NewValidation(map[string]string{"Username": "El nombre de usuario es requerido"})
	}

	err = store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByUsername(ctx, username)
		switch {
		case isNotFound(err):
			if password == "" || email == "" {
				return apperror.NewValidation(map[string]string{
					"Password": "La contraseña y el email son requeridos para crear el usuario",
				})
			}
			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			user = &model.User{
				Username:     username,
				Name:         username,
				PasswordHash: hash,
				ProfilePic:   model.DefaultProfilePic,
			}
			if err := tx.Users().Create(ctx, user); err != nil {
				return err
			}
			if err := tx.Contacts().Create(ctx, &model.Contact{Email: email, UserID: user.ID}); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		}

		for _, name := range []string{model.RoleUser, model.RoleAdmin} {
			role, err := tx.Roles().FindByName(ctx, name)
			if err != nil {
				return err
			}
			if err := tx.Roles().Assign(ctx, user.ID, role.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, internal(err, msgSeedAdminFailed)
	}
	return created, nil
}
