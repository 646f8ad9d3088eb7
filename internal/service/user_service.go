package service

import (
	"context"
	"mime/multipart"
	"strings"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
	"flea/internal/repository"
	"flea/internal/security"
	"flea/internal/storage"

	"github.com/google/uuid"
)

const (
	MsgProfileUpdated       = "Perfil actualizado exitosamente"
	MsgPasswordChanged      = "Contraseña actualizada exitosamente"
	MsgWrongPassword        = "La contraseña actual es incorrecta"
	MsgProfilePicUpdated    = "Foto de perfil actualizada"
	MsgAccountDeleted       = "Tu cuenta ha sido eliminada"
	msgUpdateProfileFailed  = "Error al actualizar perfil"
	msgChangePasswordFailed = "Error al actualizar contraseña"
	msgProfilePicFailed     = "Error al actualizar foto de perfil"
	msgDeleteUserFailed     = "Error al eliminar el usuario"
)

type UserService interface {
	GetEditProfileData(ctx context.Context, userID uuid.UUID) (*dto.EditProfileData, error)
	// UpdateProfile returns the refreshed identity for the session.
	UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.EditProfileRequest) (*dto.AuthUser, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	UpdateProfilePicture(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error)
	// DeleteUser removes the user and everything they own. Deleting a missing
	// user succeeds.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	// GetPublicProfile resolves key as a user id first, then as a username.
	GetPublicProfile(ctx context.Context, key string) (*dto.PublicProfile, error)
}

type userService struct {
	store   repository.Store
	hasher  security.PasswordHasher
	uploads storage.FileUploadService
	auth    AuthService
	posts   PostService
}

func NewUserService(store repository.Store, hasher security.PasswordHasher, uploads storage.FileUploadService, auth AuthService, posts PostService) UserService {
	return &userService{store: store, hasher: hasher, uploads: uploads, auth: auth, posts: posts}
}

func (s *userService) GetEditProfileData(ctx context.Context, userID uuid.UUID) (*dto.EditProfileData, error) {
	p, err := s.auth.GetFullUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	form := dto.EditProfileRequest{
		Username: p.Username,
		Name:     p.Name,
		Email:    p.Email,
	}
	if p.PhoneNumber != nil {
		form.PhoneNumber = *p.PhoneNumber
	}
	if p.TelegramUser != nil {
		form.TelegramUser = *p.TelegramUser
	}
	if p.Address != nil {
		if p.Address.City != nil {
			form.City = *p.Address.City
		}
		form.StateProvince = p.Address.StateProvince
		form.Country = p.Address.Country
	}
	return &dto.EditProfileData{Form: form, ProfilePic: p.ProfilePic}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.EditProfileRequest) (*dto.AuthUser, error) {
	email := strings.TrimSpace(req.Email)
	newUsername := strings.TrimSpace(req.Username)

	var out *dto.AuthUser
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return apperror.NotFound(MsgUserNotFound)
			}
			return err
		}

		if newUsername != "" && newUsername != user.Username {
			taken, err := tx.Users().UsernameExists(ctx, newUsername, userID)
			if err != nil {
				return err
			}
			if taken {
				return apperror.Business(MsgUsernameTaken)
			}
			if err := tx.Users().UpdateUsername(ctx, userID, newUsername); err != nil {
				return duplicateAs(err, MsgUsernameTaken)
			}
			user.Username = newUsername
		}

		if email != "" {
			taken, err := tx.Contacts().EmailExists(ctx, email, userID)
			if err != nil {
				return err
			}
			if taken {
				return apperror.Business(MsgEmailTaken)
			}
		}

		if name := strings.TrimSpace(req.Name); name != "" && name != user.Name {
			if err := tx.Users().UpdateName(ctx, userID, name); err != nil {
				return err
			}
			user.Name = name
		}

		contact, err := tx.Contacts().FindByUserID(ctx, userID)
		switch {
		case isNotFound(err):
			contact = &model.Contact{UserID: userID, Email: email}
			contact.PhoneNumber = optional(req.PhoneNumber)
			contact.TelegramUser = optional(normalizeTelegram(req.TelegramUser))
			if err := tx.Contacts().Create(ctx, contact); err != nil {
				return duplicateAs(err, MsgEmailTaken)
			}
		case err != nil:
			return err
		default:
			if email != "" {
				contact.Email = email
			}
			contact.PhoneNumber = optional(req.PhoneNumber)
			contact.TelegramUser = optional(normalizeTelegram(req.TelegramUser))
			if err := tx.Contacts().Update(ctx, contact); err != nil {
				return duplicateAs(err, MsgEmailTaken)
			}
		}

		state := strings.TrimSpace(req.StateProvince)
		country := strings.TrimSpace(req.Country)
		if state != "" && country != "" {
			addr := &model.Address{
				City:          optional(req.City),
				StateProvince: state,
				Country:       country,
				UserID:        userID,
			}
			if err := tx.Addresses().Upsert(ctx, addr); err != nil {
				return err
			}
		}

		roles, err := tx.Roles().ForUser(ctx, userID)
		if err != nil {
			return err
		}
		user.Roles = roles
		out = toAuthUser(user)
		return nil
	})
	if err != nil {
		return nil, internal(err, msgUpdateProfileFailed)
	}
	return out, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return apperror.NotFound(MsgUserNotFound)
		}
		return internal(err, msgChangePasswordFailed)
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return apperror.Business(MsgWrongPassword)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return internal(err, msgChangePasswordFailed)
	}
	if err := s.store.Users().UpdatePassword(ctx, userID, hash); err != nil {
		return internal(err, msgChangePasswordFailed)
	}
	return nil
}

func (s *userService) UpdateProfilePicture(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return "", apperror.NotFound(MsgUserNotFound)
		}
		return "", internal(err, msgProfilePicFailed)
	}

	newPath, err := s.uploads.UploadImage(file, storage.FolderProfiles)
	if err != nil {
		return "", apperror.Business(err.Error())
	}
	if err := s.store.Users().UpdateProfilePic(ctx, userID, newPath); err != nil {
		removeFiles(s.uploads, []string{newPath})
		return "", internal(err, msgProfilePicFailed)
	}
	if user.ProfilePic != newPath {
		removeFiles(s.uploads, []string{user.ProfilePic})
	}
	return newPath, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	var files []string
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		posts, err := tx.Posts().FindByAuthor(ctx, userID)
		if err != nil {
			return err
		}
		for i := range posts {
			paths, err := purgePost(ctx, tx, &posts[i])
			if err != nil {
				return err
			}
			files = append(files, paths...)
		}

		if err := tx.Roles().RemoveAllForUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.Addresses().DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		if err := tx.Contacts().DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		if err := tx.Users().Delete(ctx, userID); err != nil {
			return err
		}
		files = append(files, user.ProfilePic)
		return nil
	})
	if err != nil {
		return internal(err, msgDeleteUserFailed)
	}
	removeFiles(s.uploads, files)
	return nil
}

func (s *userService) GetPublicProfile(ctx context.Context, key string) (*dto.PublicProfile, error) {
	var (
		p   *dto.UserProfile
		err error
	)
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		p, err = s.auth.GetFullUserProfile(ctx, id)
	} else {
		p, err = s.auth.GetByUsername(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.GetUserPosts(ctx, p.ID, dto.UserPostsLimit)
	if err != nil {
		return nil, err
	}
	return &dto.PublicProfile{User: *p, Posts: posts}, nil
}
