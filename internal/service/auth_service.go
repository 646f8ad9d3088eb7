package service

import (
	"context"
	"strings"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
	"flea/internal/repository"
	"flea/internal/security"

	"github.com/google/uuid"
)

// User-facing messages shared by the auth and profile flows.
const (
	MsgRegistered         = "Usuario registrado exitosamente"
	MsgLoggedIn           = "Login exitoso"
	MsgUsernameTaken      = "El nombre de usuario ya está en uso"
	MsgEmailTaken         = "El email ya está registrado"
	MsgInvalidCredentials = "Usuario o contraseña incorrectos"
	MsgUserNotFound       = "Usuario no encontrado"
	msgRegisterFailed     = "Error al registrar usuario"
	msgLoginFailed        = "Error al iniciar sesión"
	msgLoadUserFailed     = "Error al cargar el usuario"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthUser, error)
	Login(ctx context.Context, username, password string) (*dto.AuthUser, error)
	GetUserWithRoles(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetFullUserProfile(ctx context.Context, id uuid.UUID) (*dto.UserProfile, error)
	GetByUsername(ctx context.Context, username string) (*dto.UserProfile, error)
}

type authService struct {
	store  repository.Store
	hasher security.PasswordHasher
}

func NewAuthService(store repository.Store, hasher security.PasswordHasher) AuthService {
	return &authService{store: store, hasher: hasher}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthUser, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, apperror.Business(msgRegisterFailed)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, internal(err, msgRegisterFailed)
	}

	var out *dto.AuthUser
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		taken, err := tx.Users().UsernameExists(ctx, username, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Business(MsgUsernameTaken)
		}
		taken, err = tx.Contacts().EmailExists(ctx, email, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Business(MsgEmailTaken)
		}

		user := &model.User{
			Username:     username,
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: hash,
			ProfilePic:   model.DefaultProfilePic,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return duplicateAs(err, MsgUsernameTaken)
		}

		contact := &model.Contact{
			Email:        email,
			PhoneNumber:  optional(req.PhoneNumber),
			TelegramUser: optional(normalizeTelegram(req.TelegramUser)),
			UserID:       user.ID,
		}
		if err := tx.Contacts().Create(ctx, contact); err != nil {
			return duplicateAs(err, MsgEmailTaken)
		}

		if strings.TrimSpace(req.StateProvince) != "" && strings.TrimSpace(req.Country) != "" {
			addr := &model.Address{
				City:          optional(req.City),
				StateProvince: strings.TrimSpace(req.StateProvince),
				Country:       strings.TrimSpace(req.Country),
				UserID:        user.ID,
			}
			if err := tx.Addresses().Create(ctx, addr); err != nil {
				return err
			}
		}

		role, err := tx.Roles().FindByName(ctx, model.RoleUser)
		if err != nil {
			return err
		}
		if err := tx.Roles().Assign(ctx, user.ID, role.ID); err != nil {
			return err
		}
		user.Roles = []model.Role{*role}
		out = toAuthUser(user)
		return nil
	})
	if err != nil {
		return nil, internal(err, msgRegisterFailed)
	}
	return out, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*dto.AuthUser, error) {
	user, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Business(MsgInvalidCredentials)
		}
		return nil, internal(err, msgLoginFailed)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperror.Business(MsgInvalidCredentials)
	}

	roles, err := s.store.Roles().ForUser(ctx, user.ID)
	if err != nil {
		return nil, internal(err, msgLoginFailed)
	}
	user.Roles = roles
	return toAuthUser(user), nil
}

func (s *authService) GetUserWithRoles(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, internal(err, msgLoadUserFailed)
	}
	roles, err := s.store.Roles().ForUser(ctx, id)
	if err != nil {
		return nil, internal(err, msgLoadUserFailed)
	}
	user.Roles = roles
	return user, nil
}

func (s *authService) GetFullUserProfile(ctx context.Context, id uuid.UUID) (*dto.UserProfile, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, internal(err, msgLoadUserFailed)
	}
	p, err := loadProfile(ctx, s.store, user)
	if err != nil {
		return nil, internal(err, msgLoadUserFailed)
	}
	return p, nil
}

func (s *authService) GetByUsername(ctx context.Context, username string) (*dto.UserProfile, error) {
	user, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, internal(err, msgLoadUserFailed)
	}
	p, err := loadProfile(ctx, s.store, user)
	if err != nil {
		return nil, internal(err, msgLoadUserFailed)
	}
	return p, nil
}
