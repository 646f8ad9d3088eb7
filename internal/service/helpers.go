package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
	"flea/internal/repository"
	"flea/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("999999.99")
)

const msgInvalidPrice = "El precio debe estar entre 0.01 y 999,999.99"

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// internal passes classified errors through untouched and logs anything
// else, replacing it with msg.
func internal(err error, msg string) error {
	var ae *apperror.Error
	var ve *apperror.ValidationError
	if errors.As(err, &ae) || errors.As(err, &ve) {
		return err
	}
	log.Error().Err(err).Msg(msg)
	return apperror.Internal(msg, err)
}

// duplicateAs maps a unique-constraint violation from a single write to a
// business error with msg. Other errors pass through.
func duplicateAs(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Business(msg)
	}
	return err
}

// ParsePrice parses a form price and enforces the accepted range.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	p, err := decimal.NewFromString(raw)
	if err != nil || p.LessThan(minPrice) || p.GreaterThan(maxPrice) {
		return decimal.Zero, false
	}
	return p.Round(2), true
}

// parseIDs parses and de-duplicates ids, preserving order.
func parseIDs(raw []string) ([]uuid.UUID, bool) {
	seen := make(map[uuid.UUID]bool, len(raw))
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, false
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, true
}

// truncate cuts s to n runes and appends "..." when it was longer.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

// normalizeTelegram trims the handle and drops a leading "@".
func normalizeTelegram(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// optional returns nil for blank strings.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func toAuthUser(u *model.User) *dto.AuthUser {
	return &dto.AuthUser{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		ProfilePic: u.ProfilePic,
		Roles:      u.RoleNames(),
	}
}

func toCategoryView(c model.Category) dto.CategoryView {
	return dto.CategoryView{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func toCategoryViews(cats []model.Category) []dto.CategoryView {
	out := make([]dto.CategoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryView(c))
	}
	return out
}

// toCards builds listing cards, resolving each product's first image in a
// single query.
func toCards(ctx context.Context, store repository.Store, rows []model.PostListing) ([]dto.PostCard, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ProductID)
	}
	firstImages, err := store.Images().FirstForProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	cards := make([]dto.PostCard, 0, len(rows))
	for _, r := range rows {
		img, ok := firstImages[r.ProductID]
		if !ok {
			img = dto.NoImagePath
		}
		cards = append(cards, dto.PostCard{
			ID:               r.PostID,
			ProductID:        r.ProductID,
			Title:            r.Title,
			Description:      truncate(r.Description, dto.DescriptionLength),
			Price:            r.Price,
			Status:           r.Status,
			StatusText:       r.Status.Text(),
			ImagePath:        img,
			CreatedAt:        r.CreatedAt,
			AuthorUsername:   r.AuthorUsername,
			AuthorProfilePic: r.AuthorProfilePic,
		})
	}
	return cards, nil
}

// removeFiles deletes uploaded files, never the shared defaults.
func removeFiles(uploads storage.FileUploadService, paths []string) {
	for _, p := range paths {
		if p == "" || p == model.DefaultProfilePic || p == dto.NoImagePath {
			continue
		}
		if !uploads.DeleteImage(p) {
			log.Warn().Str("path", p).Msg("file not removed")
		}
	}
}

// loadProfile assembles the user with roles, contact and address.
func loadProfile(ctx context.Context, store repository.Store, u *model.User) (*dto.UserProfile, error) {
	roles, err := store.Roles().ForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	p := &dto.UserProfile{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
		Roles:      u.RoleNames(),
	}
	contact, err := store.Contacts().FindByUserID(ctx, u.ID)
	switch {
	case err == nil:
		p.Email = contact.Email
		p.PhoneNumber = contact.PhoneNumber
		p.TelegramUser = contact.TelegramUser
	case !isNotFound(err):
		return nil, err
	}
	addr, err := store.Addresses().FindByUserID(ctx, u.ID)
	switch {
	case err == nil:
		p.Address = &dto.AddressView{City: addr.City, StateProvince: addr.StateProvince, Country: addr.Country}
	case !isNotFound(err):
		return nil, err
	}
	return p, nil
}
