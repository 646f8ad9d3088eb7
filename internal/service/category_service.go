package service

import (
	"context"
	"errors"
	"strings"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
	"flea/internal/repository"
	"flea/internal/slug"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MsgCategoryCreated      = "Categoría creada correctamente"
	MsgCategoryUpdated      = "Categoría actualizada correctamente"
	MsgCategoryDeleted      = "Categoría eliminada correctamente"
	MsgCategoryNotFound     = "Categoría no encontrada"
	MsgCategoryMissing      = "La categoría no existe"
	MsgSlugTaken            = "Ya existe una categoría con ese slug"
	MsgSlugTakenByOther     = "Ya existe otra categoría con ese slug"
	MsgFallbackUndeletable  = "No se puede eliminar la categoría por defecto"
	msgInvalidCategoryName  = "El nombre de la categoría no genera un slug válido"
	msgInvalidSlug          = "El slug solo puede contener letras minúsculas, números y guiones"
	msgCategoryFailed       = "Error al guardar la categoría"
	msgLoadCategoriesFailed = "Error al cargar las categorías"
)

// CategoryService defines business operations for product categories.
type CategoryService interface {
	GetAll(ctx context.Context) ([]dto.CategoryView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.CategoryView, error)
	GetByProduct(ctx context.Context, productID uuid.UUID) ([]dto.CategoryView, error)
	Create(ctx context.Context, form dto.CategoryForm) (*dto.CategoryView, error)
	Update(ctx context.Context, id uuid.UUID, form dto.CategoryForm) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetTrending(ctx context.Context, limit int) ([]dto.CategoryCount, error)
}

type categoryService struct {
	store repository.Store
}

func NewCategoryService(store repository.Store) CategoryService {
	return &categoryService{store: store}
}

func (s *categoryService) GetAll(ctx context.Context) ([]dto.CategoryView, error) {
	list, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, internal(err, msgLoadCategoriesFailed)
	}
	return toCategoryViews(list), nil
}

func (s *categoryService) GetByID(ctx context.Context, id uuid.UUID) (*dto.CategoryView, error) {
	c, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(MsgCategoryNotFound)
		}
		return nil, internal(err, msgLoadCategoriesFailed)
	}
	v := toCategoryView(*c)
	return &v, nil
}

func (s *categoryService) GetByProduct(ctx context.Context, productID uuid.UUID) ([]dto.CategoryView, error) {
	list, err := s.store.Categories().ForProduct(ctx, productID)
	if err != nil {
		return nil, internal(err, msgLoadCategoriesFailed)
	}
	return toCategoryViews(list), nil
}

func (s *categoryService) Create(ctx context.Context, form dto.CategoryForm) (*dto.CategoryView, error) {
	name, key, err := normalizeCategoryForm(form)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.Categories().SlugExists(ctx, key, uuid.Nil)
	if err != nil {
		return nil, internal(err, msgCategoryFailed)
	}
	if exists {
		return nil, apperror.Business(MsgSlugTaken)
	}

	c := &model.Category{Name: name, Slug: key}
	if err := s.store.Categories().Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Business(MsgSlugTaken)
		}
		return nil, internal(err, msgCategoryFailed)
	}
	v := toCategoryView(*c)
	return &v, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, form dto.CategoryForm) error {
	c, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return apperror.NotFound(MsgCategoryNotFound)
		}
		return internal(err, msgCategoryFailed)
	}
	name, key, err := normalizeCategoryForm(form)
	if err != nil {
		return err
	}

	inUse, err := s.store.Categories().SlugExists(ctx, key, id)
	if err != nil {
		return internal(err, msgCategoryFailed)
	}
	if inUse {
		return apperror.Business(MsgSlugTakenByOther)
	}

	c.Name = name
	c.Slug = key
	if err := s.store.Categories().Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Business(MsgSlugTakenByOther)
		}
		return internal(err, msgCategoryFailed)
	}
	return nil
}

// Delete moves the category's products to "otros" before removing it.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return apperror.Business(MsgCategoryMissing)
		}
		return internal(err, msgCategoryFailed)
	}
	if c.Slug == model.FallbackCategorySlug {
		return apperror.Business(MsgFallbackUndeletable)
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		fallback, err := tx.Categories().FindBySlug(ctx, model.FallbackCategorySlug)
		if err != nil && !isNotFound(err) {
			return err
		}
		if err == nil {
			productIDs, err := tx.Categories().ProductIDsForCategory(ctx, id)
			if err != nil {
				return err
			}
			for _, pid := range productIDs {
				if err := tx.Categories().AssignToProduct(ctx, pid, fallback.ID); err != nil {
					return err
				}
			}
		}
		if err := tx.Categories().RemoveAllForCategory(ctx, id); err != nil {
			return err
		}
		return tx.Categories().Delete(ctx, id)
	})
	if err != nil {
		return internal(err, msgCategoryFailed)
	}
	return nil
}

func (s *categoryService) GetTrending(ctx context.Context, limit int) ([]dto.CategoryCount, error) {
	if limit < 1 {
		limit = 5
	}
	stats, err := s.store.Categories().Trending(ctx, limit)
	if err != nil {
		return nil, internal(err, msgLoadCategoriesFailed)
	}
	out := make([]dto.CategoryCount, 0, len(stats))
	for _, st := range stats {
		out = append(out, dto.CategoryCount{
			ID:        st.CategoryID,
			Name:      st.CategoryName,
			Slug:      st.CategorySlug,
			PostCount: st.PostCount,
		})
	}
	return out, nil
}

// normalizeCategoryForm trims the name and derives the slug when blank.
func normalizeCategoryForm(form dto.CategoryForm) (string, string, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return "", "", apperror.NewValidation(map[string]string{"Name": "El nombre es requerido"})
	}
	key := strings.TrimSpace(form.Slug)
	if key == "" {
		key = slug.Make(name)
		if !slug.Valid(key) {
			return "", "", apperror.NewValidation(map[string]string{"Name": msgInvalidCategoryName})
		}
	} else if !slug.Valid(key) {
		return "", "", apperror.NewValidation(map[string]string{"Slug": msgInvalidSlug})
	}
	return name, key, nil
}
