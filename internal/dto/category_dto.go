package dto

import "github.com/google/uuid"

type CategoryForm struct {
	Name string `form:"name" validate:"required,max=100"`
	Slug string `form:"slug" validate:"omitempty,min=2,max=100,slug"`
}

func (CategoryForm) ValidationMessages() map[string]string {
	return map[string]string{
		"Name.required": "El nombre es requerido",
		"Name.max":      "El nombre no puede exceder 100 caracteres",
		"Slug.min":      "El slug debe tener entre 2 y 100 caracteres",
		"Slug.max":      "El slug debe tener entre 2 y 100 caracteres",
		"Slug.slug":     "El slug solo puede contener letras minúsculas, números y guiones",
	}
}

type CategoryView struct {
	ID   uuid.UUID
	Name string
	Slug string
}

// CategoryCount is a category with the number of products linked to it.
type CategoryCount struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	PostCount int64
}
