package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flea/internal/apperror"
	"flea/internal/dto"
)

func TestCreateCategory_DerivesSlug(t *testing.T) {
	e := newTestEnv(t)

	c, err := e.categories.Create(e.ctx, dto.CategoryForm{Name: "  Música y Películas "})
	require.NoError(t, err)
	assert.Equal(t, "Música y Películas", c.Name)
	assert.Equal(t, "musica-y-peliculas", c.Slug)

	_, err = e.categories.Create(e.ctx, dto.CategoryForm{Name: "Otra", Slug: "musica-y-peliculas"})
	assert.Equal(t, MsgSlugTaken, apperror.MessageOf(err, ""))

	_, err = e.categories.Create(e.ctx, dto.CategoryForm{Name: "Mala", Slug: "Con Espacios"})
	require.Error(t, err)
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, msgInvalidSlug, ve.Fields["Slug"])

	_, err = e.categories.Create(e.ctx, dto.CategoryForm{Name: "¡¡!!"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "Name")
}

func TestUpdateCategory(t *testing.T) {
	e := newTestEnv(t)
	a := e.category(t, "Autos")
	e.category(t, "Motos")

	err := e.categories.Update(e.ctx, a, dto.CategoryForm{Name: "Autos", Slug: "motos"})
	assert.Equal(t, MsgSlugTakenByOther, apperror.MessageOf(err, ""))

	// keeping its own slug is fine
	require.NoError(t, e.categories.Update(e.ctx, a, dto.CategoryForm{Name: "Autos usados", Slug: "autos"}))
	c, err := e.categories.GetByID(e.ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Autos usados", c.Name)

	err = e.categories.Update(e.ctx, uuid.New(), dto.CategoryForm{Name: "X"})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDeleteCategory_RelinksToFallback(t *testing.T) {
	e := newTestEnv(t)
	author := e.register(t, "ana")
	deportes := e.category(t, "Deportes")
	hogar := e.category(t, "Hogar")
	otros := e.fallbackCategory(t)

	onlyDeportes := e.post(t, author.ID, "Pelota de fútbol", "25", deportes)
	both := e.post(t, author.ID, "Bicicleta fija", "400", deportes, hogar)
	alreadyOtros := e.post(t, author.ID, "Raqueta", "90", deportes, otros)

	require.NoError(t, e.categories.Delete(e.ctx, deportes))

	all, err := e.categories.GetAll(e.ctx)
	require.NoError(t, err)
	for _, c := range all {
		assert.NotEqual(t, deportes, c.ID)
	}

	expect := map[uuid.UUID][]string{
		onlyDeportes: {"otros"},
		both:         {"hogar", "otros"},
		alreadyOtros: {"otros"},
	}
	for postID, want := range expect {
		d, err := e.posts.GetPostDetail(e.ctx, postID, nil)
		require.NoError(t, err)
		var slugs []string
		for _, c := range d.Categories {
			slugs = append(slugs, c.Slug)
		}
		assert.ElementsMatch(t, want, slugs, d.Title)
	}

	res, err := e.posts.SearchPosts(e.ctx, dto.SearchFilter{CategoryID: &otros, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
}

func TestDeleteCategory_Guards(t *testing.T) {
	e := newTestEnv(t)

	err := e.categories.Delete(e.ctx, e.fallbackCategory(t))
	assert.Equal(t, MsgFallbackUndeletable, apperror.MessageOf(err, ""))

	err = e.categories.Delete(e.ctx, uuid.New())
	assert.Equal(t, MsgCategoryMissing, apperror.MessageOf(err, ""))
}

func TestGetTrending(t *testing.T) {
	e := newTestEnv(t)
	author := e.register(t, "ana")
	a := e.category(t, "A")
	b := e.category(t, "B")
	e.category(t, "C")

	e.post(t, author.ID, "Uno", "1", a)
	e.post(t, author.ID, "Dos", "1", b)
	e.post(t, author.ID, "Tres", "1", b)

	top, err := e.categories.GetTrending(e.ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Name)
	assert.EqualValues(t, 2, top[0].PostCount)
	assert.Equal(t, "A", top[1].Name)

	all, err := e.categories.GetTrending(e.ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4, "default limit is five, otros included")
}
