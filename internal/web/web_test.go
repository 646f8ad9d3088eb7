package web

import (
	"bytes"
	"html/template"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flea/internal/dto"
	"flea/internal/model"
)

func render(t *testing.T, tmpl *template.Template, name string, data map[string]any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
	return buf.String()
}

func page(user CurrentUser, extra map[string]any) map[string]any {
	data := map[string]any{
		"Title":       "Prueba",
		"CurrentUser": user,
		"Flashes":     nil,
		"Errors":      map[string]string{},
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func TestTemplates_Parse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{
		"home.html", "login.html", "register.html", "error.html", "accessdenied.html",
		"logout.html",
		"profile.html", "edit_profile.html", "change_password.html",
		"post_details.html", "post_create.html", "post_edit.html", "my_posts.html", "user_profile.html",
		"admin_dashboard.html", "admin_users.html", "admin_user_detail.html", "admin_user_roles.html",
		"admin_posts.html", "admin_categories.html", "admin_category_form.html", "admin_confirm_delete.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestHome_RendersCardsAndPaging(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	card := dto.PostCard{
		ID:             uuid.New(),
		Title:          "Bicicleta rodado 29",
		Description:    "Poco uso",
		Price:          decimal.RequireFromString("1500.5"),
		Status:         model.StatusAvailable,
		StatusText:     "Disponible",
		ImagePath:      dto.NoImagePath,
		CreatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		AuthorUsername: "ana",
	}
	out := render(t, tmpl, "home.html", page(CurrentUser{}, map[string]any{
		"Query":      dto.SearchQuery{Query: "bici"},
		"Categories": []dto.CategoryView{{ID: uuid.New(), Name: "Deportes", Slug: "deportes"}},
		"Trending":   []dto.CategoryCount{{ID: uuid.New(), Name: "Deportes", PostCount: 3}},
		"Result":     &dto.SearchResult{Posts: []dto.PostCard{card}, Total: 3, Page: 2, PageSize: 1, TotalPages: 3},
		"PageURL":    "/?searchTerm=bici&page=",
	}))

	assert.Contains(t, out, "Bicicleta rodado 29")
	assert.Contains(t, out, "$ 1500.50")
	assert.Contains(t, out, "Ingresar")
	assert.Contains(t, out, `value="bici"`)
}

func TestLayout_AdminLinkAndFlashes(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	user := CurrentUser{Authenticated: true, ID: uuid.New(), Username: "mod", Name: "Moderadora", IsModerator: true}
	data := page(user, map[string]any{"Posts": []dto.PostCard{}})
	data["Flashes"] = []struct{ Kind, Message string }{{"success", "Publicación creada"}}
	out := render(t, tmpl, "my_posts.html", data)

	assert.Contains(t, out, "/admin/dashboard")
	assert.Contains(t, out, "alert-success")
	assert.Contains(t, out, "Publicación creada")
	assert.Contains(t, out, "No hay publicaciones.")
}

func TestLogin_FieldErrors(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	data := page(CurrentUser{}, map[string]any{"Form": dto.LoginRequest{Username: "ana"}})
	data["Errors"] = map[string]string{"Password": "La contraseña es requerida"}
	out := render(t, tmpl, "login.html", data)

	assert.Contains(t, out, "La contraseña es requerida")
	assert.Contains(t, out, `value="ana"`)
}

func TestErrorPage_Standalone(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	out := render(t, tmpl, "error.html", map[string]any{
		"Title":     "Error",
		"Message":   "Algo salió mal",
		"RequestID": "abc-123",
	})
	assert.Contains(t, out, "Algo salió mal")
	assert.Contains(t, out, "abc-123")
}

func TestFuncs(t *testing.T) {
	f := Funcs()
	assert.Equal(t, "$ 10.00", f["price"].(func(decimal.Decimal) string)(decimal.NewFromInt(10)))
	assert.Equal(t, "", f["priceInput"].(func(decimal.Decimal) string)(decimal.Zero))
	assert.True(t, f["contains"].(func([]string, string) bool)([]string{"ABC"}, "abc"))
	assert.Equal(t, "secondary", f["statusBadge"].(func(model.ProductStatus) string)(model.StatusSold))
	assert.Equal(t, "danger", f["flashClass"].(func(string) string)("error"))
}
