package handler

import (
	"context"
	"fmt"
	"net/http"

	"flea/internal/dto"
	"flea/internal/service"
	"flea/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	pathAdminUsers      = "/admin/users"
	pathAdminPosts      = "/admin/posts"
	pathAdminCategories = "/admin/categories"
)

type AdminHandler struct{ svc service.AdminService }

func NewAdminHandler(svc service.AdminService) *AdminHandler { return &AdminHandler{svc: svc} }

func adminUserPath(id uuid.UUID) string { return pathAdminUsers + "/" + id.String() }

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.svc.GetDashboardStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "admin_dashboard.html", gin.H{"Title": "Dashboard", "Stats": stats})
}

// ── Users ────────────────────────────────────────────────────────────────────

func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "admin_users.html", gin.H{"Title": "Usuarios", "Users": users})
}

func (h *AdminHandler) UserDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminUsers, session.FlashError, msgInvalidID)
		return
	}
	detail, err := h.svc.GetUserDetail(c.Request.Context(), id)
	if err != nil {
		failTo(c, pathAdminUsers, err)
		return
	}
	render(c, http.StatusOK, "admin_user_detail.html", gin.H{"Title": detail.Profile.Username, "Detail": detail})
}

func (h *AdminHandler) UserRoles(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminUsers, session.FlashError, msgInvalidID)
		return
	}
	roles, err := h.svc.GetUserRoles(c.Request.Context(), id)
	if err != nil {
		failTo(c, pathAdminUsers, err)
		return
	}
	render(c, http.StatusOK, "admin_user_roles.html", gin.H{"Title": "Roles", "Roles": roles})
}

func (h *AdminHandler) AssignRole(c *gin.Context) {
	h.changeRole(c, h.svc.AssignRole, service.MsgRoleAssigned)
}

func (h *AdminHandler) RemoveRole(c *gin.Context) {
	h.changeRole(c, h.svc.RemoveRole, service.MsgRoleRemoved)
}

func (h *AdminHandler) changeRole(c *gin.Context, apply func(context.Context, uuid.UUID, uuid.UUID) error, success string) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminUsers, session.FlashError, msgInvalidID)
		return
	}
	target := adminUserPath(id) + "/roles"

	var req dto.RoleChangeRequest
	if errs := bindForm(c, &req); len(errs) > 0 {
		redirectWith(c, target, session.FlashError, firstMessage(errs))
		return
	}
	roleID, _ := uuid.Parse(req.RoleID)
	if err := apply(c.Request.Context(), id, roleID); err != nil {
		failTo(c, target, err)
		return
	}
	redirectWith(c, target, session.FlashSuccess, success)
}

func (h *AdminHandler) DeleteUserPage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminUsers, session.FlashError, msgInvalidID)
		return
	}
	detail, err := h.svc.GetUserDetail(c.Request.Context(), id)
	if err != nil {
		failTo(c, pathAdminUsers, err)
		return
	}
	confirmDelete(c, "Eliminar usuario",
		fmt.Sprintf("Se eliminará al usuario %s y sus %d publicaciones. Esta acción no se puede deshacer.",
			detail.Profile.Username, len(detail.Posts)),
		adminUserPath(id)+"/delete", adminUserPath(id))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminUsers, session.FlashError, msgInvalidID)
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), mustUserID(c), id); err != nil {
		failTo(c, pathAdminUsers, err)
		return
	}
	redirectWith(c, pathAdminUsers, session.FlashSuccess, service.MsgUserDeleted)
}

// ── Posts ────────────────────────────────────────────────────────────────────

func (h *AdminHandler) Posts(c *gin.Context) {
	posts, err := h.svc.ListPosts(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "admin_posts.html", gin.H{"Title": "Publicaciones", "Posts": posts})
}

func (h *AdminHandler) DeletePostPage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminPosts, session.FlashError, service.MsgAdminPostNotFound)
		return
	}
	post, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		failTo(c, pathAdminPosts, err)
		return
	}
	confirmDelete(c, "Eliminar publicación",
		fmt.Sprintf("Se eliminará la publicación \"%s\" de %s junto con sus imágenes.", post.Title, post.AuthorUsername),
		pathAdminPosts+"/"+id.String()+"/delete", pathAdminPosts)
}

func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminPosts, session.FlashError, service.MsgAdminPostNotFound)
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), id); err != nil {
		failTo(c, pathAdminPosts, err)
		return
	}
	redirectWith(c, pathAdminPosts, session.FlashSuccess, service.MsgAdminPostDeleted)
}

// ── Categories ───────────────────────────────────────────────────────────────

func (h *AdminHandler) Categories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "admin_categories.html", gin.H{"Title": "Categorías", "Categories": categories})
}

func categoryForm(c *gin.Context, title, action string, form dto.CategoryForm, errs map[string]string) {
	render(c, http.StatusOK, "admin_category_form.html", gin.H{
		"Title":  title,
		"Action": action,
		"Form":   form,
		"Errors": errs,
	})
}

func (h *AdminHandler) CreateCategoryPage(c *gin.Context) {
	categoryForm(c, "Nueva categoría", pathAdminCategories+"/create", dto.CategoryForm{}, nil)
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryForm
	page := func(errs map[string]string) {
		categoryForm(c, "Nueva categoría", pathAdminCategories+"/create", req, errs)
	}
	if errs := bindForm(c, &req); len(errs) > 0 {
		page(errs)
		return
	}
	if _, err := h.svc.CreateCategory(c.Request.Context(), req); err != nil {
		if errs, ok := formFailure(err); ok {
			page(errs)
			return
		}
		failTo(c, pathAdminCategories, err)
		return
	}
	redirectWith(c, pathAdminCategories, session.FlashSuccess, service.MsgCategoryCreated)
}

func (h *AdminHandler) EditCategoryPage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminCategories, session.FlashError, service.MsgCategoryNotFound)
		return
	}
	cat, err := h.svc.GetCategory(c.Request.Context(), id)
	if err != nil {
		failTo(c, pathAdminCategories, err)
		return
	}
	categoryForm(c, "Editar categoría", pathAdminCategories+"/"+id.String()+"/edit",
		dto.CategoryForm{Name: cat.Name, Slug: cat.Slug}, nil)
}

func (h *AdminHandler) EditCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminCategories, session.FlashError, service.MsgCategoryNotFound)
		return
	}
	var req dto.CategoryForm
	page := func(errs map[string]string) {
		categoryForm(c, "Editar categoría", pathAdminCategories+"/"+id.String()+"/edit", req, errs)
	}
	if errs := bindForm(c, &req); len(errs) > 0 {
		page(errs)
		return
	}
	if err := h.svc.UpdateCategory(c.Request.Context(), id, req); err != nil {
		if errs, ok := formFailure(err); ok {
			page(errs)
			return
		}
		failTo(c, pathAdminCategories, err)
		return
	}
	redirectWith(c, pathAdminCategories, session.FlashSuccess, service.MsgCategoryUpdated)
}

func (h *AdminHandler) DeleteCategoryPage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminCategories, session.FlashError, service.MsgCategoryNotFound)
		return
	}
	cat, err := h.svc.GetCategory(c.Request.Context(), id)
	if err != nil {
		failTo(c, pathAdminCategories, err)
		return
	}
	confirmDelete(c, "Eliminar categoría",
		fmt.Sprintf("Se eliminará la categoría \"%s\". Sus productos pasarán a la categoría por defecto.", cat.Name),
		pathAdminCategories+"/"+id.String()+"/delete", pathAdminCategories)
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathAdminCategories, session.FlashError, service.MsgCategoryNotFound)
		return
	}
	if err := h.svc.DeleteCategory(c.Request.Context(), id); err != nil {
		failTo(c, pathAdminCategories, err)
		return
	}
	redirectWith(c, pathAdminCategories, session.FlashSuccess, service.MsgCategoryDeleted)
}

func confirmDelete(c *gin.Context, title, description, action, cancel string) {
	render(c, http.StatusOK, "admin_confirm_delete.html", gin.H{
		"Title":       title,
		"Description": description,
		"Action":      action,
		"Cancel":      cancel,
	})
}

// firstMessage picks a stable message out of a field error map.
func firstMessage(errs map[string]string) string {
	for _, k := range []string{formErrorKey, "RoleID"} {
		if msg, ok := errs[k]; ok {
			return msg
		}
	}
	for _, msg := range errs {
		return msg
	}
	return msgInvalidForm
}
