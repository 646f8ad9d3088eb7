package handler

import (
	"net/http"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/service"
	"flea/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const pathMyPosts = "/posts/myposts"

type PostsHandler struct {
	posts      service.PostService
	categories service.CategoryService
}

func NewPostsHandler(posts service.PostService, categories service.CategoryService) *PostsHandler {
	return &PostsHandler{posts: posts, categories: categories}
}

func detailsPath(id uuid.UUID) string { return "/posts/details/" + id.String() }

func (h *PostsHandler) Details(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathHome, session.FlashError, service.MsgPostNotFound)
		return
	}
	var viewer *uuid.UUID
	if uid, ok := session.From(c).UserID(); ok {
		viewer = &uid
	}

	post, err := h.posts.GetPostDetail(c.Request.Context(), id, viewer)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if post == nil {
		redirectWith(c, pathHome, session.FlashError, service.MsgPostNotFound)
		return
	}
	render(c, http.StatusOK, "post_details.html", gin.H{"Title": post.Title, "Post": post})
}

func (h *PostsHandler) CreatePage(c *gin.Context) {
	h.renderCreate(c, dto.CreatePostRequest{}, nil)
}

func (h *PostsHandler) renderCreate(c *gin.Context, form dto.CreatePostRequest, errs map[string]string) {
	categories, err := h.categories.GetAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	form.Images = nil
	render(c, http.StatusOK, "post_create.html", gin.H{
		"Title":      "Nueva publicación",
		"Form":       form,
		"Categories": categories,
		"Errors":     errs,
	})
}

func (h *PostsHandler) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if errs := bindForm(c, &req); len(errs) > 0 {
		h.renderCreate(c, req, errs)
		return
	}

	id, err := h.posts.CreatePost(c.Request.Context(), req, mustUserID(c))
	if err != nil {
		if errs, ok := formFailure(err); ok {
			h.renderCreate(c, req, errs)
			return
		}
		_ = c.Error(err)
		return
	}
	redirectWith(c, detailsPath(id), session.FlashSuccess, service.MsgPostCreated)
}

func (h *PostsHandler) EditPage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathMyPosts, session.FlashError, service.MsgPostNotFound)
		return
	}
	data, ok := h.loadEditData(c, id)
	if !ok {
		return
	}
	form := dto.UpdatePostRequest{
		PostID:      data.PostID,
		Title:       data.Title,
		Description: data.Description,
		Price:       data.Price.StringFixed(2),
		Status:      string(data.Status),
	}
	for _, cid := range data.SelectedCategoryIDs {
		form.CategoryIDs = append(form.CategoryIDs, cid.String())
	}
	renderEdit(c, form, data, nil)
}

func (h *PostsHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathMyPosts, session.FlashError, service.MsgPostNotFound)
		return
	}
	var req dto.UpdatePostRequest
	errs := bindForm(c, &req)
	req.PostID = id
	if len(errs) == 0 {
		err := h.posts.UpdatePost(c.Request.Context(), req, mustUserID(c))
		if err == nil {
			redirectWith(c, detailsPath(id), session.FlashSuccess, service.MsgPostUpdated)
			return
		}
		var handled bool
		if errs, handled = formFailure(err); !handled {
			failTo(c, pathMyPosts, err)
			return
		}
	}

	data, ok := h.loadEditData(c, id)
	if !ok {
		return
	}
	renderEdit(c, req, data, errs)
}

// loadEditData fetches the edit form data, redirecting when the post is
// missing or not owned by the current user.
func (h *PostsHandler) loadEditData(c *gin.Context, id uuid.UUID) (*dto.EditPostData, bool) {
	data, err := h.posts.GetEditPostData(c.Request.Context(), id, mustUserID(c))
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	if data == nil {
		redirectWith(c, pathMyPosts, session.FlashError, service.MsgNoEditPermission)
		return nil, false
	}
	return data, true
}

func renderEdit(c *gin.Context, form dto.UpdatePostRequest, data *dto.EditPostData, errs map[string]string) {
	form.NewImages = nil
	render(c, http.StatusOK, "post_edit.html", gin.H{
		"Title":  "Editar publicación",
		"Form":   form,
		"Data":   data,
		"Errors": errs,
	})
}

func (h *PostsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		redirectWith(c, pathMyPosts, session.FlashError, service.MsgPostNotFound)
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), id, mustUserID(c)); err != nil {
		target := pathMyPosts
		if apperror.KindOf(err) == apperror.KindForbidden {
			target = detailsPath(id)
		}
		failTo(c, target, err)
		return
	}
	redirectWith(c, pathMyPosts, session.FlashSuccess, service.MsgPostDeleted)
}

func (h *PostsHandler) MyPosts(c *gin.Context) {
	posts, err := h.posts.GetUserPosts(c.Request.Context(), mustUserID(c), dto.UserPostsLimit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "my_posts.html", gin.H{"Title": "Mis publicaciones", "Posts": posts})
}
