package handler

import (
	"net/http"
	"net/url"

	"flea/internal/dto"
	"flea/internal/service"

	"github.com/gin-gonic/gin"
)

const trendingLimit = 5

type HomeHandler struct {
	posts      service.PostService
	categories service.CategoryService
}

func NewHomeHandler(posts service.PostService, categories service.CategoryService) *HomeHandler {
	return &HomeHandler{posts: posts, categories: categories}
}

// Index lists posts matching the query string filters.
func (h *HomeHandler) Index(c *gin.Context) {
	var q dto.SearchQuery
	// Unparseable values (page=abc) fall back to defaults.
	_ = c.ShouldBindQuery(&q)

	ctx := c.Request.Context()
	result, err := h.posts.SearchPosts(ctx, q.Filter())
	if err != nil {
		_ = c.Error(err)
		return
	}
	categories, err := h.categories.GetAll(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	trending, err := h.categories.GetTrending(ctx, trendingLimit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	render(c, http.StatusOK, "home.html", gin.H{
		"Title":      "Inicio",
		"Query":      q,
		"Categories": categories,
		"Trending":   trending,
		"Result":     result,
		"PageURL":    pageURL(c.Request.URL.Query()),
	})
}

// pageURL keeps the current filters and leaves the page number to append.
func pageURL(query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		if k == "page" {
			continue
		}
		for _, s := range v {
			if s != "" {
				q.Add(k, s)
			}
		}
	}
	if enc := q.Encode(); enc != "" {
		return "/?" + enc + "&page="
	}
	return "/?page="
}
