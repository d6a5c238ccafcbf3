package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skvorcov/blog_backend/internal/auth"
	"github.com/skvorcov/blog_backend/internal/logging"
	"github.com/skvorcov/blog_backend/internal/models"
	"github.com/skvorcov/blog_backend/internal/mykafka"
	"github.com/skvorcov/blog_backend/internal/repo"
	"github.com/skvorcov/blog_backend/internal/service/search"
	"github.com/skvorcov/blog_backend/internal/util"
)

type PostHandler struct {
	Posts    *repo.PostRepo
	Users    *repo.UserRepo
	Producer *mykafka.Producer
	Search   *search.Service
}

func (h *PostHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "post_events", fmt.Sprint(event["postID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *PostHandler) index(c echo.Context, p *models.Post) {
	if err := h.Search.IndexPost(c.Request().Context(), p); err != nil {
		logging.FromContext(c.Request().Context()).Error("post index error", "error", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func paginated(c echo.Context, items interface{}, page, limit, offset int, total int64) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": items,
		"meta": map[string]interface{}{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.HTTPError(auth.ErrNotAuthenticated)
	}

	var req CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := models.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: identity.UserID,
	}
	if err := h.Posts.Create(c.Request().Context(), &post); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot create post")
	}

	h.index(c, &post)
	h.publish(c, map[string]interface{}{
		"type":     "post_created",
		"postID":   post.ID,
		"authorID": post.AuthorID,
		"title":    post.Title,
	})

	return c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	post, err := h.Posts.ByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot load post")
	}

	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) GetPosts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	posts, total, err := h.Posts.List(c.Request().Context(), offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot load posts")
	}

	return paginated(c, posts, page, limit, offset, total)
}

func (h *PostHandler) GetPostsByUser(c echo.Context) error {
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if _, err := h.Users.ByID(c.Request().Context(), uint(userID)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot load user")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	posts, total, err := h.Posts.ListByAuthor(c.Request().Context(), uint(userID), offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot load posts")
	}

	return paginated(c, posts, page, limit, offset, total)
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.HTTPError(auth.ErrNotAuthenticated)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var req UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.Posts.ByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot load post")
	}

	if err := auth.CheckOwnership(post.AuthorID, identity.UserID); err != nil {
		return auth.HTTPError(err)
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}

	if err := h.Posts.Update(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot update post")
	}

	h.index(c, post)
	h.publish(c, map[string]interface{}{
		"type":     "post_updated",
		"postID":   post.ID,
		"authorID": post.AuthorID,
		"title":    post.Title,
	})

	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.HTTPError(auth.ErrNotAuthenticated)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	post, err := h.Posts.ByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot load post")
	}

	if err := auth.CheckOwnership(post.AuthorID, identity.UserID); err != nil {
		return auth.HTTPError(err)
	}

	if err := h.Posts.Delete(c.Request().Context(), post.ID); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot delete post")
	}

	if err := h.Search.DeletePost(c.Request().Context(), post.ID); err != nil {
		logging.FromContext(c.Request().Context()).Error("post index delete error", "error", err)
	}
	h.publish(c, map[string]interface{}{
		"type":     "post_deleted",
		"postID":   post.ID,
		"authorID": post.AuthorID,
	})

	return c.NoContent(http.StatusNoContent)
}
