package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skvorcov/blog_backend/internal/service/search"
	"github.com/skvorcov/blog_backend/internal/util"
)

type SearchHandler struct {
	Search *search.Service
}

func (h *SearchHandler) Handler(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, posts, err := h.Search.Search(c.Request().Context(), q, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "posts": posts})
}
