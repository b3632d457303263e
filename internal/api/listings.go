package api

import (
	"net/http"
	"strings"

	"busydostawcze/internal/model"
	"busydostawcze/internal/store"

	"github.com/gin-gonic/gin"
)

// GET /api/listings — активные, новые сверху, не больше ListingsLimit.
// ?all=1 с кодом админа — все объявления, включая неактивные.
func (h *Handlers) ListListings(c *gin.Context) {
	q := store.ListQuery{ActiveOnly: true, Limit: h.ListingsLimit, Search: c.Query("q")}
	if isTrue(c.Query("all")) && h.isAdmin(c) {
		q.ActiveOnly = false
		q.Limit = adminListLimit
	}
	rows, _, err := h.Store.ListListings(c.Request.Context(), q.Normalize(q.Limit))
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []model.Listing{}
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/listings/:id — неактивное видно только админу.
func (h *Handlers) GetListing(c *gin.Context) {
	l, err := h.Store.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !l.IsActive && !h.isAdmin(c) {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handlers) CreateListing(c *gin.Context) {
	var in model.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	l, err := h.Store.CreateListing(c.Request.Context(), in.ToListing())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *Handlers) UpdateListing(c *gin.Context) {
	var p model.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if cur, ok := p["currency"].(string); ok {
		p["currency"] = strings.ToUpper(strings.TrimSpace(cur))
	}
	l, err := h.Store.UpdateListing(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// DELETE — отсутствующий id тоже 204.
func (h *Handlers) DeleteListing(c *gin.Context) {
	if err := h.Store.DeleteListing(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/stats — {total, active, featured}; featured считаем по всем объявлениям.
func (h *Handlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	counts := []struct {
		key string
		q   store.ListQuery
	}{
		{"total", store.ListQuery{Limit: 1}},
		{"active", store.ListQuery{ActiveOnly: true, Limit: 1}},
		{"featured", store.ListQuery{FeaturedOnly: true, Limit: 1}},
	}
	out := gin.H{}
	for _, it := range counts {
		_, n, err := h.Store.ListListings(ctx, it.q)
		if err != nil {
			respondError(c, err)
			return
		}
		out[it.key] = n
	}
	c.JSON(http.StatusOK, out)
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
