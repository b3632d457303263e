package api

import (
	"net/http"

	"busydostawcze/internal/model"
	"busydostawcze/internal/store"

	"github.com/gin-gonic/gin"
)

// GET /api/reviews — видимые; админу все.
func (h *Handlers) ListReviews(c *gin.Context) {
	rows, err := h.Store.ListReviews(c.Request.Context(), store.ReviewQuery{VisibleOnly: !h.isAdmin(c)})
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []model.Review{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handlers) GetReview(c *gin.Context) {
	r, err := h.Store.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !r.Visible && !h.isAdmin(c) {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handlers) CreateReview(c *gin.Context) {
	var in model.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	r, err := h.Store.CreateReview(c.Request.Context(), in.ToReview())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handlers) UpdateReview(c *gin.Context) {
	var p model.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	r, err := h.Store.UpdateReview(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handlers) DeleteReview(c *gin.Context) {
	if err := h.Store.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
