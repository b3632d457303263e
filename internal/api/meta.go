package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

// GET /api/meta/catalogs — все справочники: топливо, кузов, коробка, состояние, воеводства, оборудование.
func (h *Handlers) Catalogs(c *gin.Context) {
	out := make(gin.H, len(h.Catalog))
	for _, name := range h.Catalog.Names() {
		out[name] = h.Catalog[name]
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) CatalogByName(c *gin.Context) {
	name := c.Param("name")
	dir, ok := h.Catalog[name]
	if !ok {
		abort(c, http.StatusNotFound, CodeNotFound, "Catalog not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":   name,
		"title":  dir.Title,
		"items":  dir.Items,
		"groups": dir.Groups(),
	})
}
