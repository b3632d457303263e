// api/router.go
package api

import (
	"net/http"

	"busydostawcze/internal/reference"
	"busydostawcze/internal/store"

	"github.com/gin-gonic/gin"
)

// Handlers — зависимости гейтвея; одно значение на процесс.
type Handlers struct {
	Store         store.Store
	Blob          BlobStore // nil — загрузка фото выключена
	Catalog       reference.Catalog
	AdminCode     string
	ListingsLimit int
	MaxUploadSize int64
}

const (
	defaultListingsLimit = 60
	adminListLimit       = 1000
	defaultMaxUpload     = 10 << 20
)

// Register вешает /api на движок.
func Register(r gin.IRouter, h *Handlers) {
	if h.ListingsLimit <= 0 {
		h.ListingsLimit = defaultListingsLimit
	}
	if h.MaxUploadSize <= 0 {
		h.MaxUploadSize = defaultMaxUpload
	}
	if h.Catalog == nil {
		h.Catalog = reference.Default()
	}
	admin := h.RequireAdmin()

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		// служебные — СНАЧАЛА
		apiGroup.GET("/stats", h.Stats)
		apiGroup.GET("/meta/catalogs", h.Catalogs)
		apiGroup.GET("/meta/catalogs/:name", h.CatalogByName)

		// объявления
		apiGroup.GET("/listings", h.ListListings)
		apiGroup.GET("/listings/:id", h.GetListing)
		apiGroup.POST("/listings", admin, h.CreateListing)
		apiGroup.PATCH("/listings/:id", admin, h.UpdateListing)
		apiGroup.DELETE("/listings/:id", admin, h.DeleteListing)

		// react-admin
		apiGroup.GET("/ads", h.ListAds)
		apiGroup.GET("/ads/:id", h.GetAd)

		// отзывы
		apiGroup.GET("/reviews", h.ListReviews)
		apiGroup.GET("/reviews/:id", h.GetReview)
		apiGroup.POST("/reviews", admin, h.CreateReview)
		apiGroup.PATCH("/reviews/:id", admin, h.UpdateReview)
		apiGroup.DELETE("/reviews/:id", admin, h.DeleteReview)

		// фото
		apiGroup.POST("/uploads", admin, h.Upload)
		apiGroup.DELETE("/uploads/*key", admin, h.DeleteUpload)
	}
}
