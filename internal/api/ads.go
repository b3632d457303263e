package api

import (
	"fmt"
	"net/http"
	"strconv"

	"busydostawcze/internal/model"

	"github.com/gin-gonic/gin"
)

// GET /api/ads?filter&sort&range — короткая форма для react-admin.
// Content-Range: ads <start>-<end>/<total>.
func (h *Handlers) ListAds(c *gin.Context) {
	lp := parseListParams(c.Request.URL.Query())
	sq := lp.toStoreQuery(h.isAdmin(c))

	rows, total, err := h.Store.ListListings(c.Request.Context(), sq)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]model.Ad, 0, len(rows))
	for _, l := range rows {
		out = append(out, l.Ad())
	}

	cr := fmt.Sprintf("ads */%d", total)
	if len(out) > 0 {
		cr = fmt.Sprintf("ads %d-%d/%d", sq.Offset, sq.Offset+len(out)-1, total)
	}
	c.Header("Content-Range", cr)
	c.Header("X-Total-Count", strconv.Itoa(total))
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) GetAd(c *gin.Context) {
	l, err := h.Store.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !l.IsActive && !h.isAdmin(c) {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, l.Ad())
}
