package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminHeader — заголовок с кодом админа для мутаций.
const AdminHeader = "x-admin-code"

// codeMatches — сравнение за постоянное время; пустой настроенный код не совпадает ни с чем.
func codeMatches(configured, given string) bool {
	if configured == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(given)) == 1
}

func (h *Handlers) isAdmin(c *gin.Context) bool {
	return codeMatches(h.AdminCode, strings.TrimSpace(c.GetHeader(AdminHeader)))
}

// RequireAdmin закрывает мутации: без настроенного кода — 500, с неверным — 401.
func (h *Handlers) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.AdminCode == "" {
			abort(c, http.StatusInternalServerError, CodeNotConfigured, "admin code not configured")
			return
		}
		if !h.isAdmin(c) {
			abort(c, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
			return
		}
		c.Next()
	}
}
