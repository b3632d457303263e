package api

import (
	"errors"
	"log"
	"net/http"
	"sort"

	"busydostawcze/internal/store"

	"github.com/gin-gonic/gin"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок в теле ответа
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeNotFound      = "not_found"
	CodeValidation    = "validation"
	CodeNotConfigured = "not_configured"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal"

	// коды отдельных полей
	FieldInvalid = "invalid"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

// abort пишет {error, code, errors?} и прерывает цепочку.
func abort(c *gin.Context, status int, code, msg string, fields ...FieldError) {
	body := gin.H{"error": msg, "code": code}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

// respondError переводит ошибки хранилища в HTTP.
func respondError(c *gin.Context, err error) {
	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve):
		abort(c, http.StatusUnprocessableEntity, CodeValidation, "validation failed", validationFields(ve)...)
	case errors.Is(err, store.ErrNotFound):
		abort(c, http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, store.ErrNotConfigured):
		abort(c, http.StatusInternalServerError, CodeNotConfigured, "store not configured")
	case errors.Is(err, store.ErrUnavailable):
		log.Printf("store unavailable: %v", err)
		abort(c, http.StatusInternalServerError, CodeUnavailable, err.Error())
	default:
		log.Printf("internal error: %v", err)
		abort(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

func validationFields(ve *store.ValidationError) []FieldError {
	if len(ve.Fields) == 0 {
		return []FieldError{ferr(FieldInvalid, "", ve.Message)}
	}
	keys := make([]string, 0, len(ve.Fields))
	for k := range ve.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]FieldError, 0, len(keys))
	for _, k := range keys {
		out = append(out, ferr(FieldInvalid, k, ve.Fields[k]))
	}
	return out
}

func notFound(c *gin.Context) {
	abort(c, http.StatusNotFound, CodeNotFound, "not found")
}
