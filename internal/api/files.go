package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// допустимые типы фото
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// POST /api/uploads — multipart "file"; ответ {url, key, size, sha256}.
func (h *Handlers) Upload(c *gin.Context) {
	if h.Blob == nil {
		abort(c, http.StatusInternalServerError, CodeNotConfigured, "blob store not configured")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize+1<<20)

	file, hdr, err := c.Request.FormFile("file")
	if err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, "multipart file not found (field name 'file')")
		return
	}
	defer file.Close()

	if hdr.Size > h.MaxUploadSize {
		abort(c, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("file too large (max %d MB)", h.MaxUploadSize>>20),
			ferr(FieldInvalid, "file", "Plik jest za duży"))
		return
	}

	// 1) тип определяем по содержимому, а не по имени
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	ctype := http.DetectContentType(head[:n])
	ext, ok := imageExt[ctype]
	if !ok {
		abort(c, http.StatusBadRequest, CodeBadRequest, "only images are accepted",
			ferr(FieldInvalid, "file", "Dozwolone są tylko zdjęcia (jpg, png, webp, gif)"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondError(c, err)
		return
	}

	// 2) ключ YYYY/MM/<uuid><ext>
	now := time.Now().UTC()
	key := fmt.Sprintf("%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	b, err := h.Blob.Put(c.Request.Context(), key, ctype, file)
	if err != nil {
		log.Printf("upload %s (%s): %v", safeName(hdr), key, err)
		abort(c, http.StatusInternalServerError, CodeUnavailable, "store error: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, b)
}

// DELETE /api/uploads/*key
func (h *Handlers) DeleteUpload(c *gin.Context) {
	if h.Blob == nil {
		abort(c, http.StatusInternalServerError, CodeNotConfigured, "blob store not configured")
		return
	}
	err := h.Blob.Delete(c.Request.Context(), strings.TrimPrefix(c.Param("key"), "/"))
	switch {
	case errors.Is(err, errBadKey):
		abort(c, http.StatusBadRequest, CodeBadRequest, "invalid key")
	case err != nil:
		abort(c, http.StatusInternalServerError, CodeUnavailable, err.Error())
	default:
		c.Status(http.StatusNoContent)
	}
}

func safeName(h *multipart.FileHeader) string {
	name := strings.TrimSpace(filepath.Base(h.Filename))
	if name == "" || name == "." {
		return "file"
	}
	return name
}
