package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"busydostawcze/internal/model"
	"busydostawcze/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCode = "tajny-kod"

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	h      *Handlers
}

func newAPI(t *testing.T, s store.Store, code string) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &Handlers{Store: s, AdminCode: code}
	r := gin.New()
	Register(r, h)
	return &testAPI{t: t, engine: r, h: h}
}

func (a *testAPI) do(method, path, code string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(a.t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if code != "" {
		req.Header.Set(AdminHeader, code)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errBody struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Errors []FieldError `json:"errors"`
}

func transitBody() map[string]any {
	return map[string]any{
		"title":     "Ford Transit 2.0 TDCi",
		"price":     89900,
		"location":  "Poznań",
		"features":  []string{"Klimatyzacja", "Hak", "Tempomat"},
		"images":    []string{"https://cdn.example.com/transit-1.jpg"},
		"make":      "Ford",
		"model":     "Transit",
		"fuel_type": "diesel",
	}
}

func TestHealthz(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)
	w := a.do(http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestFordTransitLifecycle(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)

	// 1) создание
	w := a.do(http.MethodPost, "/api/listings", testCode, transitBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Listing](t, w)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, "PLN", created.Currency)
	id := string(created.ID)

	// 2) виден в публичном списке
	w = a.do(http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]model.Listing](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, created.ID, rows[0].ID)

	// 3) частичное обновление не трогает остальные поля
	w = a.do(http.MethodPatch, "/api/listings/"+id, testCode, map[string]any{"price": 84500, "currency": "eur"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Listing](t, w)
	require.NotNil(t, updated.Price)
	assert.InDelta(t, 84500.0, *updated.Price, 0.001)
	assert.Equal(t, "EUR", updated.Currency)
	assert.Equal(t, "Ford Transit 2.0 TDCi", updated.Title)
	assert.Equal(t, []string{"Klimatyzacja", "Hak", "Tempomat"}, updated.Features)

	w = a.do(http.MethodGet, "/api/listings/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, updated.Price, decode[model.Listing](t, w).Price)

	// 4) удаление, повторное удаление тоже 204
	w = a.do(http.MethodDelete, "/api/listings/"+id, testCode, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodGet, "/api/listings/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decode[errBody](t, w).Code)
	w = a.do(http.MethodDelete, "/api/listings/"+id, testCode, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMutationsRequireAdminCode(t *testing.T) {
	s := store.NewMemory()
	a := newAPI(t, s, testCode)

	for _, code := range []string{"", "zły-kod"} {
		w := a.do(http.MethodPost, "/api/listings", code, transitBody())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, CodeUnauthorized, decode[errBody](t, w).Code)
	}
	_, total, err := s.ListListings(t.Context(), store.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPatch, "/api/listings/x"},
		{http.MethodDelete, "/api/listings/x"},
		{http.MethodPost, "/api/reviews"},
		{http.MethodPatch, "/api/reviews/x"},
		{http.MethodDelete, "/api/reviews/x"},
		{http.MethodPost, "/api/uploads"},
	} {
		w := a.do(tc.method, tc.path, "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.method+" "+tc.path)
	}
}

func TestEmptyAdminCodeIsNotConfigured(t *testing.T) {
	a := newAPI(t, store.NewMemory(), "")
	w := a.do(http.MethodPost, "/api/listings", "", transitBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeNotConfigured, decode[errBody](t, w).Code)

	// без настроенного кода и пустой заголовок не считается админом
	assert.False(t, codeMatches("", ""))
}

func TestCreateValidation(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)

	w := a.do(http.MethodPost, "/api/listings", testCode, map[string]any{"title": "  ", "price": 1000})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[errBody](t, w)
	assert.Equal(t, CodeValidation, body.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "title", body.Errors[0].Field)

	w = a.do(http.MethodPost, "/api/listings", testCode, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, decode[errBody](t, w).Code)

	w = a.do(http.MethodPatch, "/api/listings/whatever", testCode, map[string]any{"no_such_column": 1})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "no_such_column", decode[errBody](t, w).Errors[0].Field)

	w = a.do(http.MethodPatch, "/api/listings/whatever", testCode, map[string]any{"price": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInactiveListingsHiddenFromPublic(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)

	body := transitBody()
	body["is_active"] = false
	body["featured"] = true
	w := a.do(http.MethodPost, "/api/listings", testCode, body)
	require.Equal(t, http.StatusCreated, w.Code)
	hidden := decode[model.Listing](t, w)
	assert.False(t, hidden.IsActive)

	w = a.do(http.MethodPost, "/api/listings", testCode, map[string]any{"title": "Renault Master"})
	require.Equal(t, http.StatusCreated, w.Code)

	rows := decode[[]model.Listing](t, a.do(http.MethodGet, "/api/listings", "", nil))
	require.Len(t, rows, 1)
	assert.Equal(t, "Renault Master", rows[0].Title)

	// ?all=1 без кода игнорируется
	rows = decode[[]model.Listing](t, a.do(http.MethodGet, "/api/listings?all=1", "", nil))
	assert.Len(t, rows, 1)
	rows = decode[[]model.Listing](t, a.do(http.MethodGet, "/api/listings?all=1", testCode, nil))
	assert.Len(t, rows, 2)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/listings/"+string(hidden.ID), "", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/listings/"+string(hidden.ID), testCode, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/ads/"+string(hidden.ID), "", nil).Code)

	stats := decode[map[string]int](t, a.do(http.MethodGet, "/api/stats", "", nil))
	assert.Equal(t, map[string]int{"total": 2, "active": 1, "featured": 1}, stats)
}

func TestListingsNewestFirstAndCapped(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)
	a.h.ListingsLimit = 3
	for _, title := range []string{"Iveco Daily", "Fiat Ducato", "VW Crafter", "Mercedes Sprinter"} {
		w := a.do(http.MethodPost, "/api/listings", testCode, map[string]any{"title": title})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	rows := decode[[]model.Listing](t, a.do(http.MethodGet, "/api/listings", "", nil))
	require.Len(t, rows, 3)
	assert.Equal(t, "Mercedes Sprinter", rows[0].Title)
	assert.Equal(t, "Fiat Ducato", rows[2].Title)
}

func TestListAdsContentRange(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)
	prices := map[string]float64{"Iveco Daily": 120000, "Fiat Ducato": 45000, "VW Crafter": 99000}
	for _, title := range []string{"Iveco Daily", "Fiat Ducato", "VW Crafter"} {
		w := a.do(http.MethodPost, "/api/listings", testCode, map[string]any{"title": title, "price": prices[title], "city": "Łódź"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := a.do(http.MethodGet, "/api/ads?"+url.Values{"sort": {`["price","ASC"]`}, "range": {`[0,1]`}}.Encode(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ads 0-1/3", w.Header().Get("Content-Range"))
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))
	ads := decode[[]model.Ad](t, w)
	require.Len(t, ads, 2)
	assert.Equal(t, "Fiat Ducato", ads[0].Title)
	assert.Equal(t, "VW Crafter", ads[1].Title)
	assert.Equal(t, "Łódź", ads[0].City)
	assert.Equal(t, "PLN", ads[0].Currency)

	w = a.do(http.MethodGet, "/api/ads?"+url.Values{"filter": {`{"q":"zzz"}`}}.Encode(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ads */0", w.Header().Get("Content-Range"))
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAdsIsActiveFilterOnlyForAdmin(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)
	a.do(http.MethodPost, "/api/listings", testCode, map[string]any{"title": "Aktywne"})
	a.do(http.MethodPost, "/api/listings", testCode, map[string]any{"title": "Ukryte", "is_active": false})

	path := "/api/ads?" + url.Values{"filter": {`{"is_active":false}`}}.Encode()
	public := decode[[]model.Ad](t, a.do(http.MethodGet, path, "", nil))
	require.Len(t, public, 1)
	assert.Equal(t, "Aktywne", public[0].Title)

	admin := decode[[]model.Ad](t, a.do(http.MethodGet, path, testCode, nil))
	require.Len(t, admin, 1)
	assert.Equal(t, "Ukryte", admin[0].Title)

	all := decode[[]model.Ad](t, a.do(http.MethodGet, "/api/ads", testCode, nil))
	assert.Len(t, all, 2)
}

func TestReviews(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)

	w := a.do(http.MethodPost, "/api/reviews", testCode, map[string]any{
		"author_name": "Marek", "business_type": "Transport", "comment": "Szybko i uczciwie.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	shown := decode[model.Review](t, w)
	assert.True(t, shown.Visible)
	assert.Equal(t, 5, shown.Rating)

	w = a.do(http.MethodPost, "/api/reviews", testCode, map[string]any{
		"author_name": "Anna", "business_type": "Kurier", "comment": "Ok", "rating": 3, "visible": false,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	hidden := decode[model.Review](t, w)

	public := decode[[]model.Review](t, a.do(http.MethodGet, "/api/reviews", "", nil))
	require.Len(t, public, 1)
	assert.Equal(t, "Marek", public[0].AuthorName)
	assert.Len(t, decode[[]model.Review](t, a.do(http.MethodGet, "/api/reviews", testCode, nil)), 2)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/reviews/"+string(hidden.ID), "", nil).Code)

	w = a.do(http.MethodPatch, "/api/reviews/"+string(hidden.ID), testCode, map[string]any{"rating": 9})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "rating", decode[errBody](t, w).Errors[0].Field)

	w = a.do(http.MethodPatch, "/api/reviews/"+string(hidden.ID), testCode, map[string]any{"visible": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/reviews/"+string(hidden.ID), "", nil).Code)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/reviews/"+string(hidden.ID), testCode, nil).Code)
	assert.Len(t, decode[[]model.Review](t, a.do(http.MethodGet, "/api/reviews", "", nil)), 1)
}

func TestUnconfiguredStore(t *testing.T) {
	a := newAPI(t, store.NewUnconfigured(), testCode)
	for _, path := range []string{"/api/listings", "/api/ads", "/api/reviews", "/api/listings/1"} {
		w := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Equal(t, CodeNotConfigured, decode[errBody](t, w).Code, path)
	}
}

func TestCatalogs(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)

	all := decode[map[string]json.RawMessage](t, a.do(http.MethodGet, "/api/meta/catalogs", "", nil))
	assert.Contains(t, all, "fuel_type")
	assert.Contains(t, all, "equipment")

	w := a.do(http.MethodGet, "/api/meta/catalogs/region", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var region struct {
		Name  string `json:"name"`
		Items []struct {
			Code string `json:"code"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &region))
	assert.Equal(t, "region", region.Name)
	assert.Len(t, region.Items, 16)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/meta/catalogs/nope", "", nil).Code)
}

// ==== uploads ====

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func multipartFile(t *testing.T, name string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *testAPI) upload(name string, content []byte) *httptest.ResponseRecorder {
	body, ctype := multipartFile(a.t, name, content)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(AdminHeader, testCode)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestUploadLocal(t *testing.T) {
	root := t.TempDir()
	a := newAPI(t, store.NewMemory(), testCode)
	a.h.Blob = &LocalBlobStore{Root: root}

	w := a.upload("transit.png", pngHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	b := decode[Blob](t, w)
	assert.True(t, strings.HasSuffix(b.Key, ".png"), b.Key)
	assert.Equal(t, "/uploads/"+b.Key, b.URL)
	assert.Equal(t, int64(len(pngHeader)), b.Size)
	assert.Len(t, b.SHA256, 64)

	saved, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(b.Key)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, saved)

	w = a.do(http.MethodDelete, "/api/uploads/"+b.Key, testCode, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(b.Key)))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadRejectsNonImages(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)
	a.h.Blob = &LocalBlobStore{Root: t.TempDir()}

	w := a.upload("cennik.png", []byte("to nie jest obrazek"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errBody](t, w)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "file", body.Errors[0].Field)
}

func TestUploadWithoutBlobStore(t *testing.T) {
	a := newAPI(t, store.NewMemory(), testCode)
	w := a.upload("transit.png", pngHeader)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeNotConfigured, decode[errBody](t, w).Code)
}

func TestCleanKey(t *testing.T) {
	k, err := cleanKey("/2026/10/abc.png")
	require.NoError(t, err)
	assert.Equal(t, "2026/10/abc.png", k)

	for _, bad := range []string{"", "/", "../etc/passwd", "2026/../../x"} {
		_, err := cleanKey(bad)
		assert.ErrorIs(t, err, errBadKey, bad)
	}
}
