package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"busydostawcze/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRest записывает последний запрос и отвечает заданным статусом/телом.
type fakeRest struct {
	lastReq  *http.Request
	lastBody []byte
	status   int
	body     string
	header   http.Header
}

func (f *fakeRest) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastReq = r
		f.lastBody, _ = io.ReadAll(r.Body)
		for k, v := range f.header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFakeSupabase(t *testing.T, f *fakeRest) *Supabase {
	srv := f.server(t)
	s, err := NewSupabase(srv.URL+"/", "service-key", "ogloszenia", "opinie")
	require.NoError(t, err)
	return s
}

func TestSupabaseListQuery(t *testing.T) {
	f := &fakeRest{
		status: http.StatusOK,
		body:   `[{"id": 7, "title": "Ford Transit", "price": 89900, "is_active": true, "created_at": "2024-05-01T10:00:00.123456+00:00"}]`,
		header: http.Header{"Content-Range": []string{"0-0/42"}},
	}
	s := newFakeSupabase(t, f)

	rows, total, err := s.ListListings(context.Background(), ListQuery{ActiveOnly: true, Search: "transit", Limit: 60})
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ID("7"), rows[0].ID)

	r := f.lastReq
	assert.Equal(t, "/rest/v1/ogloszenia", r.URL.Path)
	q := r.URL.Query()
	assert.Equal(t, "eq.true", q.Get("is_active"))
	assert.Equal(t, "created_at.desc.nullslast", q.Get("order"))
	assert.Equal(t, "ilike.*transit*", q.Get("title"))
	assert.Equal(t, "60", q.Get("limit"))
	assert.Empty(t, q.Get("featured"))
	assert.Equal(t, "service-key", r.Header.Get("apikey"))
	assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
	assert.Equal(t, "count=exact", r.Header.Get("Prefer"))

	_, _, err = s.ListListings(context.Background(), ListQuery{FeaturedOnly: true, Limit: 1})
	require.NoError(t, err)
	q = f.lastReq.URL.Query()
	assert.Equal(t, "eq.true", q.Get("featured"))
	assert.Empty(t, q.Get("is_active"))
}

func TestSupabaseGetEmptyIsNotFound(t *testing.T) {
	s := newFakeSupabase(t, &fakeRest{status: http.StatusOK, body: `[]`})
	_, err := s.GetListing(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabaseCreateSendsColumns(t *testing.T) {
	f := &fakeRest{status: http.StatusCreated, body: `[{"id": "a1", "title": "Ford Transit", "is_active": false}]`}
	s := newFakeSupabase(t, f)

	l := transit()
	l.ID = "client-id"
	l.IsActive = false
	created, err := s.CreateListing(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, model.ID("a1"), created.ID)

	assert.Equal(t, http.MethodPost, f.lastReq.Method)
	assert.Equal(t, "return=representation", f.lastReq.Header.Get("Prefer"))
	var sent map[string]any
	require.NoError(t, json.Unmarshal(f.lastBody, &sent))
	assert.NotContains(t, sent, "id")
	assert.NotContains(t, sent, "created_at")
	assert.Equal(t, false, sent["is_active"])
	assert.Equal(t, "Ford", sent["make"])
}

func TestSupabaseUpdateFilterAndNotFound(t *testing.T) {
	f := &fakeRest{status: http.StatusOK, body: `[]`}
	s := newFakeSupabase(t, f)

	_, err := s.UpdateListing(context.Background(), "55", model.Patch{"price": 1000})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.MethodPatch, f.lastReq.Method)
	assert.Equal(t, "eq.55", f.lastReq.URL.Query().Get("id"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(f.lastBody, &sent))
	assert.Contains(t, sent, "updated_at")
	assert.EqualValues(t, 1000, sent["price"])
}

func TestSupabaseErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		field  string
		target error
	}{
		{"check violation", 400, `{"code":"23514","message":"new row for relation \"ogloszenia\" violates check constraint \"title_present\""}`, "title", nil},
		{"bad type", 400, `{"code":"22P02","message":"invalid input syntax for type integer: \"abc\" in column \"mileage\""}`, "mileage", nil},
		{"unknown column", 400, `{"code":"PGRST204","message":"Could not find the 'horsepower' column of 'ogloszenia' in the schema cache"}`, "horsepower", nil},
		{"server down", 503, `upstream error`, "", ErrUnavailable},
		{"bad key", 401, `{"code":"PGRST301","message":"JWT invalid"}`, "", ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newFakeSupabase(t, &fakeRest{status: tc.status, body: tc.body})
			_, err := s.CreateListing(context.Background(), transit())
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
}

func TestSupabaseDeleteAnyRow(t *testing.T) {
	f := &fakeRest{status: http.StatusNoContent}
	s := newFakeSupabase(t, f)
	require.NoError(t, s.DeleteListing(context.Background(), "nope"))
	assert.Equal(t, http.MethodDelete, f.lastReq.Method)
}

func TestParseContentRangeTotal(t *testing.T) {
	assert.Equal(t, 42, parseContentRangeTotal("0-9/42", 10))
	assert.Equal(t, 0, parseContentRangeTotal("*/0", 5))
	assert.Equal(t, 5, parseContentRangeTotal("", 5))
	assert.Equal(t, 3, parseContentRangeTotal("0-2/*", 3))
}
