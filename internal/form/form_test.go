package form

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"busydostawcze/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transitValues — валидная форма «Ford Transit».
func transitValues() url.Values {
	return url.Values{
		"title":           {"Ford Transit"},
		"price":           {"52 900"},
		"make":            {"Ford"},
		"model":           {"Transit"},
		"production_year": {"2018"},
		"fuel_type":       {"Diesel"},
		"body_type":       {"Furgon"},
		"gearbox":         {"Manualna"},
		"mileage":         {"120000"},
		"condition":       {"Używany"},
		"description":     {strings.Repeat("A", 25)},
		"city":            {"Smyków"},
		"region":          {"Świętokrzyskie"},
		"is_active":       {"on"},
		"features":        {"Klimatyzacja", "Hak"},
		"features_extra":  {"Webasto, hak"},
		"images":          {"https://cdn.example.com/1.jpg\nhttps://cdn.example.com/2.jpg\n"},
	}
}

// fakeWriter считает вызовы и может вернуть ошибку.
type fakeWriter struct {
	creates, updates int
	lastID           string
	lastPatch        model.Patch
	lastInput        model.ListingInput
	err              error
}

func (w *fakeWriter) CreateListing(_ context.Context, in model.ListingInput) (model.Listing, error) {
	w.creates++
	w.lastInput = in
	if w.err != nil {
		return model.Listing{}, w.err
	}
	l := in.ToListing()
	l.ID = "new-1"
	return l, nil
}

func (w *fakeWriter) UpdateListing(_ context.Context, id string, p model.Patch) (model.Listing, error) {
	w.updates++
	w.lastID, w.lastPatch = id, p
	if w.err != nil {
		return model.Listing{}, w.err
	}
	return model.Listing{ID: model.ID(id), Title: p["title"].(string)}, nil
}

type backendErr struct{ fields map[string]string }

func (e backendErr) Error() string                  { return "validation" }
func (e backendErr) FieldErrors() map[string]string { return e.fields }

func TestParseListing(t *testing.T) {
	f := ParseListing(transitValues())
	require.NotNil(t, f.Price)
	assert.Equal(t, 52900.0, *f.Price)
	assert.Equal(t, "PLN", f.Currency)
	assert.Equal(t, 2018, *f.ProductionYear)
	assert.Nil(t, f.Seats, "empty numeric is absent")
	assert.True(t, f.IsActive)
	assert.False(t, f.AccidentFree)
	assert.Equal(t, []string{"Klimatyzacja", "Hak", "Webasto"}, f.Features)
	assert.Len(t, f.Images, 2)
	assert.Empty(t, f.Validate())
}

func TestValidateRules(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		field string
		msg   string
	}{
		{"price zero", "price", "0", "price", "Cena musi być większa od 0"},
		{"price missing", "price", "", "price", "Cena musi być większa od 0"},
		{"price garbage", "price", "dużo", "price", "Cena musi być liczbą"},
		{"price inf", "price", "inf", "price", "Cena musi być liczbą"},
		{"price infinity", "price", "Infinity", "price", "Cena musi być liczbą"},
		{"price nan", "price", "NaN", "price", "Cena musi być liczbą"},
		{"vin 16 chars", "vin", "WF0XXXTTGXJA1234", "vin", "VIN musi mieć dokładnie 17 znaków"},
		{"old year", "production_year", "1949", "production_year", "Podaj prawidłowy rok produkcji"},
		{"no title", "title", "  ", "title", "Tytuł jest wymagany"},
		{"no mileage", "mileage", "", "mileage", "Przebieg jest wymagany"},
		{"negative mileage", "mileage", "-5", "mileage", "Przebieg jest wymagany"},
		{"short description", "description", "Za krótki", "description", "Opis musi mieć co najmniej 20 znaków"},
		{"no region", "region", "", "region", "Województwo jest wymagane"},
		{"bad url", "seller_profile_url", "otomoto.pl/profil", "seller_profile_url", "Podaj prawidłowy URL (http:// lub https://)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := transitValues()
			v.Set(tc.key, tc.value)
			errs := ParseListing(v).Validate()
			assert.Equal(t, tc.msg, errs[tc.field])
		})
	}
}

func TestValidateAcceptsOptionalFields(t *testing.T) {
	v := transitValues()
	v.Set("vin", "wf0xxxttgxja12345")
	v.Set("mileage", "0")
	v.Set("seller_profile_url", "https://www.otomoto.pl/profil")
	f := ParseListing(v)
	assert.Equal(t, "WF0XXXTTGXJA12345", f.VIN)
	assert.Empty(t, f.Validate())
}

func TestSubmitListingInvalidMakesNoCall(t *testing.T) {
	w := &fakeWriter{}
	v := transitValues()
	v.Set("price", "0")

	res, err := SubmitListing(context.Background(), w, "", ParseListing(v))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "Cena musi być większa od 0", res.Errors["price"])
	assert.Zero(t, w.creates+w.updates)

	v.Set("price", "Infinity")
	res, err = SubmitListing(context.Background(), w, "", ParseListing(v))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "Cena musi być liczbą", res.Errors["price"])
	assert.Zero(t, w.creates+w.updates)
}

func TestSubmitListingCreateAndUpdate(t *testing.T) {
	w := &fakeWriter{}
	f := ParseListing(transitValues())

	res, err := SubmitListing(context.Background(), w, "", f)
	require.NoError(t, err)
	assert.Equal(t, model.ID("new-1"), res.Listing.ID)
	assert.Equal(t, 1, w.creates)
	require.NotNil(t, w.lastInput.IsActive)
	assert.True(t, *w.lastInput.IsActive)

	_, err = SubmitListing(context.Background(), w, " 42 ", f)
	require.NoError(t, err)
	assert.Equal(t, 1, w.updates)
	assert.Equal(t, "42", w.lastID)
	assert.Contains(t, w.lastPatch, "seats", "cleared fields are sent too")
	assert.Nil(t, w.lastPatch["seats"])
}

func TestSubmitListingMergesBackendErrors(t *testing.T) {
	w := &fakeWriter{err: backendErr{fields: map[string]string{"vin": "VIN już istnieje"}}}
	res, err := SubmitListing(context.Background(), w, "", ParseListing(transitValues()))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "VIN już istnieje", res.Errors["vin"])
}

func TestSubmitListingPassesOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	w := &fakeWriter{err: boom}
	_, err := SubmitListing(context.Background(), w, "", ParseListing(transitValues()))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestFromListingRoundTrip(t *testing.T) {
	f := ParseListing(transitValues())
	back := FromListing(f.Listing())
	assert.Equal(t, f.Title, back.Title)
	assert.Equal(t, f.Values(), back.Values())
	assert.True(t, back.HasFeature("klimatyzacja"))
}

func TestReviewForm(t *testing.T) {
	f := ParseReview(url.Values{
		"author_name":   {"Marek"},
		"business_type": {"Transport"},
		"rating":        {"7"},
		"comment":       {"Polecam"},
	})
	assert.Equal(t, "Ocena musi być od 1 do 5", f.Validate()["rating"])

	f.Rating = 5
	assert.Empty(t, f.Validate())
	in := f.Input()
	assert.False(t, *in.Visible)
	assert.Equal(t, 5, *in.Rating)
}
