package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"busydostawcze/internal/model"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrNotConfigured = errors.New("store not configured")
	ErrUnavailable   = errors.New("store unavailable")
)

// ValidationError — хранилище отвергло данные (constraint, тип, неизвестная колонка).
type ValidationError struct {
	Fields  map[string]string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return "validation failed: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}, Message: msg}
}

// ==== Параметры выборки ====

type ListQuery struct {
	ActiveOnly   bool
	InactiveOnly bool
	FeaturedOnly bool
	Search       string
	SortField    string
	SortDesc     bool
	Offset       int
	Limit        int
}

// SortableListingColumns — по чему разрешено сортировать.
var SortableListingColumns = map[string]struct{}{
	"created_at": {}, "updated_at": {}, "price": {}, "title": {},
	"production_year": {}, "mileage": {},
}

// Normalize подставляет дефолты: created_at DESC, limit в пределах [1, max].
func (q ListQuery) Normalize(maxLimit int) ListQuery {
	if _, ok := SortableListingColumns[q.SortField]; !ok {
		q.SortField = "created_at"
		q.SortDesc = true
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 || (maxLimit > 0 && q.Limit > maxLimit) {
		q.Limit = maxLimit
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

type ReviewQuery struct {
	VisibleOnly bool
}

// ==== Интерфейсы ====

type ListingStore interface {
	ListListings(ctx context.Context, q ListQuery) ([]model.Listing, int, error)
	GetListing(ctx context.Context, id string) (model.Listing, error)
	CreateListing(ctx context.Context, l model.Listing) (model.Listing, error)
	UpdateListing(ctx context.Context, id string, p model.Patch) (model.Listing, error)
	DeleteListing(ctx context.Context, id string) error
}

type ReviewStore interface {
	ListReviews(ctx context.Context, q ReviewQuery) ([]model.Review, error)
	GetReview(ctx context.Context, id string) (model.Review, error)
	CreateReview(ctx context.Context, r model.Review) (model.Review, error)
	UpdateReview(ctx context.Context, id string, p model.Patch) (model.Review, error)
	DeleteReview(ctx context.Context, id string) error
}

type Store interface {
	ListingStore
	ReviewStore
	Ping(ctx context.Context) error
	Close() error
}

// cleanPatch — общая проверка колонок для всех драйверов.
func cleanPatch(p model.Patch, allowed map[string]struct{}) (model.Patch, error) {
	clean, bad := p.Clean(allowed)
	if len(bad) > 0 {
		return nil, &ValidationError{Fields: bad}
	}
	return clean, nil
}

// checkListing — то, что в SQL держат NOT NULL/CHECK; memory-драйвер проверяет сам.
func checkListing(l model.Listing) error {
	if strings.TrimSpace(l.Title) == "" {
		return invalid("title", "Tytuł jest wymagany")
	}
	return nil
}

func checkReview(r model.Review) error {
	if r.Rating < model.MinRating || r.Rating > model.MaxRating {
		return invalid("rating", fmt.Sprintf("Ocena musi być od %d do %d", model.MinRating, model.MaxRating))
	}
	if strings.TrimSpace(r.AuthorName) == "" {
		return invalid("author_name", "Imię jest wymagane")
	}
	return nil
}

// unconfigured — заглушка, когда ни один драйвер не настроен.
type unconfigured struct{}

func NewUnconfigured() Store { return unconfigured{} }

func (unconfigured) ListListings(context.Context, ListQuery) ([]model.Listing, int, error) {
	return nil, 0, ErrNotConfigured
}
func (unconfigured) GetListing(context.Context, string) (model.Listing, error) {
	return model.Listing{}, ErrNotConfigured
}
func (unconfigured) CreateListing(context.Context, model.Listing) (model.Listing, error) {
	return model.Listing{}, ErrNotConfigured
}
func (unconfigured) UpdateListing(context.Context, string, model.Patch) (model.Listing, error) {
	return model.Listing{}, ErrNotConfigured
}
func (unconfigured) DeleteListing(context.Context, string) error { return ErrNotConfigured }
func (unconfigured) ListReviews(context.Context, ReviewQuery) ([]model.Review, error) {
	return nil, ErrNotConfigured
}
func (unconfigured) GetReview(context.Context, string) (model.Review, error) {
	return model.Review{}, ErrNotConfigured
}
func (unconfigured) CreateReview(context.Context, model.Review) (model.Review, error) {
	return model.Review{}, ErrNotConfigured
}
func (unconfigured) UpdateReview(context.Context, string, model.Patch) (model.Review, error) {
	return model.Review{}, ErrNotConfigured
}
func (unconfigured) DeleteReview(context.Context, string) error { return ErrNotConfigured }
func (unconfigured) Ping(context.Context) error                 { return ErrNotConfigured }
func (unconfigured) Close() error                               { return nil }
