package store

import (
	"context"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"busydostawcze/internal/model"

	"github.com/oklog/ulid/v2"
)

// Memory — in-memory хранилище для разработки и тестов.
type Memory struct {
	mu       sync.RWMutex
	listings map[string]model.Listing
	reviews  map[string]model.Review
	entropy  io.Reader
	now      func() time.Time
}

func NewMemory() *Memory {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Memory{
		listings: make(map[string]model.Listing),
		reviews:  make(map[string]model.Review),
		entropy:  ulid.Monotonic(src, 0),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// newID вызывать только под write-lock: Monotonic не потокобезопасен.
func (s *Memory) newID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

func (s *Memory) Ping(context.Context) error { return nil }
func (s *Memory) Close() error               { return nil }

// ==== Listings ====

func (s *Memory) ListListings(_ context.Context, q ListQuery) ([]model.Listing, int, error) {
	q = q.Normalize(0)
	needle := strings.ToLower(q.Search)

	// читаем все подходящие записи
	s.mu.RLock()
	all := make([]model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if (q.ActiveOnly && !l.IsActive) || (q.InactiveOnly && l.IsActive) {
			continue
		}
		if q.FeaturedOnly && !l.Featured {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(l.Title), needle) {
			continue
		}
		all = append(all, l)
	}
	s.mu.RUnlock()

	sortListings(all, q.SortField, q.SortDesc)

	total := len(all)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *Memory) GetListing(_ context.Context, id string) (model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return model.Listing{}, ErrNotFound
	}
	return l, nil
}

func (s *Memory) CreateListing(_ context.Context, l model.Listing) (model.Listing, error) {
	if err := checkListing(l); err != nil {
		return model.Listing{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	l.ID = model.ID(s.newID(now))
	l.CreatedAt = now
	l.UpdatedAt = now
	s.listings[string(l.ID)] = l
	return l, nil
}

func (s *Memory) UpdateListing(_ context.Context, id string, p model.Patch) (model.Listing, error) {
	p, err := cleanPatch(p, model.ListingColumns)
	if err != nil {
		return model.Listing{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.listings[id]
	if !ok {
		return model.Listing{}, ErrNotFound
	}
	next, err := model.Apply(cur, p)
	if err != nil {
		return model.Listing{}, &ValidationError{Message: err.Error()}
	}
	if err := checkListing(next); err != nil {
		return model.Listing{}, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now()
	s.listings[id] = next
	return next, nil
}

// DeleteListing: отсутствующий id — не ошибка (0 rows affected).
func (s *Memory) DeleteListing(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.listings, id)
	s.mu.Unlock()
	return nil
}

// ==== Reviews ====

func (s *Memory) ListReviews(_ context.Context, q ReviewQuery) ([]model.Review, error) {
	s.mu.RLock()
	out := make([]model.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		if q.VisibleOnly && !r.Visible {
			continue
		}
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Memory) GetReview(_ context.Context, id string) (model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return model.Review{}, ErrNotFound
	}
	return r, nil
}

func (s *Memory) CreateReview(_ context.Context, r model.Review) (model.Review, error) {
	if err := checkReview(r); err != nil {
		return model.Review{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	r.ID = model.ID(s.newID(now))
	r.CreatedAt = now
	s.reviews[string(r.ID)] = r
	return r, nil
}

func (s *Memory) UpdateReview(_ context.Context, id string, p model.Patch) (model.Review, error) {
	p, err := cleanPatch(p, model.ReviewColumns)
	if err != nil {
		return model.Review{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.reviews[id]
	if !ok {
		return model.Review{}, ErrNotFound
	}
	next, err := model.Apply(cur, p)
	if err != nil {
		return model.Review{}, &ValidationError{Message: err.Error()}
	}
	if err := checkReview(next); err != nil {
		return model.Review{}, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	s.reviews[id] = next
	return next, nil
}

func (s *Memory) DeleteReview(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.reviews, id)
	s.mu.Unlock()
	return nil
}

// ==== Сортировка (nulls last) ====

func sortListings(ls []model.Listing, field string, desc bool) {
	sort.SliceStable(ls, func(i, j int) bool {
		c := cmpListing(ls[i], ls[j], field)
		if c == 0 {
			// при равенстве — более новый id первым
			c = strings.Compare(string(ls[i].ID), string(ls[j].ID))
			return c > 0
		}
		if c == nullsLast || c == -nullsLast {
			return c < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// nullsLast — маркер «один из ключей пустой», направление сортировки его не переворачивает.
const nullsLast = 2

func cmpListing(a, b model.Listing, field string) int {
	switch field {
	case "price":
		return cmpNullable(a.Price, b.Price)
	case "production_year":
		return cmpNullable(a.ProductionYear, b.ProductionYear)
	case "mileage":
		return cmpNullable(a.Mileage, b.Mileage)
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func cmpNullable[T int | float64](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return nullsLast
	case b == nil:
		return -nullsLast
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
