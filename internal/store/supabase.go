package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"busydostawcze/internal/model"

	"github.com/go-resty/resty/v2"
)

// Supabase ходит в PostgREST (/rest/v1) с service-ключом.
type Supabase struct {
	client   *resty.Client
	listings string
	reviews  string
}

// postgrestError — тело ошибки PostgREST.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// column "vin" ... / Could not find the 'vin' column of ...
var columnRe = regexp.MustCompile(`column "([a-z0-9_]+)"|'([a-z0-9_]+)' column`)

// NewSupabase: baseURL — адрес проекта (https://xyz.supabase.co), key — service role или anon.
func NewSupabase(baseURL, key, listingsTable, reviewsTable string) (*Supabase, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || key == "" {
		return nil, ErrNotConfigured
	}
	client := resty.New().
		SetBaseURL(baseURL+"/rest/v1").
		SetTimeout(15*time.Second).
		SetHeader("apikey", key).
		SetAuthToken(key).
		SetHeader("Accept", "application/json")
	return &Supabase{client: client, listings: listingsTable, reviews: reviewsTable}, nil
}

func (s *Supabase) Ping(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "id", "limit": "1"}).
		Get("/" + s.listings)
	return s.check(resp, err)
}

func (s *Supabase) Close() error { return nil }

// ==== Listings ====

func (s *Supabase) ListListings(ctx context.Context, q ListQuery) ([]model.Listing, int, error) {
	q = q.Normalize(0)
	dir := "asc"
	if q.SortDesc {
		dir = "desc"
	}
	req := s.client.R().SetContext(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParams(map[string]string{
			"select": "*",
			"order":  q.SortField + "." + dir + ".nullslast",
			"offset": strconv.Itoa(q.Offset),
			"limit":  strconv.Itoa(q.Limit),
		})
	switch {
	case q.ActiveOnly:
		req.SetQueryParam("is_active", "eq.true")
	case q.InactiveOnly:
		req.SetQueryParam("is_active", "eq.false")
	}
	if q.FeaturedOnly {
		req.SetQueryParam("featured", "eq.true")
	}
	if q.Search != "" {
		req.SetQueryParam("title", "ilike.*"+q.Search+"*")
	}

	var rows []model.Listing
	resp, err := req.SetResult(&rows).Get("/" + s.listings)
	if err := s.check(resp, err); err != nil {
		return nil, 0, err
	}
	total := parseContentRangeTotal(resp.Header().Get("Content-Range"), len(rows))
	return rows, total, nil
}

func (s *Supabase) GetListing(ctx context.Context, id string) (model.Listing, error) {
	var rows []model.Listing
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "*", "id": "eq." + id}).
		SetResult(&rows).
		Get("/" + s.listings)
	if err := s.check(resp, err); err != nil {
		return model.Listing{}, err
	}
	if len(rows) == 0 {
		return model.Listing{}, ErrNotFound
	}
	return rows[0], nil
}

func (s *Supabase) CreateListing(ctx context.Context, l model.Listing) (model.Listing, error) {
	if err := checkListing(l); err != nil {
		return model.Listing{}, err
	}
	body, err := model.Columns(l)
	if err != nil {
		return model.Listing{}, err
	}
	// false тоже уходит в insert, иначе сработает default колонки
	body["is_active"] = l.IsActive

	var rows []model.Listing
	resp, err := s.client.R().SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		SetResult(&rows).
		Post("/" + s.listings)
	if err := s.check(resp, err); err != nil {
		return model.Listing{}, err
	}
	if len(rows) == 0 {
		return model.Listing{}, fmt.Errorf("%w: empty insert response", ErrUnavailable)
	}
	return rows[0], nil
}

func (s *Supabase) UpdateListing(ctx context.Context, id string, p model.Patch) (model.Listing, error) {
	p, err := cleanPatch(p, model.ListingColumns)
	if err != nil {
		return model.Listing{}, err
	}
	if v, ok := p["title"]; ok {
		if t, _ := v.(string); strings.TrimSpace(t) == "" {
			return model.Listing{}, invalid("title", "Tytuł jest wymagany")
		}
	}
	body := make(map[string]any, len(p)+1)
	for k, v := range p {
		body[k] = v
	}
	body["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	var rows []model.Listing
	resp, err := s.client.R().SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody(body).
		SetResult(&rows).
		Patch("/" + s.listings)
	if err := s.check(resp, err); err != nil {
		return model.Listing{}, err
	}
	if len(rows) == 0 {
		return model.Listing{}, ErrNotFound
	}
	return rows[0], nil
}

func (s *Supabase) DeleteListing(ctx context.Context, id string) error {
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/" + s.listings)
	return s.check(resp, err)
}

// ==== Reviews ====

func (s *Supabase) ListReviews(ctx context.Context, q ReviewQuery) ([]model.Review, error) {
	req := s.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "*", "order": "created_at.desc"})
	if q.VisibleOnly {
		req.SetQueryParam("visible", "eq.true")
	}
	var rows []model.Review
	resp, err := req.SetResult(&rows).Get("/" + s.reviews)
	if err := s.check(resp, err); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Supabase) GetReview(ctx context.Context, id string) (model.Review, error) {
	var rows []model.Review
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "*", "id": "eq." + id}).
		SetResult(&rows).
		Get("/" + s.reviews)
	if err := s.check(resp, err); err != nil {
		return model.Review{}, err
	}
	if len(rows) == 0 {
		return model.Review{}, ErrNotFound
	}
	return rows[0], nil
}

func (s *Supabase) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
	if err := checkReview(r); err != nil {
		return model.Review{}, err
	}
	body, err := model.Columns(r)
	if err != nil {
		return model.Review{}, err
	}
	var rows []model.Review
	resp, err := s.client.R().SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		SetResult(&rows).
		Post("/" + s.reviews)
	if err := s.check(resp, err); err != nil {
		return model.Review{}, err
	}
	if len(rows) == 0 {
		return model.Review{}, fmt.Errorf("%w: empty insert response", ErrUnavailable)
	}
	return rows[0], nil
}

func (s *Supabase) UpdateReview(ctx context.Context, id string, p model.Patch) (model.Review, error) {
	p, err := cleanPatch(p, model.ReviewColumns)
	if err != nil {
		return model.Review{}, err
	}
	var rows []model.Review
	resp, err := s.client.R().SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody(map[string]any(p)).
		SetResult(&rows).
		Patch("/" + s.reviews)
	if err := s.check(resp, err); err != nil {
		return model.Review{}, err
	}
	if len(rows) == 0 {
		return model.Review{}, ErrNotFound
	}
	return rows[0], nil
}

func (s *Supabase) DeleteReview(ctx context.Context, id string) error {
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/" + s.reviews)
	return s.check(resp, err)
}

// ==== Ошибки ====

// check: сетевые ошибки и 5xx -> ErrUnavailable, 22xxx/23xxx/PGRST204 -> ValidationError.
func (s *Supabase) check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsError() {
		return nil
	}
	var pe postgrestError
	_ = json.Unmarshal(resp.Body(), &pe)
	msg := pe.Message
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}

	switch {
	case strings.HasPrefix(pe.Code, "22"), strings.HasPrefix(pe.Code, "23"), pe.Code == "PGRST204":
		if m := columnRe.FindStringSubmatch(msg); m != nil {
			field := m[1]
			if field == "" {
				field = m[2]
			}
			return invalid(field, msg)
		}
		for name, field := range constraintFields {
			if strings.Contains(msg, name) {
				return invalid(field, msg)
			}
		}
		return &ValidationError{Message: msg}
	case pe.Code == "PGRST116", resp.StatusCode() == http.StatusNotFound && pe.Code == "":
		return ErrNotFound
	}
	return fmt.Errorf("%w: supabase %d: %s", ErrUnavailable, resp.StatusCode(), msg)
}

// parseContentRangeTotal: "0-9/42" -> 42, "*/0" -> 0; без заголовка — fallback.
func parseContentRangeTotal(h string, fallback int) int {
	_, total, ok := strings.Cut(h, "/")
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil {
		return fallback
	}
	return n
}
