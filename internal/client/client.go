// Package client — HTTP-клиент гейтвея /api для страниц и админки.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"busydostawcze/internal/model"

	"github.com/go-resty/resty/v2"
)

const AdminHeader = "x-admin-code"

// Client без повторов и без кэша: каждый вызов — один запрос.
type Client struct {
	http      *resty.Client
	adminCode string
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(15*time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// WithAdminCode — копия клиента, подписывающая запросы кодом админа.
func (c *Client) WithAdminCode(code string) *Client {
	return &Client{http: c.http, adminCode: code}
}

func (c *Client) req(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if c.adminCode != "" {
		r.SetHeader(AdminHeader, c.adminCode)
	}
	return r
}

// do выполняет запрос и раскладывает ответ: result при 2xx, типизированная ошибка иначе.
func (c *Client) do(r *resty.Request, method, path string, result any) error {
	resp, err := r.Execute(method, path)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if resp.IsError() {
		var b errorBody
		_ = json.Unmarshal(resp.Body(), &b)
		if b.Error == "" {
			b.Error = strings.TrimSpace(resp.String())
		}
		return decodeError(resp.StatusCode(), b)
	}
	if result == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ==== Listings ====

// ListActiveListings — публичная выдача: активные, новые сверху.
func (c *Client) ListActiveListings(ctx context.Context) ([]model.Listing, error) {
	var out []model.Listing
	err := c.do(c.req(ctx), "GET", "/listings", &out)
	return out, err
}

// ListAllListings — для админки, включая неактивные (нужен код админа).
func (c *Client) ListAllListings(ctx context.Context) ([]model.Listing, error) {
	var out []model.Listing
	err := c.do(c.req(ctx).SetQueryParam("all", "1"), "GET", "/listings", &out)
	return out, err
}

func (c *Client) GetListing(ctx context.Context, id string) (model.Listing, error) {
	var out model.Listing
	err := c.do(c.req(ctx), "GET", "/listings/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) CreateListing(ctx context.Context, in model.ListingInput) (model.Listing, error) {
	var out model.Listing
	err := c.do(c.req(ctx).SetBody(in), "POST", "/listings", &out)
	return out, err
}

func (c *Client) UpdateListing(ctx context.Context, id string, p model.Patch) (model.Listing, error) {
	var out model.Listing
	err := c.do(c.req(ctx).SetBody(map[string]any(p)), "PATCH", "/listings/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) DeleteListing(ctx context.Context, id string) error {
	return c.do(c.req(ctx), "DELETE", "/listings/"+url.PathEscape(id), nil)
}

// ==== Reviews ====

func (c *Client) ListReviews(ctx context.Context) ([]model.Review, error) {
	var out []model.Review
	err := c.do(c.req(ctx), "GET", "/reviews", &out)
	return out, err
}

func (c *Client) GetReview(ctx context.Context, id string) (model.Review, error) {
	var out model.Review
	err := c.do(c.req(ctx), "GET", "/reviews/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) CreateReview(ctx context.Context, in model.ReviewInput) (model.Review, error) {
	var out model.Review
	err := c.do(c.req(ctx).SetBody(in), "POST", "/reviews", &out)
	return out, err
}

func (c *Client) UpdateReview(ctx context.Context, id string, p model.Patch) (model.Review, error) {
	var out model.Review
	err := c.do(c.req(ctx).SetBody(map[string]any(p)), "PATCH", "/reviews/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.do(c.req(ctx), "DELETE", "/reviews/"+url.PathEscape(id), nil)
}

// ==== Прочее ====

type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Featured int `json:"featured"`
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := c.do(c.req(ctx), "GET", "/stats", &out)
	return out, err
}

type Upload struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// UploadImage отправляет файл multipart-полем "file".
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (Upload, error) {
	var out Upload
	err := c.do(c.req(ctx).SetFileReader("file", filename, r), "POST", "/uploads", &out)
	return out, err
}

// Ping — /healthz.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(c.req(ctx), "GET", "/healthz", nil)
}
