package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Blob — результат загрузки фото.
type Blob struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (Blob, error)
	Delete(ctx context.Context, key string) error
}

var errBadKey = errors.New("invalid blob key")

// cleanKey: только относительный путь без "..".
func cleanKey(key string) (string, error) {
	k := strings.Trim(strings.TrimSpace(key), "/")
	for _, seg := range strings.Split(k, "/") {
		if seg == ".." {
			return "", errBadKey
		}
	}
	k = path.Clean(k)
	if k == "" || k == "." {
		return "", errBadKey
	}
	return k, nil
}

// ===== local =====

type LocalBlobStore struct {
	Root    string // например, "./uploads"
	BaseURL string // откуда раздаётся Root, по умолчанию "/uploads"
}

func (s *LocalBlobStore) full(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

func (s *LocalBlobStore) url(key string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = "/uploads"
	}
	return base + "/" + key
}

func (s *LocalBlobStore) Put(_ context.Context, key, _ string, r io.Reader) (Blob, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Blob{}, err
	}
	full := s.full(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Blob{}, err
	}
	f, err := os.Create(full)
	if err != nil {
		return Blob{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		return Blob{}, err
	}
	return Blob{Key: key, URL: s.url(key), Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// Delete: отсутствующий файл — не ошибка.
func (s *LocalBlobStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.full(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ===== supabase storage =====

// SupabaseBlobStore кладёт фото в публичный bucket Supabase Storage.
type SupabaseBlobStore struct {
	client  *resty.Client
	baseURL string
	bucket  string
}

func NewSupabaseBlobStore(baseURL, key, bucket string) (*SupabaseBlobStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || key == "" || bucket == "" {
		return nil, errors.New("supabase storage not configured")
	}
	client := resty.New().
		SetBaseURL(baseURL+"/storage/v1").
		SetTimeout(60*time.Second).
		SetHeader("apikey", key).
		SetAuthToken(key)
	return &SupabaseBlobStore{client: client, baseURL: baseURL, bucket: bucket}, nil
}

// PublicURL — адрес объекта в публичном bucket.
func (s *SupabaseBlobStore) PublicURL(key string) string {
	return s.baseURL + "/storage/v1/object/public/" + s.bucket + "/" + key
}

func (s *SupabaseBlobStore) Put(ctx context.Context, key, contentType string, r io.Reader) (Blob, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Blob{}, err
	}
	// Storage API хочет тело целиком; хеш считаем по ходу чтения
	h := sha256.New()
	body, err := io.ReadAll(io.TeeReader(r, h))
	if err != nil {
		return Blob{}, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := s.client.R().SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetBody(body).
		Put("/object/" + s.bucket + "/" + key)
	if err != nil {
		return Blob{}, err
	}
	if resp.IsError() {
		return Blob{}, fmt.Errorf("supabase storage %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return Blob{
		Key:    key,
		URL:    s.PublicURL(key),
		Size:   int64(len(body)),
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

func (s *SupabaseBlobStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	resp, err := s.client.R().SetContext(ctx).Delete("/object/" + s.bucket + "/" + key)
	if err != nil {
		return err
	}
	if resp.IsError() && resp.StatusCode() != 404 {
		return fmt.Errorf("supabase storage %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
