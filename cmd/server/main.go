package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"busydostawcze/internal/api"
	"busydostawcze/internal/client"
	"busydostawcze/internal/config"
	"busydostawcze/internal/reference"
	"busydostawcze/internal/spa"
	"busydostawcze/internal/store"
	"busydostawcze/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// 0. .env (если есть) до чтения конфига
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Предупреждение: .env не прочитан: %v", err)
	}

	// 1. Конфиг: defaults -> config.json -> ENV -> флаги
	cfg, err := config.Load("config.json", os.Args[1:])
	if err != nil {
		log.Fatalf("Ошибка конфига: %v", err)
	}

	// 2. Справочники
	catalog := reference.Default()
	log.Printf("Загружено справочников: %d", len(catalog))

	// 3. Хранилище объявлений
	st, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("Ошибка хранилища: %v", err)
	}
	defer st.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := st.Ping(pingCtx); err != nil {
		log.Printf("Предупреждение: хранилище недоступно: %v", err)
	}
	cancel()

	// 4. Фото
	blob, err := openBlob(cfg)
	if err != nil {
		log.Printf("Предупреждение: загрузка фото выключена: %v", err)
	}

	r := gin.Default()
	api.Register(r, &api.Handlers{
		Store:         st,
		Blob:          blob,
		Catalog:       catalog,
		AdminCode:     cfg.AdminCode,
		ListingsLimit: cfg.ListingsLimit,
	})
	if cfg.BlobDriver != "supabase" {
		r.Static("/uploads", cfg.FilesRoot)
	}

	// 5. Страницы ходят в API через клиент гейтвея
	gw := client.New(cfg.APIBaseURL)
	pages, err := web.New(web.Options{
		Public:        gw,
		Admin:         gw.WithAdminCode(cfg.AdminCode),
		Catalog:       catalog,
		AdminCode:     cfg.AdminCode,
		AdminPath:     cfg.AdminPath,
		SessionSecret: cfg.AdminSessionSecret,
		CookieSecure:  cfg.CookieSecure,
	})
	if err != nil {
		log.Fatalf("Ошибка шаблонов: %v", err)
	}
	pages.Register(r)
	log.Printf("Панель админа: %s", pages.AdminBase())

	// 6. Всё остальное — статика и SPA
	static := spa.New(cfg.StaticRoot)
	if static.Index == "" {
		log.Printf("index.html не найден под %s, SPA-фолбэк выключен", cfg.StaticRoot)
	}
	r.NoRoute(static.NoRoute)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", api.AdminHeader},
		ExposedHeaders: []string{"Content-Range", "X-Total-Count"},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	go func() {
		log.Printf("Стартуем сервер на :%s (store=%s)", cfg.Port, cfg.ResolvedDriver())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Сервер упал: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Останавливаем сервер...")
	ctx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Принудительная остановка: %v", err)
	}
}

func openBlob(cfg config.Config) (api.BlobStore, error) {
	if cfg.BlobDriver == "supabase" {
		s, err := api.NewSupabaseBlobStore(cfg.SupabaseURL, cfg.SupabaseKey(), cfg.SupabaseBucket)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return &api.LocalBlobStore{Root: cfg.FilesRoot, BaseURL: "/uploads"}, nil
}
