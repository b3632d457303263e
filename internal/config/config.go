package config

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string `json:"port"`

	// Хранилище объявлений
	StoreDriver        string `json:"storeDriver"` // auto | supabase | postgres | sqlite | memory
	SupabaseURL        string `json:"supabaseUrl"`
	SupabaseServiceKey string `json:"supabaseServiceKey"`
	SupabaseAnonKey    string `json:"supabaseAnonKey"`
	ListingsTable      string `json:"listingsTable"`
	ReviewsTable       string `json:"reviewsTable"`
	DBURL              string `json:"dbUrl"`
	SQLitePath         string `json:"sqlitePath"`
	ListingsLimit      int    `json:"listingsLimit"`

	// Админка
	AdminCode          string `json:"adminCode"`
	AdminPath          string `json:"adminPath"`
	AdminSessionSecret string `json:"adminSessionSecret"`
	CookieSecure       bool   `json:"cookieSecure"`

	// Клиент гейтвея (страницы и админка ходят через него)
	APIBaseURL string `json:"apiBaseUrl"`

	// Статика и CORS
	StaticRoot  string   `json:"staticRoot"`
	CORSOrigins []string `json:"corsOrigins"`

	// Фото: local (default) | supabase
	BlobDriver     string `json:"blobDriver"`
	FilesRoot      string `json:"filesRoot"`
	SupabaseBucket string `json:"supabaseBucket"`
}

const (
	DriverAuto     = "auto"
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverNone     = "none"
)

func def() Config {
	return Config{
		Port:          "8080",
		StoreDriver:   DriverAuto,
		ListingsTable: "ogloszenia",
		ReviewsTable:  "opinie",
		ListingsLimit: 60,

		AdminPath: "panel",

		StaticRoot:  ".",
		CORSOrigins: []string{"*"},

		BlobDriver:     "local",
		FilesRoot:      "uploads",
		SupabaseBucket: "bus-images",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

// getenv берёт первую непустую переменную из списка.
func getenv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	if v, ok := os.LookupEnv(k); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load читает JSON по пути (если есть), потом ENV, потом флаги из args.
func Load(jsonPath string, args []string) (Config, error) {
	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		c2, err := loadJSON(jsonPath)
		if err != nil {
			return cfg, err
		}
		cfg = c2
	}

	// ENV overrides
	cfg.Port = getenv(cfg.Port, "PORT")
	cfg.StoreDriver = getenv(cfg.StoreDriver, "STORE_DRIVER")
	cfg.SupabaseURL = getenv(cfg.SupabaseURL, "SUPABASE_URL")
	cfg.SupabaseServiceKey = getenv(cfg.SupabaseServiceKey, "SUPABASE_SERVICE_ROLE_KEY")
	cfg.SupabaseAnonKey = getenv(cfg.SupabaseAnonKey, "SUPABASE_ANON_KEY")
	cfg.ListingsTable = getenv(cfg.ListingsTable, "SUPABASE_TABLE")
	cfg.ReviewsTable = getenv(cfg.ReviewsTable, "SUPABASE_REVIEWS_TABLE")
	cfg.DBURL = getenv(cfg.DBURL, "DATABASE_URL", "SUPABASE_DB_URL")
	cfg.SQLitePath = getenv(cfg.SQLitePath, "SQLITE_PATH")
	cfg.ListingsLimit = getenvInt("LISTINGS_LIMIT", cfg.ListingsLimit)

	cfg.AdminCode = getenv(cfg.AdminCode, "ADMIN_CODE")
	cfg.AdminPath = getenv(cfg.AdminPath, "ADMIN_PATH")
	cfg.AdminSessionSecret = getenv(cfg.AdminSessionSecret, "ADMIN_SESSION_SECRET", "ADMIN_JWT_SECRET")
	cfg.CookieSecure = getenvBool("COOKIE_SECURE", cfg.CookieSecure)

	cfg.APIBaseURL = getenv(cfg.APIBaseURL, "API_BASE_URL", "REACT_APP_API_URL")
	cfg.StaticRoot = getenv(cfg.StaticRoot, "STATIC_ROOT")
	if v := getenv("", "CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	cfg.BlobDriver = getenv(cfg.BlobDriver, "BLOB_DRIVER")
	cfg.FilesRoot = getenv(cfg.FilesRoot, "FILES_ROOT")
	cfg.SupabaseBucket = getenv(cfg.SupabaseBucket, "SUPABASE_BUCKET")

	// Flags overrides
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	driver := fs.String("store", cfg.StoreDriver, "Store driver (auto/supabase/postgres/sqlite/memory)")
	db := fs.String("db", cfg.DBURL, "Postgres URL")
	sqlite := fs.String("sqlite", cfg.SQLitePath, "SQLite file path")
	table := fs.String("table", cfg.ListingsTable, "Listings table")
	static := fs.String("static", cfg.StaticRoot, "Static files root")
	apiURL := fs.String("api-url", cfg.APIBaseURL, "Gateway base URL for pages and admin panel")
	blob := fs.String("blob-driver", cfg.BlobDriver, "Blob driver (local/supabase)")
	files := fs.String("files-root", cfg.FilesRoot, "Local files root (if blob=local)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	// Если через флаг передали другой конфиг — перечитаем
	if *configPath != jsonPath {
		return Load(*configPath, args)
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(*driver))
	cfg.DBURL = strings.TrimSpace(*db)
	cfg.SQLitePath = strings.TrimSpace(*sqlite)
	cfg.ListingsTable = strings.TrimSpace(*table)
	cfg.StaticRoot = strings.TrimSpace(*static)
	cfg.APIBaseURL = strings.TrimSpace(*apiURL)
	cfg.BlobDriver = strings.TrimSpace(*blob)
	cfg.FilesRoot = strings.TrimSpace(*files)

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://127.0.0.1:" + cfg.Port + "/api"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.AdminPath = strings.Trim(cfg.AdminPath, "/ ")
	if cfg.AdminSessionSecret == "" {
		cfg.AdminSessionSecret = cfg.AdminCode
	}
	return cfg, nil
}

// SupabaseKey — service role для сервера, anon как запасной вариант.
func (c Config) SupabaseKey() string {
	if c.SupabaseServiceKey != "" {
		return c.SupabaseServiceKey
	}
	return c.SupabaseAnonKey
}

// ResolvedDriver раскрывает "auto" по тому, какие креды заданы.
func (c Config) ResolvedDriver() string {
	d := strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if d != "" && d != DriverAuto {
		return d
	}
	switch {
	case c.SupabaseURL != "" && c.SupabaseKey() != "":
		return DriverSupabase
	case c.DBURL != "":
		return DriverPostgres
	case c.SQLitePath != "":
		return DriverSQLite
	default:
		return DriverNone
	}
}
