package store

import (
	"fmt"
	"log"

	"busydostawcze/internal/config"
)

// Open выбирает драйвер по конфигу. Без кредов — unconfigured: API отвечает not_configured.
func Open(cfg config.Config) (Store, error) {
	driver := cfg.ResolvedDriver()
	switch driver {
	case config.DriverSupabase:
		s, err := NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey(), cfg.ListingsTable, cfg.ReviewsTable)
		if err != nil {
			return nil, err
		}
		log.Printf("store: supabase rest (%s, table %s)", cfg.SupabaseURL, cfg.ListingsTable)
		return s, nil
	case config.DriverPostgres:
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("%w: DATABASE_URL is empty", ErrNotConfigured)
		}
		s, err := OpenPostgres(cfg.DBURL, cfg.ListingsTable, cfg.ReviewsTable)
		if err != nil {
			return nil, err
		}
		log.Printf("store: postgres (table %s)", cfg.ListingsTable)
		return s, nil
	case config.DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "busy.db"
		}
		s, err := OpenSQLite(path, cfg.ListingsTable, cfg.ReviewsTable)
		if err != nil {
			return nil, err
		}
		log.Printf("store: sqlite (%s)", path)
		return s, nil
	case config.DriverMemory:
		log.Printf("store: in-memory (data is lost on restart)")
		return NewMemory(), nil
	case config.DriverNone:
		log.Printf("store: not configured, set SUPABASE_URL + SUPABASE_SERVICE_ROLE_KEY or DATABASE_URL")
		return NewUnconfigured(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
