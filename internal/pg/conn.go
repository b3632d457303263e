package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
)

// порт transaction pooler у Supabase (pgbouncer): prepared statements там не живут
const poolerPort = "6543"

// Open готовит DSN (см. Prepare), открывает пул и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", Prepare(dsn))
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", Redact(dsn), err)
	}
	return db, nil
}

func isSupabase(host string) bool {
	host = strings.ToLower(host)
	return strings.HasSuffix(host, ".supabase.co") || strings.HasSuffix(host, ".supabase.com") ||
		strings.HasSuffix(host, ".supabase.net")
}

// Prepare дописывает то, без чего Supabase не пускает:
// sslmode=require и simple protocol для pooler-порта 6543.
// Явно заданные параметры не трогаем; не-URL DSN возвращается как есть.
func Prepare(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" || !isSupabase(u.Hostname()) {
		return dsn
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
	}
	if u.Port() == poolerPort && q.Get("default_query_exec_mode") == "" {
		q.Set("default_query_exec_mode", "simple_protocol")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redact — DSN для логов, без пароля.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Redacted()
}
