package pg

import (
	"fmt"
	"strings"
)

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// SafeTable проверяет имя таблицы из конфига: только [a-z0-9_], без ключевых слов.
func SafeTable(name string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(name))
	if t == "" {
		return "", fmt.Errorf("empty table name")
	}
	for _, r := range t {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return "", fmt.Errorf("invalid table name %q", name)
		}
	}
	if isReserved(t) {
		return "", fmt.Errorf("table name %q is a reserved word", name)
	}
	return t, nil
}

func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

// ListingIndexes — индексы под публичную выдачу: активные, новые сверху.
func ListingIndexes(table string) []string {
	t := sqlIdent(table)
	return []string{
		fmt.Sprintf(`create index if not exists %s on %s ("created_at" desc);`, sqlIdent(table+"_created_idx"), t),
		fmt.Sprintf(`create index if not exists %s on %s ("created_at" desc) where "is_active";`, sqlIdent(table+"_active_idx"), t),
	}
}

func ReviewIndexes(table string) []string {
	return []string{
		fmt.Sprintf(`create index if not exists %s on %s ("visible", "created_at" desc);`, sqlIdent(table+"_visible_idx"), sqlIdent(table)),
	}
}
