package api

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"busydostawcze/internal/store"
)

// ==== Параметры списка в стиле react-admin ====
//
//	filter={"q":"transit","is_active":true}
//	sort=["price","ASC"]
//	range=[0,24]
//
// Плюс json-server: _sort/_order/_start/_end и q.

type SortKey struct {
	Field string
	Desc  bool
}

type ListParams struct {
	Offset  int
	Limit   int
	Sort    SortKey
	Filters map[string]any
	Q       string
}

const maxPage = 100

func parseListParams(q url.Values) ListParams {
	lp := ListParams{Limit: 25, Filters: map[string]any{}}

	// range=[start,end] (включительно)
	if rv := strings.TrimSpace(q.Get("range")); rv != "" {
		var rng []int
		if err := json.Unmarshal([]byte(rv), &rng); err == nil && len(rng) == 2 && rng[0] >= 0 && rng[1] >= rng[0] {
			lp.Offset = rng[0]
			lp.Limit = rng[1] - rng[0] + 1
		}
	} else {
		start, errS := strconv.Atoi(q.Get("_start"))
		end, errE := strconv.Atoi(q.Get("_end"))
		if errS == nil && errE == nil && start >= 0 && end > start {
			lp.Offset = start
			lp.Limit = end - start
		}
	}
	if lp.Limit > maxPage {
		lp.Limit = maxPage
	}

	// sort=["field","ASC|DESC"]
	if sv := strings.TrimSpace(q.Get("sort")); sv != "" {
		var pair []string
		if err := json.Unmarshal([]byte(sv), &pair); err == nil && len(pair) >= 1 {
			lp.Sort.Field = pair[0]
			lp.Sort.Desc = len(pair) > 1 && strings.EqualFold(pair[1], "DESC")
		}
	} else if f := strings.TrimSpace(q.Get("_sort")); f != "" {
		lp.Sort.Field = strings.TrimPrefix(f, "-")
		lp.Sort.Desc = strings.HasPrefix(f, "-") || strings.EqualFold(q.Get("_order"), "DESC")
	}

	// filter={...}
	if fv := strings.TrimSpace(q.Get("filter")); fv != "" {
		_ = json.Unmarshal([]byte(fv), &lp.Filters)
	}
	lp.Q = strings.TrimSpace(q.Get("q"))
	if s, ok := lp.Filters["q"].(string); ok && lp.Q == "" {
		lp.Q = strings.TrimSpace(s)
	}
	return lp
}

// boolFilter: true/false, "true"/"false", 1/0; ok=false — фильтра нет или он непонятен.
func boolFilter(f map[string]any, key string) (value, ok bool) {
	switch v := f[key].(type) {
	case bool:
		return v, true
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
	case float64:
		return v != 0, true
	}
	return false, false
}

// toStoreQuery: is_active учитывается только для админа, публичный вызов видит активные.
func (lp ListParams) toStoreQuery(admin bool) store.ListQuery {
	sq := store.ListQuery{
		ActiveOnly: true,
		Search:     lp.Q,
		SortField:  lp.Sort.Field,
		SortDesc:   lp.Sort.Desc,
		Offset:     lp.Offset,
		Limit:      lp.Limit,
	}
	if lp.Sort.Field == "" {
		sq.SortField, sq.SortDesc = "created_at", true
	}
	if admin {
		active, ok := boolFilter(lp.Filters, "is_active")
		sq.ActiveOnly = ok && active
		sq.InactiveOnly = ok && !active
	}
	return sq.Normalize(maxPage)
}
