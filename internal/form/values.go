package form

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Разбор url.Values: пустое числовое поле — nil, «1 234,5» — 1234.5.

func str(v url.Values, key string) string {
	return strings.TrimSpace(v.Get(key))
}

func boolean(v url.Values, key string) bool {
	switch strings.ToLower(str(v, key)) {
	case "1", "on", "true", "yes", "tak":
		return true
	}
	return false
}

func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	return s
}

// intPtr: ok=false значит «есть значение, но не число».
func intPtr(v url.Values, key string) (*int, bool) {
	s := normalizeNumber(v.Get(key))
	if s == "" {
		return nil, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil, false
		}
		n = int(f)
	}
	return &n, true
}

func floatPtr(v url.Values, key string) (*float64, bool) {
	s := normalizeNumber(v.Get(key))
	if s == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(s, 64)
	// ParseFloat понимает inf и NaN, в JSON они не уходят
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}
	return &f, true
}

// lines: значения поля списком — несколько значений и/или построчно в одном.
func lines(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, l := range strings.Split(raw, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
	}
	return out
}

// csv: «a, b,c» -> [a b c].
func csv(v url.Values, key string) []string {
	var out []string
	for _, p := range strings.Split(v.Get(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func itoa(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func ftoa(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
