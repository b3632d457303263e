package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"busydostawcze/internal/model"
	"busydostawcze/internal/money"
	"busydostawcze/internal/reference"
)

func funcs(cat reference.Catalog) template.FuncMap {
	return template.FuncMap{
		"money": money.Ptr,
		"orDash": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "—"
			}
			return s
		},
		"titleOr": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "Bez tytułu"
			}
			return s
		},
		"image": func(l model.Listing) string {
			if img := l.PrimaryImage(); img != "" {
				return img
			}
			return PlaceholderImage
		},
		"tags": func(l model.Listing) string {
			return strings.Join(l.CardFeatures(), " • ")
		},
		"label": cat.Label,
		"catalog": func(name string) reference.EnumDirectory {
			return cat[name]
		},
		"stars": func(n int) string {
			if n < 0 {
				n = 0
			}
			if n > model.MaxRating {
				n = model.MaxRating
			}
			return strings.Repeat("★", n) + strings.Repeat("☆", model.MaxRating-n)
		},
		"decimal": func(v float64) string {
			return strings.Replace(fmt.Sprintf("%.1f", v), ".", ",", 1)
		},
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return "selected"
			}
			return ""
		},
		"checked": func(v bool) template.HTMLAttr {
			if v {
				return "checked"
			}
			return ""
		},
		"date": func(t time.Time) string {
			return t.Format("02.01.2006")
		},
	}
}
