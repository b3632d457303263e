package model

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Patch — частичное обновление: только переданные поля.
type Patch map[string]any

var (
	ListingColumns = jsonColumns(reflect.TypeOf(Listing{}))
	ReviewColumns  = jsonColumns(reflect.TypeOf(Review{}))
)

// системные колонки, которые клиент не пишет
var systemColumns = map[string]struct{}{
	"id": {}, "created_at": {}, "updated_at": {},
}

func jsonColumns(t reflect.Type) map[string]struct{} {
	out := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		out[name] = struct{}{}
	}
	return out
}

// Clean выкидывает системные колонки и возвращает ошибки по неизвестным.
func (p Patch) Clean(allowed map[string]struct{}) (Patch, map[string]string) {
	out := make(Patch, len(p))
	var bad map[string]string
	for k, v := range p {
		if _, sys := systemColumns[k]; sys {
			continue
		}
		if _, ok := allowed[k]; !ok {
			if bad == nil {
				bad = map[string]string{}
			}
			bad[k] = "Nieznane pole"
			continue
		}
		out[k] = v
	}
	return out, bad
}

// Columns — строка в виде map без системных колонок (для insert через REST).
func Columns(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k := range systemColumns {
		delete(m, k)
	}
	return m, nil
}

// Apply накладывает патч на копию cur через JSON; cur не меняется.
func Apply[T any](cur T, p Patch) (T, error) {
	var out T
	b, err := json.Marshal(cur)
	if err != nil {
		return out, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return out, err
	}
	for k, v := range p {
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, err
	}
	return out, nil
}
