package reference

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Имена справочников, на которые опираются форма и генератор описаний.
const (
	FuelTypes  = "fuel_type"
	BodyTypes  = "body_type"
	Gearboxes  = "gearbox"
	Conditions = "condition"
	Regions    = "region"
	Equipment  = "equipment"
)

//go:embed enums/*.yaml
var builtin embed.FS

// Catalog — все справочники по имени.
type Catalog map[string]EnumDirectory

// LoadEnumCatalog читает все enum-справочники из dir внутри fsys
func LoadEnumCatalog(fsys fs.FS, dir string) (Catalog, error) {
	result := make(Catalog)
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// Имя справочника — из enumDir.Name или из имени файла
		if enumDir.Name == "" {
			enumDir.Name = strings.TrimSuffix(name, path.Ext(name))
		}
		sort.SliceStable(enumDir.Items, func(i, j int) bool {
			return enumDir.Items[i].Order < enumDir.Items[j].Order
		})
		result[enumDir.Name] = enumDir
	}
	return result, nil
}

var (
	defaultOnce sync.Once
	defaultCat  Catalog
)

// Default — встроенные справочники (enums/*.yaml). Ошибка разбора — баг сборки, поэтому panic.
func Default() Catalog {
	defaultOnce.Do(func() {
		c, err := LoadEnumCatalog(builtin, "enums")
		if err != nil {
			panic(fmt.Sprintf("reference: builtin catalogs: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Names — имена справочников по алфавиту.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Label(dir, code): код -> подпись; неизвестный справочник или код — сам код.
func (c Catalog) Label(dir, code string) string {
	d, ok := c[dir]
	if !ok {
		return code
	}
	return d.Label(code)
}
