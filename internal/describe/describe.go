// Package describe собирает текст объявления из полей формы по handlebars-шаблону.
package describe

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"busydostawcze/internal/model"
	"busydostawcze/internal/money"
	"busydostawcze/internal/reference"

	"github.com/aymerick/raymond"
)

// DefaultTemplate — шаблон по умолчанию. Значения вставляются через {{{ }}}: текст, не HTML.
const DefaultTemplate = `Witam, przedmiotem sprzedaży jest:

{{{marka}}} {{{model}}}{{#if rok}} ({{rok}}){{/if}}
{{#if typNadwozia}}{{{typNadwozia}}}{{/if}}{{#if seats}} {{seats}}-osobowy{{/if}}

{{#if pierwszaRejestracja}}Data I rej.: {{{pierwszaRejestracja}}}.{{/if}}

{{#if delivery_available}}*** MOŻLIWOŚĆ DOSTARCZENIA AUTA POD DOM ***{{/if}}

# AUTO W BARDZO DOBRYM STANIE TECHNICZNYM I WIZUALNYM{{#if accident_free}}!{{/if}}
{{#if przebieg}}# Przebieg {{formatNumber przebieg}} km{{#if service_history}}, {{#if (eq service_history "pełna")}}serwisowany w ASO – gwarancja przebiegu{{else}}udokumentowany serwis{{/if}}{{/if}}.{{/if}}
{{#if accident_free}}# Bezwypadkowy.{{/if}}
{{#if financing}}# Możliwość finansowania: Leasing / Kredyt / Raty.{{/if}}

{{#if (or paliwo (or skrzynia (or moc (or pojemnosc dmc))))}}
Dane techniczne:
{{#if paliwo}}- Paliwo: {{{paliwo}}}{{/if}}
{{#if skrzynia}}- Skrzynia biegów: {{{skrzynia}}}{{/if}}
{{#if pojemnosc}}- Pojemność: {{formatNumber pojemnosc}} cm3{{/if}}
{{#if moc}}- Moc: {{moc}} KM{{/if}}
{{#if dmc}}- DMC: {{formatNumber dmc}} kg{{/if}}
{{/if}}

WYPOSAŻENIE:
{{#if (anyIn equipment "Bezpieczeństwo/układy")}}
- **Bezpieczeństwo/układy:** {{listCategory equipment "Bezpieczeństwo/układy"}}
{{/if}}
{{#if (anyIn equipment "Komfort/sterowanie")}}
- **Komfort/sterowanie:** {{listCategory equipment "Komfort/sterowanie"}}
{{/if}}
{{#if (anyIn equipment "Asysta/infotainment")}}
- **Asysta/infotainment:** {{listCategory equipment "Asysta/infotainment"}}
{{/if}}
{{#if (anyIn equipment "Nadwozie/dostęp")}}
- **Nadwozie/dostęp:** {{listCategory equipment "Nadwozie/dostęp"}}
{{/if}}
{{#if (hasFlag equipment "hak")}}
- **Hak**
{{/if}}
{{#if (hasFlag equipment "czterykola")}}
- **Napęd 4x4**
{{/if}}

{{#if lokalizacja}}Auto do obejrzenia: {{{lokalizacja}}}.{{/if}}

*** ZAPRASZAM! ***

Niniejsze ogłoszenie jest wyłącznie informacją handlową i stanowi zaproszenie do zawarcia umowy (art. 71 Kodeksu cywilnego); nie stanowi natomiast oferty handlowej w rozumieniu art. 66 § 1 KC i następnych.`

var blankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// Generator держит справочник оборудования; шаблон парсится на каждый вызов.
type Generator struct {
	equipment reference.EnumDirectory
}

func New(cat reference.Catalog) *Generator {
	return &Generator{equipment: cat[reference.Equipment]}
}

// Generate рендерит шаблон (пустой — DefaultTemplate) на контексте fields.
func (g *Generator) Generate(fields map[string]any, template string) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	tpl, err := raymond.Parse(template)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	tpl.RegisterHelpers(g.helpers())

	out, err := tpl.Exec(fields)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return tidy(out), nil
}

// Generate — с встроенными справочниками.
func Generate(fields map[string]any, template string) (string, error) {
	return New(reference.Default()).Generate(fields, template)
}

func (g *Generator) helpers() map[string]interface{} {
	return map[string]interface{}{
		"formatNumber": formatNumber,
		"eq": func(a, b interface{}) bool {
			return fmt.Sprint(a) == fmt.Sprint(b)
		},
		"or": func(a, b interface{}) bool {
			return truthy(a) || truthy(b)
		},
		"anyIn": func(equipment interface{}, category string) bool {
			flags := toFlags(equipment)
			for _, it := range g.equipment.InGroup(category) {
				if flags[it.Code] {
					return true
				}
			}
			return false
		},
		"listCategory": func(equipment interface{}, category string) raymond.SafeString {
			flags := toFlags(equipment)
			var labels []string
			for _, it := range g.equipment.InGroup(category) {
				if flags[it.Code] {
					labels = append(labels, it.Name)
				}
			}
			return raymond.SafeString(strings.Join(labels, ", "))
		},
		"hasFlag": func(equipment interface{}, flag string) bool {
			return toFlags(equipment)[flag]
		},
	}
}

// formatNumber: 185000 -> "185 000"; пустое и нечисловое — как есть.
func formatNumber(v interface{}) raymond.SafeString {
	switch n := v.(type) {
	case nil:
		return ""
	case int:
		return raymond.SafeString(money.Thousands(int64(n)))
	case int64:
		return raymond.SafeString(money.Thousands(n))
	case float64:
		if n == math.Trunc(n) {
			return raymond.SafeString(money.Thousands(int64(n)))
		}
		return raymond.SafeString(strconv.FormatFloat(n, 'f', -1, 64))
	case string:
		if i, err := strconv.ParseInt(strings.ReplaceAll(n, " ", ""), 10, 64); err == nil {
			return raymond.SafeString(money.Thousands(i))
		}
		return raymond.SafeString(n)
	}
	return raymond.SafeString(fmt.Sprint(v))
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	return true
}

func toFlags(v interface{}) map[string]bool {
	switch m := v.(type) {
	case map[string]bool:
		return m
	case map[string]interface{}:
		out := make(map[string]bool, len(m))
		for k, x := range m {
			out[k] = truthy(x)
		}
		return out
	}
	return map[string]bool{}
}

// tidy: без хвостовых пробелов, не больше одной пустой строки подряд.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ==== Контекст из объявления ====

// Fields строит контекст шаблона из объявления: подписи из справочников, оборудование из features.
func (g *Generator) Fields(l model.Listing, cat reference.Catalog) map[string]any {
	f := map[string]any{
		"tytul":               l.Title,
		"marka":               l.Make,
		"model":               l.Model,
		"typNadwozia":         cat.Label(reference.BodyTypes, l.BodyType),
		"paliwo":              cat.Label(reference.FuelTypes, l.FuelType),
		"skrzynia":            cat.Label(reference.Gearboxes, l.Gearbox),
		"stan":                cat.Label(reference.Conditions, l.Condition),
		"kolor":               l.Color,
		"pierwszaRejestracja": l.FirstRegistration,
		"delivery_available":  l.HomeDelivery,
		"accident_free":       l.AccidentFree,
		"financing":           l.Installments,
		"lokalizacja":         l.Place(),
		"equipment":           g.Equipment(l),
	}
	if l.ServicedInASO {
		f["service_history"] = "pełna"
	}
	setInt(f, "rok", l.ProductionYear)
	setInt(f, "seats", l.Seats)
	setInt(f, "przebieg", l.Mileage)
	setInt(f, "pojemnosc", l.EngineCC)
	setInt(f, "moc", l.PowerHP)
	setInt(f, "dmc", l.GVWKg)
	return f
}

func setInt(f map[string]any, key string, v *int) {
	if v != nil && *v != 0 {
		f[key] = *v
	}
}

// Equipment: теги объявления (код или подпись) -> флаги по кодам справочника.
func (g *Generator) Equipment(l model.Listing) map[string]bool {
	byName := make(map[string]string, len(g.equipment.Items))
	for _, it := range g.equipment.Items {
		byName[strings.ToLower(it.Code)] = it.Code
		byName[strings.ToLower(it.Name)] = it.Code
	}
	flags := map[string]bool{}
	for _, f := range l.Features {
		if code, ok := byName[strings.ToLower(strings.TrimSpace(f))]; ok {
			flags[code] = true
		}
	}
	if l.TwinRearWheels {
		flags["twin_wheel"] = true
	}
	return flags
}

// ForListing — описание по умолчанию для объявления.
func (g *Generator) ForListing(l model.Listing, cat reference.Catalog) (string, error) {
	return g.Generate(g.Fields(l, cat), "")
}
