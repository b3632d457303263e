package reference

// EnumDirectory описывает один справочник типа enum
type EnumDirectory struct {
	Name  string     `yaml:"name" json:"name"`
	Title string     `yaml:"title,omitempty" json:"title,omitempty"`
	Items []EnumItem `yaml:"items" json:"items"`
}

type EnumItem struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
	// Group — категория внутри справочника (для оборудования: «Bezpieczeństwo/układy» и т.п.)
	Group string `yaml:"group,omitempty" json:"group,omitempty"`
	Order int    `yaml:"order,omitempty" json:"order,omitempty"`
}

// Label — человекочитаемое имя по коду; неизвестный код возвращается как есть.
func (d EnumDirectory) Label(code string) string {
	for _, it := range d.Items {
		if it.Code == code {
			return it.Name
		}
	}
	return code
}

func (d EnumDirectory) Has(code string) bool {
	for _, it := range d.Items {
		if it.Code == code {
			return true
		}
	}
	return false
}

// Groups — группы в порядке первого появления.
func (d EnumDirectory) Groups() []string {
	var out []string
	seen := map[string]bool{}
	for _, it := range d.Items {
		if it.Group == "" || seen[it.Group] {
			continue
		}
		seen[it.Group] = true
		out = append(out, it.Group)
	}
	return out
}

// InGroup — элементы одной группы в порядке справочника.
func (d EnumDirectory) InGroup(group string) []EnumItem {
	var out []EnumItem
	for _, it := range d.Items {
		if it.Group == group {
			out = append(out, it)
		}
	}
	return out
}
