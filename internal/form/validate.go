package form

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid — форма не прошла проверку (локально или на бэкенде).
var ErrInvalid = errors.New("form is invalid")

// Errors — поле -> сообщение. Ключи совпадают с колонками (json-теги модели).
type Errors map[string]string

func (e Errors) Has(field string) bool { _, ok := e[field]; return ok }

// Merge добавляет ошибки, не перетирая уже найденные.
func (e Errors) Merge(other map[string]string) {
	for k, v := range other {
		if _, ok := e[k]; !ok {
			e[k] = v
		}
	}
}

var httpURL = regexp.MustCompile(`^https?://\S+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// имя поля в ошибке — из тега form (совпадает с колонкой)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return httpURL.MatchString(fl.Field().String())
	})
	return v
}

// check прогоняет validator и собирает сообщения из тега msg.
func check(s any) Errors {
	errs := Errors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		errs["_"] = err.Error()
		return errs
	}
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for _, fe := range ves {
		if errs.Has(fe.Field()) {
			continue
		}
		msg := fe.Error()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		errs[fe.Field()] = msg
	}
	return errs
}
