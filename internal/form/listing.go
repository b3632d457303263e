// Package form — формы админки: разбор, проверка и отправка через гейтвей.
package form

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"busydostawcze/internal/model"
)

// ListingForm — все секции формы объявления.
type ListingForm struct {
	// 1) Podstawowe informacje
	Title          string   `form:"title" validate:"required" msg:"Tytuł jest wymagany"`
	Price          *float64 `form:"price" validate:"required,gt=0" msg:"Cena musi być większa od 0"`
	Currency       string   `form:"currency"`
	Make           string   `form:"make" validate:"required" msg:"Marka jest wymagana"`
	Model          string   `form:"model" validate:"required" msg:"Model jest wymagany"`
	ProductionYear *int     `form:"production_year" validate:"required,gte=1950" msg:"Podaj prawidłowy rok produkcji"`
	VIN            string   `form:"vin" validate:"omitempty,len=17" msg:"VIN musi mieć dokładnie 17 znaków"`
	Color          string   `form:"color"`
	Seats          *int     `form:"seats" validate:"omitempty,gte=1,lte=20" msg:"Podaj prawidłową liczbę miejsc"`
	Installments   bool     `form:"installments"`

	// 2) Dane techniczne
	FuelType       string `form:"fuel_type" validate:"required" msg:"Rodzaj paliwa jest wymagany"`
	BodyType       string `form:"body_type" validate:"required" msg:"Typ nadwozia jest wymagany"`
	Gearbox        string `form:"gearbox" validate:"required" msg:"Skrzynia biegów jest wymagana"`
	EngineCC       *int   `form:"engine_cc" validate:"omitempty,gte=0" msg:"Podaj prawidłową pojemność"`
	PowerHP        *int   `form:"power_hp" validate:"omitempty,gte=0" msg:"Podaj prawidłową moc"`
	GVWKg          *int   `form:"gvw_kg" validate:"omitempty,gte=0" msg:"Podaj prawidłową DMC"`
	TwinRearWheels bool   `form:"twin_rear_wheels"`

	// 3) Stan i historia
	Mileage            *int   `form:"mileage" validate:"required,gte=0" msg:"Przebieg jest wymagany"`
	Condition          string `form:"condition" validate:"required" msg:"Stan pojazdu jest wymagany"`
	OriginCountry      string `form:"origin_country"`
	RegistrationNumber string `form:"registration_number"`
	FirstRegistration  string `form:"first_registration"`
	AccidentFree       bool   `form:"accident_free"`
	ServicedInASO      bool   `form:"serviced_in_aso"`

	// 4) Opis i sprzedawca
	Description      string `form:"description" validate:"min=20" msg:"Opis musi mieć co najmniej 20 znaków"`
	HomeDelivery     bool   `form:"home_delivery"`
	SellerProfileURL string `form:"seller_profile_url" validate:"omitempty,httpurl" msg:"Podaj prawidłowy URL (http:// lub https://)"`
	City             string `form:"city" validate:"required" msg:"Miejscowość jest wymagana"`
	Region           string `form:"region" validate:"required" msg:"Województwo jest wymagane"`
	Street           string `form:"street"`

	// Zdjęcia, wyposażenie, publikacja
	Images   []string `form:"images"`
	Features []string `form:"features"`
	IsActive bool     `form:"is_active"`
	Featured bool     `form:"featured"`
	Sold     bool     `form:"sold"`

	// ошибки разбора чисел: проверяются раньше validator
	parseErrs Errors
}

// ParseListing собирает форму из значений POST.
// features — отмеченные чекбоксы оборудования плюс features_extra через запятую.
func ParseListing(v url.Values) ListingForm {
	f := ListingForm{
		Title:    str(v, "title"),
		Currency: strings.ToUpper(str(v, "currency")),
		Make:     str(v, "make"),
		Model:    str(v, "model"),
		VIN:      strings.ToUpper(str(v, "vin")),
		Color:    str(v, "color"),

		Installments: boolean(v, "installments"),

		FuelType:       str(v, "fuel_type"),
		BodyType:       str(v, "body_type"),
		Gearbox:        str(v, "gearbox"),
		TwinRearWheels: boolean(v, "twin_rear_wheels"),

		Condition:          str(v, "condition"),
		OriginCountry:      str(v, "origin_country"),
		RegistrationNumber: str(v, "registration_number"),
		FirstRegistration:  str(v, "first_registration"),
		AccidentFree:       boolean(v, "accident_free"),
		ServicedInASO:      boolean(v, "serviced_in_aso"),

		Description:      strings.TrimSpace(v.Get("description")),
		HomeDelivery:     boolean(v, "home_delivery"),
		SellerProfileURL: str(v, "seller_profile_url"),
		City:             str(v, "city"),
		Region:           str(v, "region"),
		Street:           str(v, "street"),

		Images:   lines(v, "images"),
		Features: uniq(append(lines(v, "features"), csv(v, "features_extra")...)),
		IsActive: boolean(v, "is_active"),
		Featured: boolean(v, "featured"),
		Sold:     boolean(v, "sold"),

		parseErrs: Errors{},
	}
	if f.Currency == "" {
		f.Currency = model.DefaultCurrency
	}

	var ok bool
	if f.Price, ok = floatPtr(v, "price"); !ok {
		f.parseErrs["price"] = "Cena musi być liczbą"
	}
	ints := []struct {
		key string
		dst **int
	}{
		{"production_year", &f.ProductionYear},
		{"seats", &f.Seats},
		{"engine_cc", &f.EngineCC},
		{"power_hp", &f.PowerHP},
		{"gvw_kg", &f.GVWKg},
		{"mileage", &f.Mileage},
	}
	for _, it := range ints {
		if *it.dst, ok = intPtr(v, it.key); !ok {
			f.parseErrs[it.key] = "Wartość musi być liczbą całkowitą"
		}
	}
	return f
}

// FromListing — форма редактирования существующего объявления.
func FromListing(l model.Listing) ListingForm {
	return ListingForm{
		Title:          l.Title,
		Price:          l.Price,
		Currency:       l.Currency,
		Make:           l.Make,
		Model:          l.Model,
		ProductionYear: l.ProductionYear,
		VIN:            l.VIN,
		Color:          l.Color,
		Seats:          l.Seats,
		Installments:   l.Installments,

		FuelType:       l.FuelType,
		BodyType:       l.BodyType,
		Gearbox:        l.Gearbox,
		EngineCC:       l.EngineCC,
		PowerHP:        l.PowerHP,
		GVWKg:          l.GVWKg,
		TwinRearWheels: l.TwinRearWheels,

		Mileage:            l.Mileage,
		Condition:          l.Condition,
		OriginCountry:      l.OriginCountry,
		RegistrationNumber: l.RegistrationNumber,
		FirstRegistration:  l.FirstRegistration,
		AccidentFree:       l.AccidentFree,
		ServicedInASO:      l.ServicedInASO,

		Description:      l.Description,
		HomeDelivery:     l.HomeDelivery,
		SellerProfileURL: l.SellerProfileURL,
		City:             l.City,
		Region:           l.Region,
		Street:           l.Street,

		Images:   l.Images,
		Features: l.Features,
		IsActive: l.IsActive,
		Featured: l.Featured,
		Sold:     l.Sold,
	}
}

// Validate: сначала ошибки разбора, затем правила validator.
func (f ListingForm) Validate() Errors {
	errs := Errors{}
	errs.Merge(f.parseErrs)
	errs.Merge(check(f))
	return errs
}

// Listing — значение формы как объявление (без id и меток времени).
func (f ListingForm) Listing() model.Listing {
	return model.Listing{
		Title:          f.Title,
		Description:    f.Description,
		Price:          f.Price,
		Currency:       f.Currency,
		Images:         f.Images,
		Features:       f.Features,
		IsActive:       f.IsActive,
		Make:           f.Make,
		Model:          f.Model,
		ProductionYear: f.ProductionYear,
		VIN:            f.VIN,
		Color:          f.Color,
		Seats:          f.Seats,
		Installments:   f.Installments,

		FuelType:       f.FuelType,
		BodyType:       f.BodyType,
		Gearbox:        f.Gearbox,
		EngineCC:       f.EngineCC,
		PowerHP:        f.PowerHP,
		GVWKg:          f.GVWKg,
		TwinRearWheels: f.TwinRearWheels,

		Mileage:            f.Mileage,
		Condition:          f.Condition,
		OriginCountry:      f.OriginCountry,
		RegistrationNumber: f.RegistrationNumber,
		FirstRegistration:  f.FirstRegistration,
		AccidentFree:       f.AccidentFree,
		ServicedInASO:      f.ServicedInASO,

		HomeDelivery:     f.HomeDelivery,
		SellerProfileURL: f.SellerProfileURL,
		City:             f.City,
		Region:           f.Region,
		Street:           f.Street,

		Featured: f.Featured,
		Sold:     f.Sold,
	}
}

// Input — тело создания; is_active передаётся явно.
func (f ListingForm) Input() model.ListingInput {
	active := f.IsActive
	return model.ListingInput{Listing: f.Listing(), IsActive: &active}
}

// Patch — все поля формы: очищенное поле тоже уходит (null / "" / []).
func (f ListingForm) Patch() model.Patch {
	images := f.Images
	if images == nil {
		images = []string{}
	}
	features := f.Features
	if features == nil {
		features = []string{}
	}
	return model.Patch{
		"title":           f.Title,
		"description":     f.Description,
		"price":           f.Price,
		"currency":        f.Currency,
		"images":          images,
		"features":        features,
		"is_active":       f.IsActive,
		"make":            f.Make,
		"model":           f.Model,
		"production_year": f.ProductionYear,
		"vin":             f.VIN,
		"color":           f.Color,
		"seats":           f.Seats,
		"installments":    f.Installments,

		"fuel_type":        f.FuelType,
		"body_type":        f.BodyType,
		"gearbox":          f.Gearbox,
		"engine_cc":        f.EngineCC,
		"power_hp":         f.PowerHP,
		"gvw_kg":           f.GVWKg,
		"twin_rear_wheels": f.TwinRearWheels,

		"mileage":             f.Mileage,
		"condition":           f.Condition,
		"origin_country":      f.OriginCountry,
		"registration_number": f.RegistrationNumber,
		"first_registration":  f.FirstRegistration,
		"accident_free":       f.AccidentFree,
		"serviced_in_aso":     f.ServicedInASO,

		"home_delivery":      f.HomeDelivery,
		"seller_profile_url": f.SellerProfileURL,
		"city":               f.City,
		"region":             f.Region,
		"street":             f.Street,

		"featured": f.Featured,
		"sold":     f.Sold,
	}
}

// Values — обратно в строки для повторного показа формы.
func (f ListingForm) Values() map[string]string {
	return map[string]string{
		"price":           ftoa(f.Price),
		"production_year": itoa(f.ProductionYear),
		"seats":           itoa(f.Seats),
		"engine_cc":       itoa(f.EngineCC),
		"power_hp":        itoa(f.PowerHP),
		"gvw_kg":          itoa(f.GVWKg),
		"mileage":         itoa(f.Mileage),
		"images":          strings.Join(f.Images, "\n"),
	}
}

// HasFeature — отмечен ли чекбокс оборудования (по подписи, без учёта регистра).
func (f ListingForm) HasFeature(name string) bool {
	for _, x := range f.Features {
		if strings.EqualFold(x, name) {
			return true
		}
	}
	return false
}

// ==== Отправка ====

// ListingWriter — то, чем форма пишет объявление (клиент гейтвея).
type ListingWriter interface {
	CreateListing(ctx context.Context, in model.ListingInput) (model.Listing, error)
	UpdateListing(ctx context.Context, id string, p model.Patch) (model.Listing, error)
}

// fieldErrorer — ошибка бэкенда с разбивкой по полям.
type fieldErrorer interface {
	FieldErrors() map[string]string
}

// ListingResult — сохранённое объявление или ошибки для показа в форме.
type ListingResult struct {
	Listing model.Listing
	Errors  Errors
}

// SubmitListing: проверка (без сетевого вызова при ошибках), затем update по id или create.
// Ошибки бэкенда по полям добавляются в Errors, err оборачивает ErrInvalid.
func SubmitListing(ctx context.Context, w ListingWriter, id string, f ListingForm) (ListingResult, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return ListingResult{Errors: errs}, ErrInvalid
	}

	var (
		saved model.Listing
		err   error
	)
	if id = strings.TrimSpace(id); id != "" {
		saved, err = w.UpdateListing(ctx, id, f.Patch())
	} else {
		saved, err = w.CreateListing(ctx, f.Input())
	}
	if err != nil {
		var fe fieldErrorer
		if errors.As(err, &fe) && len(fe.FieldErrors()) > 0 {
			errs := Errors{}
			errs.Merge(fe.FieldErrors())
			return ListingResult{Errors: errs}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return ListingResult{}, err
	}
	return ListingResult{Listing: saved, Errors: Errors{}}, nil
}
