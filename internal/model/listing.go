package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

const DefaultCurrency = "PLN"

// MaxCardFeatures — сколько тегов показываем на карточке; в базе может быть больше.
const MaxCardFeatures = 6

// ID принимает и строку, и число: таблица в Supabase бывает с bigint-ключом.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Listing — объявление о продаже фургона; единственная хранимая сущность.
type Listing struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Location    string    `json:"location,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Features    []string  `json:"features,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Секция 1: основное
	Make           string `json:"make,omitempty"`
	Model          string `json:"model,omitempty"`
	ProductionYear *int   `json:"production_year,omitempty"`
	VIN            string `json:"vin,omitempty"`
	Color          string `json:"color,omitempty"`
	Seats          *int   `json:"seats,omitempty"`
	Installments   bool   `json:"installments,omitempty"`

	// Секция 2: техника
	FuelType       string `json:"fuel_type,omitempty"`
	BodyType       string `json:"body_type,omitempty"`
	Gearbox        string `json:"gearbox,omitempty"`
	EngineCC       *int   `json:"engine_cc,omitempty"`
	PowerHP        *int   `json:"power_hp,omitempty"`
	GVWKg          *int   `json:"gvw_kg,omitempty"`
	TwinRearWheels bool   `json:"twin_rear_wheels,omitempty"`

	// Секция 3: состояние и история
	Mileage            *int   `json:"mileage,omitempty"`
	Condition          string `json:"condition,omitempty"`
	OriginCountry      string `json:"origin_country,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	FirstRegistration  string `json:"first_registration,omitempty"`
	AccidentFree       bool   `json:"accident_free,omitempty"`
	ServicedInASO      bool   `json:"serviced_in_aso,omitempty"`

	// Секция 4: продавец
	HomeDelivery     bool   `json:"home_delivery,omitempty"`
	SellerProfileURL string `json:"seller_profile_url,omitempty"`
	City             string `json:"city,omitempty"`
	Region           string `json:"region,omitempty"`
	Street           string `json:"street,omitempty"`

	Featured bool `json:"featured,omitempty"`
	Sold     bool `json:"sold,omitempty"`
}

// Place — то, что показываем как «локацию»: location, иначе «город, воеводство».
func (l Listing) Place() string {
	if s := strings.TrimSpace(l.Location); s != "" {
		return s
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{l.City, l.Region} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// PrimaryImage — первое фото или "" (плейсхолдер подставляет рендер).
func (l Listing) PrimaryImage() string {
	for _, img := range l.Images {
		if s := strings.TrimSpace(img); s != "" {
			return s
		}
	}
	return ""
}

// CardFeatures обрезает теги до MaxCardFeatures.
func (l Listing) CardFeatures() []string {
	out := make([]string, 0, MaxCardFeatures)
	for _, f := range l.Features {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		out = append(out, f)
		if len(out) == MaxCardFeatures {
			break
		}
	}
	return out
}

// ListingInput — тело POST: is_active отдельно, чтобы отличить «не передан» от false.
type ListingInput struct {
	Listing
	IsActive *bool `json:"is_active"`
}

// ToListing применяет дефолты создания и сбрасывает то, что назначает хранилище.
func (in ListingInput) ToListing() Listing {
	l := in.Listing
	l.ID = ""
	l.CreatedAt = time.Time{}
	l.UpdatedAt = time.Time{}
	l.IsActive = in.IsActive == nil || *in.IsActive
	if strings.TrimSpace(l.Currency) == "" {
		l.Currency = DefaultCurrency
	}
	l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
	return l
}

// Ad — «короткая» форма для /api/ads.
type Ad struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Price       *float64  `json:"price"`
	Currency    string    `json:"currency"`
	City        string    `json:"city"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (l Listing) Ad() Ad {
	city := l.City
	if city == "" {
		city = l.Place()
	}
	cur := l.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return Ad{
		ID:          l.ID,
		Title:       l.Title,
		Price:       l.Price,
		Currency:    cur,
		City:        city,
		ImageURL:    l.PrimaryImage(),
		Description: l.Description,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
	}
}
