package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"busydostawcze/internal/model"
	"busydostawcze/internal/pg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ==================== Строки таблиц ====================

type listingRow struct {
	ID          string   `gorm:"primaryKey;size:64"`
	Title       string   `gorm:"not null;check:title_present,title <> ''"`
	Description string   `gorm:"type:text"`
	Price       *float64 `gorm:"column:price"`
	Currency    string   `gorm:"size:3;not null"`
	Location    string
	Images      datatypes.JSONSlice[string] `gorm:"column:images"`
	Features    datatypes.JSONSlice[string] `gorm:"column:features"`
	IsActive    bool                        `gorm:"column:is_active;not null"`
	CreatedAt   time.Time                   `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at"`

	Make           string
	Model          string
	ProductionYear *int   `gorm:"column:production_year"`
	VIN            string `gorm:"column:vin;size:17"`
	Color          string
	Seats          *int
	Installments   bool

	FuelType       string `gorm:"column:fuel_type"`
	BodyType       string `gorm:"column:body_type"`
	Gearbox        string
	EngineCC       *int `gorm:"column:engine_cc"`
	PowerHP        *int `gorm:"column:power_hp"`
	GVWKg          *int `gorm:"column:gvw_kg"`
	TwinRearWheels bool `gorm:"column:twin_rear_wheels"`

	Mileage            *int
	Condition          string
	OriginCountry      string `gorm:"column:origin_country"`
	RegistrationNumber string `gorm:"column:registration_number"`
	FirstRegistration  string `gorm:"column:first_registration"`
	AccidentFree       bool   `gorm:"column:accident_free"`
	ServicedInASO      bool   `gorm:"column:serviced_in_aso"`

	HomeDelivery     bool   `gorm:"column:home_delivery"`
	SellerProfileURL string `gorm:"column:seller_profile_url"`
	City             string
	Region           string
	Street           string

	Featured bool
	Sold     bool
}

type reviewRow struct {
	ID               string    `gorm:"primaryKey;size:64"`
	AuthorName       string    `gorm:"column:author_name;not null;check:author_present,author_name <> ''"`
	BusinessType     string    `gorm:"column:business_type"`
	Rating           int       `gorm:"not null;check:rating_range,rating BETWEEN 1 AND 5"`
	Comment          string    `gorm:"type:text"`
	Visible          bool      `gorm:"not null"`
	PurchasedVehicle string    `gorm:"column:purchased_vehicle"`
	CreatedAt        time.Time `gorm:"column:created_at;not null"`
}

// имена check-ограничений -> поле формы
var constraintFields = map[string]string{
	"title_present":  "title",
	"author_present": "author_name",
	"rating_range":   "rating",
}

// ==================== SQL store ====================

// SQL — хранилище на gorm: Postgres (в т.ч. Supabase DB) или SQLite.
type SQL struct {
	db       *gorm.DB
	listings string
	reviews  string
}

// NewSQL мигрирует таблицы и возвращает store.
func NewSQL(db *gorm.DB, listingsTable, reviewsTable string) (*SQL, error) {
	lt, err := pg.SafeTable(listingsTable)
	if err != nil {
		return nil, err
	}
	rt, err := pg.SafeTable(reviewsTable)
	if err != nil {
		return nil, err
	}
	s := &SQL{db: db, listings: lt, reviews: rt}
	if err := db.Table(lt).AutoMigrate(&listingRow{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", lt, err)
	}
	if err := db.Table(rt).AutoMigrate(&reviewRow{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", rt, err)
	}
	return s, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
}

// OpenPostgres: pgx-пул из internal/pg, поверх него gorm, затем индексы.
func OpenPostgres(dsn, listingsTable, reviewsTable string) (*SQL, error) {
	sqlDB, err := pg.Open(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	s, err := NewSQL(gdb, listingsTable, reviewsTable)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	ddl := append(pg.ListingIndexes(s.listings), pg.ReviewIndexes(s.reviews)...)
	if err := pg.ApplyDDL(sqlDB, ddl); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite — локальный запасной вариант без внешней БД.
func OpenSQLite(path, listingsTable, reviewsTable string) (*SQL, error) {
	gdb, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	// одно соединение: для ":memory:" каждое новое соединение — пустая база
	sqlDB.SetMaxOpenConns(1)
	return NewSQL(gdb, listingsTable, reviewsTable)
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== Listings ====================

func (s *SQL) ListListings(ctx context.Context, q ListQuery) ([]model.Listing, int, error) {
	q = q.Normalize(0)
	base := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Table(s.listings)
		switch {
		case q.ActiveOnly:
			tx = tx.Where("is_active = ?", true)
		case q.InactiveOnly:
			tx = tx.Where("is_active = ?", false)
		}
		if q.FeaturedOnly {
			tx = tx.Where("featured = ?", true)
		}
		if q.Search != "" {
			tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
		}
		return tx
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	// SortField уже из белого списка — можно подставлять в ORDER BY
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	order := fmt.Sprintf("%s %s NULLS LAST", q.SortField, dir)
	if q.SortField != "created_at" {
		order += ", created_at DESC"
	}

	var rows []listingRow
	if err := base().Order(order).Offset(q.Offset).Limit(q.Limit).Find(&rows).Error; err != nil {
		return nil, 0, translate(err)
	}
	out := make([]model.Listing, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, int(total), nil
}

func (s *SQL) GetListing(ctx context.Context, id string) (model.Listing, error) {
	var row listingRow
	if err := s.db.WithContext(ctx).Table(s.listings).Where("id = ?", id).Take(&row).Error; err != nil {
		return model.Listing{}, translate(err)
	}
	return row.toModel(), nil
}

func (s *SQL) CreateListing(ctx context.Context, l model.Listing) (model.Listing, error) {
	if err := checkListing(l); err != nil {
		return model.Listing{}, err
	}
	now := time.Now().UTC()
	row := listingToRow(l)
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now
	if row.Currency == "" {
		row.Currency = model.DefaultCurrency
	}
	if err := s.db.WithContext(ctx).Table(s.listings).Create(&row).Error; err != nil {
		return model.Listing{}, translate(err)
	}
	return row.toModel(), nil
}

func (s *SQL) UpdateListing(ctx context.Context, id string, p model.Patch) (model.Listing, error) {
	p, err := cleanPatch(p, model.ListingColumns)
	if err != nil {
		return model.Listing{}, err
	}

	var out model.Listing
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row listingRow
		if err := tx.Table(s.listings).Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		// патч проходит через модель: типы проверяются одинаково для всех драйверов
		next, err := model.Apply(row.toModel(), p)
		if err != nil {
			return &ValidationError{Message: err.Error()}
		}
		if err := checkListing(next); err != nil {
			return err
		}
		nextRow := listingToRow(next)
		nextRow.ID = row.ID
		nextRow.CreatedAt = row.CreatedAt
		nextRow.UpdatedAt = time.Now().UTC()

		cols := append(patchColumns(p), "updated_at")
		if err := tx.Table(s.listings).Where("id = ?", id).Select(cols).Updates(&nextRow).Error; err != nil {
			return err
		}
		out = nextRow.toModel()
		return nil
	})
	if err != nil {
		return model.Listing{}, translate(err)
	}
	return out, nil
}

func (s *SQL) DeleteListing(ctx context.Context, id string) error {
	// 0 затронутых строк — не ошибка
	return translate(s.db.WithContext(ctx).Table(s.listings).Where("id = ?", id).Delete(&listingRow{}).Error)
}

// ==================== Reviews ====================

func (s *SQL) ListReviews(ctx context.Context, q ReviewQuery) ([]model.Review, error) {
	tx := s.db.WithContext(ctx).Table(s.reviews)
	if q.VisibleOnly {
		tx = tx.Where("visible = ?", true)
	}
	var rows []reviewRow
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Review, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *SQL) GetReview(ctx context.Context, id string) (model.Review, error) {
	var row reviewRow
	if err := s.db.WithContext(ctx).Table(s.reviews).Where("id = ?", id).Take(&row).Error; err != nil {
		return model.Review{}, translate(err)
	}
	return row.toModel(), nil
}

func (s *SQL) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
	if err := checkReview(r); err != nil {
		return model.Review{}, err
	}
	row := reviewToRow(r)
	row.ID = uuid.NewString()
	row.CreatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Table(s.reviews).Create(&row).Error; err != nil {
		return model.Review{}, translate(err)
	}
	return row.toModel(), nil
}

func (s *SQL) UpdateReview(ctx context.Context, id string, p model.Patch) (model.Review, error) {
	p, err := cleanPatch(p, model.ReviewColumns)
	if err != nil {
		return model.Review{}, err
	}
	var out model.Review
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row reviewRow
		if err := tx.Table(s.reviews).Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		next, err := model.Apply(row.toModel(), p)
		if err != nil {
			return &ValidationError{Message: err.Error()}
		}
		if err := checkReview(next); err != nil {
			return err
		}
		nextRow := reviewToRow(next)
		nextRow.ID = row.ID
		nextRow.CreatedAt = row.CreatedAt
		if len(p) > 0 {
			if err := tx.Table(s.reviews).Where("id = ?", id).Select(patchColumns(p)).Updates(&nextRow).Error; err != nil {
				return err
			}
		}
		out = nextRow.toModel()
		return nil
	})
	if err != nil {
		return model.Review{}, translate(err)
	}
	return out, nil
}

func (s *SQL) DeleteReview(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Table(s.reviews).Where("id = ?", id).Delete(&reviewRow{}).Error)
}

// ==================== Ошибки ====================

// translate приводит ошибки gorm/pgx/sqlite к ошибкам пакета.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	// Postgres: классы 22 (data exception) и 23 (integrity constraint)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			field := pgErr.ColumnName
			if f, ok := constraintFields[pgErr.ConstraintName]; ok {
				field = f
			}
			if field == "" {
				return &ValidationError{Message: pgErr.Message}
			}
			return invalid(field, pgErr.Message)
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, pgErr.Message)
	}

	// SQLite: "CHECK constraint failed: title_present", "NOT NULL constraint failed: t.title"
	msg := err.Error()
	if i := strings.Index(msg, "constraint failed: "); i >= 0 {
		name := strings.TrimSpace(msg[i+len("constraint failed: "):])
		if f, ok := constraintFields[name]; ok {
			return invalid(f, msg)
		}
		if _, col, ok := strings.Cut(name, "."); ok {
			return invalid(col, msg)
		}
		return &ValidationError{Message: msg}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// patchColumns — имена колонок совпадают с json-тегами модели.
func patchColumns(p model.Patch) []string {
	cols := make([]string, 0, len(p))
	for k := range p {
		cols = append(cols, k)
	}
	return cols
}

// ==================== Маппинг ====================

func listingToRow(l model.Listing) listingRow {
	return listingRow{
		ID:          string(l.ID),
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Currency:    l.Currency,
		Location:    l.Location,
		Images:      datatypes.JSONSlice[string](l.Images),
		Features:    datatypes.JSONSlice[string](l.Features),
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,

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

		HomeDelivery:     l.HomeDelivery,
		SellerProfileURL: l.SellerProfileURL,
		City:             l.City,
		Region:           l.Region,
		Street:           l.Street,

		Featured: l.Featured,
		Sold:     l.Sold,
	}
}

func (r listingRow) toModel() model.Listing {
	return model.Listing{
		ID:          model.ID(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		Location:    r.Location,
		Images:      []string(r.Images),
		Features:    []string(r.Features),
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),

		Make:           r.Make,
		Model:          r.Model,
		ProductionYear: r.ProductionYear,
		VIN:            r.VIN,
		Color:          r.Color,
		Seats:          r.Seats,
		Installments:   r.Installments,

		FuelType:       r.FuelType,
		BodyType:       r.BodyType,
		Gearbox:        r.Gearbox,
		EngineCC:       r.EngineCC,
		PowerHP:        r.PowerHP,
		GVWKg:          r.GVWKg,
		TwinRearWheels: r.TwinRearWheels,

		Mileage:            r.Mileage,
		Condition:          r.Condition,
		OriginCountry:      r.OriginCountry,
		RegistrationNumber: r.RegistrationNumber,
		FirstRegistration:  r.FirstRegistration,
		AccidentFree:       r.AccidentFree,
		ServicedInASO:      r.ServicedInASO,

		HomeDelivery:     r.HomeDelivery,
		SellerProfileURL: r.SellerProfileURL,
		City:             r.City,
		Region:           r.Region,
		Street:           r.Street,

		Featured: r.Featured,
		Sold:     r.Sold,
	}
}

func reviewToRow(r model.Review) reviewRow {
	return reviewRow{
		ID:               string(r.ID),
		AuthorName:       r.AuthorName,
		BusinessType:     r.BusinessType,
		Rating:           r.Rating,
		Comment:          r.Comment,
		Visible:          r.Visible,
		PurchasedVehicle: r.PurchasedVehicle,
		CreatedAt:        r.CreatedAt,
	}
}

func (r reviewRow) toModel() model.Review {
	return model.Review{
		ID:               model.ID(r.ID),
		AuthorName:       r.AuthorName,
		BusinessType:     r.BusinessType,
		Rating:           r.Rating,
		Comment:          r.Comment,
		Visible:          r.Visible,
		PurchasedVehicle: r.PurchasedVehicle,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}
