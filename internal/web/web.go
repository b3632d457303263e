// Package web — серверные страницы: сетка объявлений, карточка, отзывы и панель админа.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"regexp"
	"strings"

	"busydostawcze/internal/client"
	"busydostawcze/internal/describe"
	"busydostawcze/internal/form"
	"busydostawcze/internal/model"
	"busydostawcze/internal/reference"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// PlaceholderImage — картинка для объявлений без фото.
const PlaceholderImage = "/static/placeholder.svg"

// Gateway — публичная часть клиента гейтвея.
type Gateway interface {
	ListActiveListings(ctx context.Context) ([]model.Listing, error)
	GetListing(ctx context.Context, id string) (model.Listing, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
}

// AdminGateway — клиент с кодом админа.
type AdminGateway interface {
	Gateway
	form.ListingWriter
	form.ReviewWriter
	ListAllListings(ctx context.Context) ([]model.Listing, error)
	DeleteListing(ctx context.Context, id string) error
	GetReview(ctx context.Context, id string) (model.Review, error)
	DeleteReview(ctx context.Context, id string) error
	UploadImage(ctx context.Context, filename string, r io.Reader) (client.Upload, error)
}

type Options struct {
	Public        Gateway
	Admin         AdminGateway
	Catalog       reference.Catalog
	AdminCode     string
	AdminPath     string // сегмент после "/admin-"
	SessionSecret string
	CookieSecure  bool
}

type Server struct {
	opt  Options
	desc *describe.Generator
	tpl  *template.Template
}

func New(opt Options) (*Server, error) {
	if opt.Catalog == nil {
		opt.Catalog = reference.Default()
	}
	opt.AdminPath = strings.Trim(opt.AdminPath, "/ ")
	if opt.AdminPath == "" {
		opt.AdminPath = "panel"
	}
	if opt.SessionSecret == "" {
		opt.SessionSecret = opt.AdminCode
	}
	tpl, err := template.New("").Funcs(funcs(opt.Catalog)).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{opt: opt, desc: describe.New(opt.Catalog), tpl: tpl}, nil
}

// AdminBase — корень панели, например "/admin-panel".
func (s *Server) AdminBase() string { return "/admin-" + s.opt.AdminPath }

// Register вешает страницы на движок; шаблоны ставятся через SetHTMLTemplate.
func (s *Server) Register(r *gin.Engine) {
	r.SetHTMLTemplate(s.tpl)

	static, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.Grid)
	r.GET("/ogloszenia", s.Grid)
	r.GET("/ogloszenie", s.Detail)
	r.GET("/ogloszenie/:id", s.Detail)
	r.GET("/opinie", s.Reviews)

	base := s.AdminBase()
	r.GET(base, s.LoginPage)
	r.POST(base+"/login", s.Login)
	r.POST(base+"/logout", s.Logout)

	admin := r.Group(base, s.RequireSession())
	{
		admin.GET("/ogloszenia", s.AdminListings)
		admin.GET("/ogloszenia/nowe", s.NewListing)
		admin.GET("/ogloszenia/:id", s.EditListing)
		admin.POST("/ogloszenia", s.SaveListing)
		admin.POST("/ogloszenia/:id", s.SaveListing)
		admin.POST("/ogloszenia/:id/usun", s.DeleteListing)

		admin.GET("/opinie", s.AdminReviews)
		admin.GET("/opinie/nowa", s.NewReview)
		admin.GET("/opinie/:id", s.EditReview)
		admin.POST("/opinie", s.SaveReview)
		admin.POST("/opinie/:id", s.SaveReview)
		admin.POST("/opinie/:id/usun", s.DeleteReview)
	}
}

// id объявления: ulid, uuid или число
var idRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validID(id string) bool { return idRe.MatchString(id) }

// errorText — причина для «Błąd: …»; сетевые ошибки показываются как есть.
func errorText(err error) string {
	var ne *client.NetworkError
	if errors.As(err, &ne) {
		return ne.Error()
	}
	return err.Error()
}
