package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"busydostawcze/internal/client"
	"busydostawcze/internal/form"
	"busydostawcze/internal/model"

	"github.com/gin-gonic/gin"
)

const maxFormMemory = 32 << 20

type adminPage struct {
	Title string
	Base  string
	Flash string
	Error string
}

func (s *Server) page(c *gin.Context, title string) adminPage {
	return adminPage{Title: title, Base: s.AdminBase(), Flash: s.takeFlash(c)}
}

// adminError — 401 от гейтвея значит, что код в конфиге сервера и API разошёлся.
func adminError(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "Brak uprawnień: sprawdź kod administratora"
	case errors.Is(err, client.ErrNotConfigured):
		return "Magazyn ogłoszeń nie jest skonfigurowany"
	}
	return "Błąd: " + errorText(err)
}

// ===== Объявления =====

type listingsPage struct {
	adminPage
	Listings []model.Listing
}

func (s *Server) AdminListings(c *gin.Context) {
	p := listingsPage{adminPage: s.page(c, "Ogłoszenia")}
	rows, err := s.opt.Admin.ListAllListings(c.Request.Context())
	if err != nil {
		p.Error = adminError(err)
	}
	p.Listings = rows
	c.HTML(http.StatusOK, "admin_listings.html", p)
}

type listingFormPage struct {
	adminPage
	ID     string
	Form   form.ListingForm
	Values map[string]string
	Errors form.Errors
}

func (s *Server) renderListingForm(c *gin.Context, status int, p listingFormPage) {
	if p.Errors == nil {
		p.Errors = form.Errors{}
	}
	p.Values = p.Form.Values()
	c.HTML(status, "admin_listing_form.html", p)
}

func (s *Server) NewListing(c *gin.Context) {
	f := form.ListingForm{Currency: model.DefaultCurrency, IsActive: true}
	s.renderListingForm(c, http.StatusOK, listingFormPage{adminPage: s.page(c, "Nowe ogłoszenie"), Form: f})
}

func (s *Server) EditListing(c *gin.Context) {
	id := c.Param("id")
	l, err := s.opt.Admin.GetListing(c.Request.Context(), id)
	if err != nil {
		p := listingsPage{adminPage: s.page(c, "Ogłoszenia")}
		p.Error = adminError(err)
		status := http.StatusBadGateway
		if errors.Is(err, client.ErrNotFound) {
			p.Error = "Nie znaleziono ogłoszenia."
			status = http.StatusNotFound
		}
		c.HTML(status, "admin_listings.html", p)
		return
	}
	s.renderListingForm(c, http.StatusOK, listingFormPage{
		adminPage: s.page(c, "Edycja: "+l.Title),
		ID:        id,
		Form:      form.FromListing(l),
	})
}

// POST /ogloszenia[/:id]
// action=generate — только «Generuj opis», без сохранения.
func (s *Server) SaveListing(c *gin.Context) {
	id := c.Param("id")
	p := listingFormPage{adminPage: s.page(c, "Ogłoszenie"), ID: id}

	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		p.Error = "Nie udało się odczytać formularza: " + err.Error()
		s.renderListingForm(c, http.StatusBadRequest, p)
		return
	}
	f := form.ParseListing(c.Request.PostForm)
	p.Form = f

	// 1) фото: загружаем до сохранения и дописываем url
	if fh, err := c.FormFile("photo"); err == nil {
		file, err := fh.Open()
		if err == nil {
			up, uerr := s.opt.Admin.UploadImage(c.Request.Context(), fh.Filename, file)
			file.Close()
			err = uerr
			if err == nil {
				f.Images = append(f.Images, up.URL)
				p.Form = f
			}
		}
		if err != nil {
			p.Errors = form.Errors{"images": "Nie udało się wgrać zdjęcia: " + errorText(err)}
			s.renderListingForm(c, http.StatusBadGateway, p)
			return
		}
	}

	// 2) генерация описания
	if c.PostForm("action") == "generate" {
		text, err := s.desc.ForListing(f.Listing(), s.opt.Catalog)
		if err != nil {
			p.Error = "Nie udało się wygenerować opisu: " + err.Error()
		} else {
			f.Description = text
			p.Form = f
		}
		s.renderListingForm(c, http.StatusOK, p)
		return
	}

	// 3) сохранение через гейтвей
	res, err := form.SubmitListing(c.Request.Context(), s.opt.Admin, id, f)
	if err != nil {
		p.Errors = res.Errors
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, form.ErrInvalid) {
			log.Printf("save listing %q: %v", id, err)
			p.Error = adminError(err)
			status = http.StatusBadGateway
		} else {
			p.Error = "Popraw błędy w formularzu"
		}
		s.renderListingForm(c, status, p)
		return
	}
	s.setFlash(c, fmt.Sprintf("Zapisano ogłoszenie „%s”", res.Listing.Title))
	c.Redirect(http.StatusSeeOther, s.AdminBase()+"/ogloszenia")
}

func (s *Server) DeleteListing(c *gin.Context) {
	if err := s.opt.Admin.DeleteListing(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("delete listing %q: %v", c.Param("id"), err)
		s.setFlash(c, adminError(err))
	} else {
		s.setFlash(c, "Usunięto ogłoszenie")
	}
	c.Redirect(http.StatusSeeOther, s.AdminBase()+"/ogloszenia")
}

// ===== Отзывы =====

type adminReviewsPage struct {
	adminPage
	Reviews []model.Review
}

func (s *Server) AdminReviews(c *gin.Context) {
	p := adminReviewsPage{adminPage: s.page(c, "Opinie")}
	rows, err := s.opt.Admin.ListReviews(c.Request.Context())
	if err != nil {
		p.Error = adminError(err)
	}
	p.Reviews = rows
	c.HTML(http.StatusOK, "admin_reviews.html", p)
}

type reviewFormPage struct {
	adminPage
	ID     string
	Form   form.ReviewForm
	Errors form.Errors
}

func (s *Server) renderReviewForm(c *gin.Context, status int, p reviewFormPage) {
	if p.Errors == nil {
		p.Errors = form.Errors{}
	}
	c.HTML(status, "admin_review_form.html", p)
}

func (s *Server) NewReview(c *gin.Context) {
	s.renderReviewForm(c, http.StatusOK, reviewFormPage{
		adminPage: s.page(c, "Nowa opinia"),
		Form:      form.ReviewForm{Rating: model.MaxRating, Visible: true},
	})
}

func (s *Server) EditReview(c *gin.Context) {
	id := c.Param("id")
	r, err := s.opt.Admin.GetReview(c.Request.Context(), id)
	if err != nil {
		p := adminReviewsPage{adminPage: s.page(c, "Opinie")}
		p.Error = adminError(err)
		status := http.StatusBadGateway
		if errors.Is(err, client.ErrNotFound) {
			p.Error = "Nie znaleziono opinii."
			status = http.StatusNotFound
		}
		c.HTML(status, "admin_reviews.html", p)
		return
	}
	s.renderReviewForm(c, http.StatusOK, reviewFormPage{
		adminPage: s.page(c, "Edycja opinii"),
		ID:        id,
		Form:      form.FromReview(r),
	})
}

func (s *Server) SaveReview(c *gin.Context) {
	id := c.Param("id")
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	f := form.ParseReview(c.Request.PostForm)
	p := reviewFormPage{adminPage: s.page(c, "Opinia"), ID: id, Form: f}

	res, err := form.SubmitReview(c.Request.Context(), s.opt.Admin, id, f)
	if err != nil {
		p.Errors = res.Errors
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, form.ErrInvalid) {
			log.Printf("save review %q: %v", id, err)
			p.Error = adminError(err)
			status = http.StatusBadGateway
		} else {
			p.Error = "Popraw błędy w formularzu"
		}
		s.renderReviewForm(c, status, p)
		return
	}
	s.setFlash(c, "Zapisano opinię: "+strings.TrimSpace(res.Review.AuthorName))
	c.Redirect(http.StatusSeeOther, s.AdminBase()+"/opinie")
}

func (s *Server) DeleteReview(c *gin.Context) {
	if err := s.opt.Admin.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("delete review %q: %v", c.Param("id"), err)
		s.setFlash(c, adminError(err))
	} else {
		s.setFlash(c, "Usunięto opinię")
	}
	c.Redirect(http.StatusSeeOther, s.AdminBase()+"/opinie")
}

// Ratings — варианты оценки в селекте, от лучшей.
func (reviewFormPage) Ratings() []int {
	out := make([]int, 0, model.MaxRating)
	for n := model.MaxRating; n >= model.MinRating; n-- {
		out = append(out, n)
	}
	return out
}
