package web

import (
	"errors"
	"net/http"
	"strings"

	"busydostawcze/internal/client"
	"busydostawcze/internal/model"

	"github.com/gin-gonic/gin"
)

// ===== Сетка объявлений =====

type gridPage struct {
	Title    string
	Error    string
	Listings []model.Listing
}

// GET / — активные объявления карточками.
// Ненастроенное хранилище для посетителя выглядит как пустой список.
func (s *Server) Grid(c *gin.Context) {
	p := gridPage{Title: "Ogłoszenia"}
	rows, err := s.opt.Public.ListActiveListings(c.Request.Context())
	switch {
	case errors.Is(err, client.ErrNotConfigured):
	case err != nil:
		p.Error = errorText(err)
		c.HTML(http.StatusBadGateway, "grid.html", p)
		return
	default:
		p.Listings = rows
	}
	c.HTML(http.StatusOK, "grid.html", p)
}

// ===== Карточка объявления =====

type detailPage struct {
	Title    string
	State    string // invalid | error | notfound | ok
	Error    string
	Listing  model.Listing
	Image    string
	Location string
}

func (s *Server) Detail(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	p := detailPage{Title: "Ogłoszenie"}
	if !validID(id) {
		p.State = "invalid"
		c.HTML(http.StatusBadRequest, "detail.html", p)
		return
	}

	l, err := s.opt.Public.GetListing(c.Request.Context(), id)
	switch {
	case errors.Is(err, client.ErrNotFound), errors.Is(err, client.ErrNotConfigured):
		p.State = "notfound"
		c.HTML(http.StatusNotFound, "detail.html", p)
		return
	case err != nil:
		p.State = "error"
		p.Error = errorText(err)
		c.HTML(http.StatusBadGateway, "detail.html", p)
		return
	}

	p.State = "ok"
	p.Listing = l
	p.Title = l.Title
	p.Image = l.PrimaryImage()
	p.Location = l.Place()
	c.HTML(http.StatusOK, "detail.html", p)
}

// ===== Opinie =====

type ratingBar struct {
	Stars   int
	Count   int
	Percent int
}

type reviewsPage struct {
	Title   string
	Error   string
	Reviews []model.Review
	Average float64
	Bars    []ratingBar
	Five    int
}

// summarize — средняя и распределение 5..1.
func summarize(rs []model.Review) (avg float64, bars []ratingBar) {
	counts := make([]int, model.MaxRating+1)
	sum := 0
	for _, r := range rs {
		if r.Rating < model.MinRating || r.Rating > model.MaxRating {
			continue
		}
		counts[r.Rating]++
		sum += r.Rating
	}
	n := 0
	for _, c := range counts {
		n += c
	}
	for stars := model.MaxRating; stars >= model.MinRating; stars-- {
		b := ratingBar{Stars: stars, Count: counts[stars]}
		if n > 0 {
			b.Percent = counts[stars] * 100 / n
		}
		bars = append(bars, b)
	}
	if n > 0 {
		avg = float64(sum) / float64(n)
	}
	return avg, bars
}

func (s *Server) Reviews(c *gin.Context) {
	p := reviewsPage{Title: "Opinie klientów"}
	rows, err := s.opt.Public.ListReviews(c.Request.Context())
	switch {
	case errors.Is(err, client.ErrNotConfigured):
	case err != nil:
		p.Error = errorText(err)
		c.HTML(http.StatusBadGateway, "opinie.html", p)
		return
	default:
		p.Reviews = rows
	}
	p.Average, p.Bars = summarize(p.Reviews)
	p.Five = p.Bars[0].Count
	c.HTML(http.StatusOK, "opinie.html", p)
}
