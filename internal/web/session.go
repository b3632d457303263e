package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookie = "admin_session"
	sessionTTL    = 30 * 24 * time.Hour
	sessionIssuer = "busydostawcze"
	sessionRole   = "admin"
)

var errNoSecret = errors.New("admin session secret not configured")

func (s *Server) issueSession(now time.Time) (string, error) {
	if s.opt.SessionSecret == "" {
		return "", errNoSecret
	}
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   sessionRole,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opt.SessionSecret))
}

func (s *Server) parseSession(tok string) error {
	if s.opt.SessionSecret == "" {
		return errNoSecret
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return []byte(s.opt.SessionSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithSubject(sessionRole),
		jwt.WithExpirationRequired(),
	)
	return err
}

func (s *Server) loggedIn(c *gin.Context) bool {
	tok, err := c.Cookie(SessionCookie)
	return err == nil && tok != "" && s.parseSession(tok) == nil
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, value, maxAge, "/", "", s.opt.CookieSecure, true)
}

// RequireSession пускает в панель только с валидной сессией, иначе на логин.
func (s *Server) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loggedIn(c) {
			c.Redirect(http.StatusSeeOther, s.AdminBase())
			c.Abort()
			return
		}
		c.Next()
	}
}

type loginPage struct {
	Title         string
	Base          string
	Error         string
	NotConfigured bool
}

// GET /admin-<path>
func (s *Server) LoginPage(c *gin.Context) {
	if s.loggedIn(c) {
		c.Redirect(http.StatusSeeOther, s.AdminBase()+"/ogloszenia")
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{
		Title:         "Panel Admina",
		Base:          s.AdminBase(),
		NotConfigured: s.opt.AdminCode == "",
	})
}

// POST /admin-<path>/login — код сравнивается за постоянное время.
func (s *Server) Login(c *gin.Context) {
	p := loginPage{Title: "Panel Admina", Base: s.AdminBase()}
	if s.opt.AdminCode == "" {
		p.NotConfigured = true
		c.HTML(http.StatusInternalServerError, "login.html", p)
		return
	}
	code := strings.TrimSpace(c.PostForm("code"))
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.opt.AdminCode)) != 1 {
		p.Error = "Nieprawidłowe hasło"
		c.HTML(http.StatusUnauthorized, "login.html", p)
		return
	}
	tok, err := s.issueSession(time.Now())
	if err != nil {
		p.Error = err.Error()
		c.HTML(http.StatusInternalServerError, "login.html", p)
		return
	}
	s.setSessionCookie(c, tok, int(sessionTTL/time.Second))
	c.Redirect(http.StatusSeeOther, s.AdminBase()+"/ogloszenia")
}

func (s *Server) Logout(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, s.AdminBase())
}

// ===== flash =====

const flashCookie = "flash"

func (s *Server) setFlash(c *gin.Context, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, msg, 60, s.AdminBase(), "", s.opt.CookieSecure, true)
}

// takeFlash читает сообщение и сразу его стирает.
func (s *Server) takeFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, s.AdminBase(), "", s.opt.CookieSecure, true)
	return msg
}
