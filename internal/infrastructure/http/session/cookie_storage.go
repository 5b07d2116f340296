package session

import (
	"encoding/base64"
	"net/http"
	"time"
)

// Browsers cap a cookie at roughly 4KB.
const maxCookieValue = 3800

type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// CookieStorage keeps the serialized cart in a cookie so the cart stays on the
// shopper's side. It is bound to one request/response pair.
type CookieStorage struct {
	cfg     CookieConfig
	request *http.Request
	writer  http.ResponseWriter

	written bool
	value   []byte
}

func NewCookieStorage(cfg CookieConfig, w http.ResponseWriter, r *http.Request) *CookieStorage {
	if cfg.Name == "" {
		cfg.Name = "cart"
	}
	return &CookieStorage{cfg: cfg, request: r, writer: w}
}

func (s *CookieStorage) Load() ([]byte, error) {
	if s.written {
		return s.value, nil
	}
	cookie, err := s.request.Cookie(s.cfg.Name)
	if err == http.ErrNoCookie {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return base64.RawURLEncoding.DecodeString(cookie.Value)
}

func (s *CookieStorage) Save(data []byte) error {
	encoded := base64.RawURLEncoding.EncodeToString(data)
	if len(encoded) > maxCookieValue {
		return ErrCookieTooLarge
	}

	s.written = true
	s.value = append([]byte(nil), data...)

	http.SetCookie(s.writer, &http.Cookie{
		Name:     s.cfg.Name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStorage) Clear() error {
	s.written = true
	s.value = nil

	http.SetCookie(s.writer, &http.Cookie{
		Name:     s.cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
