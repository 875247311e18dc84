package http

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

var _ repository.SessionStore = (*CookieStore)(nil)

// CookieConfig atributos de las cookies de sesión.
type CookieConfig struct {
	Domain string
	Secure bool
}

// CookieStore SessionStore sobre las cookies de la solicitud actual: una cookie por
// clave. Las escrituras se ven en lecturas posteriores de la misma solicitud.
type CookieStore struct {
	c       *fiber.Ctx
	cfg     CookieConfig
	pending map[string]string
}

// NewCookieStore ata el store a la solicitud.
func NewCookieStore(c *fiber.Ctx, cfg CookieConfig) *CookieStore {
	return &CookieStore{c: c, cfg: cfg, pending: make(map[string]string)}
}

func (s *CookieStore) Get(key string) (string, error) {
	if v, ok := s.pending[key]; ok {
		return v, nil
	}
	raw := s.c.Cookies(key)
	if raw == "" {
		return "", nil
	}
	v, err := url.QueryUnescape(raw)
	if err != nil {
		return "", nil
	}
	return v, nil
}

func (s *CookieStore) Set(key, value string) error {
	s.pending[key] = value
	s.c.Cookie(s.cookie(key, url.QueryEscape(value), time.Time{}))
	return nil
}

// Clear expira todas las cookies de sesión.
func (s *CookieStore) Clear() error {
	for _, k := range repository.SessionKeys {
		s.pending[k] = ""
		s.c.Cookie(s.cookie(k, "", time.Unix(0, 0)))
	}
	return nil
}

func (s *CookieStore) cookie(name, value string, expires time.Time) *fiber.Cookie {
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.cfg.Domain,
		Secure:   s.cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if !expires.IsZero() {
		ck.Expires = expires
		ck.MaxAge = -1
	}
	return ck
}
