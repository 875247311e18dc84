package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/metrics"
	"github.com/jhoicas/portal-movimiento/pkg/jwt"
)

// TokenBootstrap toma ?token= de la URL, lo guarda como cookie de sesión y responde 303
// a la URL limpia para que el token no quede en la barra ni en el historial. Sin el
// parámetro la solicitud sigue sin cambios.
func TokenBootstrap(cookies CookieConfig, policy portal.BootstrapPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := url.ParseRequestURI(c.OriginalURL())
		if err != nil {
			return c.Next()
		}
		var clean string
		history := portal.HistoryFunc(func(u string) error {
			clean = u
			return nil
		})
		res, err := portal.Bootstrap(NewCookieStore(c, cookies), history, page, policy)
		if err != nil {
			return err
		}
		if !res.Captured {
			return c.Next()
		}
		metrics.BootstrapCapturesTotal.Inc()
		return c.Redirect(clean, fiber.StatusSeeOther)
	}
}

// SessionGuard sin token guardado redirige al origen raíz y corta la cadena.
func SessionGuard(cookies CookieConfig, rootOrigin string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := portal.Guard{Store: NewCookieStore(c, cookies), RootOrigin: rootOrigin}.Check()
		if !d.Allowed {
			metrics.GuardRedirectsTotal.Inc()
			return c.Redirect(d.RedirectURL, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireValidSession valida el token de la cookie. Si el backend lo rechaza se aplica el
// mismo manejo que a cualquier 401: sesión borrada y vuelta al login raíz.
func RequireValidSession(jwtSecret string, cookies CookieConfig, loginURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := NewCookieStore(c, cookies)
		token, _ := store.Get(repository.KeyAccessToken)
		claims, err := jwt.ParseType(jwtSecret, token, jwt.TypeAccess)
		if err != nil {
			metrics.UnauthorizedTotal.Inc()
			var target string
			nav := portal.NavigatorFunc(func(u string) error {
				target = u
				return nil
			})
			_ = portal.Unauthorized(store, nav, loginURL)
			return c.Redirect(target, fiber.StatusFound)
		}
		setClaims(c, claims)
		return c.Next()
	}
}
