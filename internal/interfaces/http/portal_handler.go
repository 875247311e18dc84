package http

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-movimiento/internal/application/auth"
	"github.com/jhoicas/portal-movimiento/internal/application/dto"
	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/metrics"
	"github.com/jhoicas/portal-movimiento/pkg/jwt"
	"github.com/jhoicas/portal-movimiento/pkg/logger"
)

// PortalHandler login del portal raíz, elección de sector y cierre de sesión.
type PortalHandler struct {
	auth       portal.Authenticator
	sessions   *auth.AuthUseCase
	resolver   *sector.Resolver
	cookies    CookieConfig
	rootOrigin string
	jwtSecret  string
	log        *logger.Logger
}

// PortalHandlerConfig dependencias del handler.
type PortalHandlerConfig struct {
	AuthUC     *auth.AuthUseCase
	Resolver   *sector.Resolver
	Cookies    CookieConfig
	RootOrigin string
	JWTSecret  string
	Logger     *logger.Logger
}

// NewPortalHandler construye el handler.
func NewPortalHandler(cfg PortalHandlerConfig) *PortalHandler {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &PortalHandler{
		auth:       cfg.AuthUC,
		sessions:   cfg.AuthUC,
		resolver:   cfg.Resolver,
		cookies:    cfg.Cookies,
		rootOrigin: cfg.RootOrigin,
		jwtSecret:  cfg.JWTSecret,
		log:        log,
	}
}

func (h *PortalHandler) flow(c *fiber.Ctx) portal.LoginFlow {
	return portal.LoginFlow{Auth: h.auth, Store: NewCookieStore(c, h.cookies), Resolver: h.resolver}
}

// environment entorno de la página que hizo la solicitud.
func environment(c *fiber.Ctx) sector.Environment {
	return sector.DetectEnvironment(&url.URL{Scheme: c.Protocol(), Host: c.Hostname()})
}

func chooseURL(s string) string {
	return "/portal/sectors/" + url.PathEscape(s)
}

// Login godoc
// @Summary      Login del portal
// @Description  Con un solo sector devuelve action=redirect y la URL con ?token=; con varios, action=select y la lista.
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.PortalLoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.DetailResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /portal/login [post]
func (h *PortalHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Email == "" || in.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email y password son requeridos"})
	}

	out, err := h.flow(c).Submit(c.UserContext(), in.Email, in.Password, environment(c))
	if err != nil {
		switch {
		case auth.IsCredentialError(err):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.DetailResponse{Code: "UNAUTHORIZED", Detail: "Credenciales inválidas"})
		case errors.Is(err, domain.ErrNoSectors):
			metrics.LoginsTotal.WithLabelValues("no_sectors").Inc()
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "NO_SECTORS", Message: domain.ErrNoSectors.Error()})
		case errors.Is(err, domain.ErrForbidden):
			metrics.LoginsTotal.WithLabelValues("forbidden").Inc()
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "cuenta inactiva o suspendida"})
		case errors.Is(err, domain.ErrInvalidSector):
			metrics.LoginsTotal.WithLabelValues("invalid_sector").Inc()
			h.log.Warn().Err(err).Str("email", in.Email).Msg("login del portal con sector sin destino")
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SECTOR", Message: err.Error()})
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("email", in.Email).Msg("login del portal")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	resp := dto.PortalLoginResponse{Name: out.Session.UserName, Role: out.Session.Role}
	if out.Kind == portal.OutcomeRedirect {
		metrics.LoginsTotal.WithLabelValues(dto.ActionRedirect).Inc()
		metrics.SectorRedirectsTotal.WithLabelValues(out.Session.Sectors[0]).Inc()
		resp.Action = dto.ActionRedirect
		resp.URL = out.URL
	} else {
		metrics.LoginsTotal.WithLabelValues(dto.ActionSelect).Inc()
		resp.Action = dto.ActionSelect
		resp.Sectors = portal.SectorOptions(out.Sectors, chooseURL)
	}
	h.log.Info().Str("email", in.Email).Str("accion", resp.Action).Int("sectores", len(out.Session.Sectors)).Msg("login del portal")
	return c.JSON(resp)
}

// Choose godoc
// @Summary      Elegir sector
// @Description  Redirige (303) a la aplicación del sector con el token en ?token=.
// @Tags         portal
// @Param        sector  path  string  true  "sector de la lista"
// @Success      303
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /portal/sectors/{sector} [get]
func (h *PortalHandler) Choose(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("sector"))
	if err != nil {
		name = c.Params("sector")
	}
	target, err := h.flow(c).Choose(c.UserContext(), name, environment(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSession):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "NO_SESSION", Message: err.Error()})
		case errors.Is(err, domain.ErrSectorNotGranted):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "SECTOR_FORBIDDEN", Message: err.Error()})
		case errors.Is(err, domain.ErrInvalidSector):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SECTOR", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	metrics.SectorRedirectsTotal.WithLabelValues(name).Inc()
	return c.Redirect(target, fiber.StatusSeeOther)
}

// Logout godoc
// @Summary      Cerrar sesión
// @Description  Revoca la sesión del servidor, borra las cookies y redirige al origen raíz.
// @Tags         portal
// @Success      303
// @Router       /portal/logout [post]
func (h *PortalHandler) Logout(c *fiber.Ctx) error {
	store := NewCookieStore(c, h.cookies)
	if token, _ := store.Get(repository.KeyAccessToken); token != "" {
		if claims, err := jwt.Parse(h.jwtSecret, token); err == nil {
			if err := h.sessions.Logout(c.UserContext(), claims); err != nil {
				h.log.Warn().Err(err).Str("sid", claims.SessionID).Msg("revocar sesión del servidor")
			}
		}
	}
	_ = store.Clear()
	return c.Redirect(h.rootOrigin, fiber.StatusSeeOther)
}

// AppHandler vistas protegidas de una aplicación de sector.
type AppHandler struct{}

// Session godoc
// @Summary      Sesión en la app de sector
// @Description  Pasa por bootstrap, guard, validación del token y permiso de sector.
// @Tags         app
// @Produce      json
// @Success      200   {object}  dto.AppSessionResponse
// @Failure      302
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /app/session [get]
func (AppHandler) Session(c *fiber.Ctx) error {
	claims := GetClaims(c)
	accesos := claims.Sectors
	if accesos == nil {
		accesos = []string{}
	}
	s, _ := c.Locals(LocalSector).(string)
	return c.JSON(dto.AppSessionResponse{
		Sector:  s,
		UserID:  claims.UserID,
		Name:    claims.Name,
		Role:    claims.Role,
		Accesos: accesos,
	})
}
