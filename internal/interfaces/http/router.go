package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/portal-movimiento/internal/application/auth"
	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/metrics"
	"github.com/jhoicas/portal-movimiento/pkg/config"
	"github.com/jhoicas/portal-movimiento/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Resolver  *sector.Resolver
	Portal    config.PortalConfig
	JWTSecret string
	Logger    *logger.Logger
}

// Router registra las rutas de la API, del portal y de las apps de sector.
func Router(app *fiber.App, deps RouterDeps) {
	cookies := CookieConfig{Domain: deps.Portal.CookieDomain, Secure: deps.Portal.SecureCookies}

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Backend de tokens (público)
	api := app.Group("/api")
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/token/", authHandler.Token)
	api.Post("/token/refresh/", authHandler.Refresh)

	// Rutas protegidas (requieren Bearer Token)
	authGroup := api.Group("/auth", AuthMiddleware(deps.JWTSecret))
	authGroup.Post("/extend-session/", authHandler.ExtendSession)
	authGroup.Get("/me", authHandler.Me)
	authGroup.Post("/register", RequireRole(entity.RoleAdmin), authHandler.Register)
	authGroup.Post("/users/:id/sectors", RequireRole(entity.RoleAdmin), authHandler.GrantSector)

	// Portal raíz: login y elección de sector con cookies como sesión
	portalHandler := NewPortalHandler(PortalHandlerConfig{
		AuthUC:     deps.AuthUC,
		Resolver:   deps.Resolver,
		Cookies:    cookies,
		RootOrigin: deps.Portal.RootOrigin,
		JWTSecret:  deps.JWTSecret,
		Logger:     deps.Logger,
	})
	portalGroup := app.Group("/portal")
	portalGroup.Post("/login", portalHandler.Login)
	portalGroup.Get("/sectors/:sector", portalHandler.Choose)
	portalGroup.Post("/logout", portalHandler.Logout)

	// App de sector: bootstrap → guard → token válido → permiso por host
	appGroup := app.Group("/app",
		TokenBootstrap(cookies, portal.BootstrapPolicy{KeepOtherParams: deps.Portal.KeepQueryParams}),
		SessionGuard(cookies, deps.Portal.RootOrigin),
		RequireValidSession(deps.JWTSecret, cookies, deps.Portal.LoginURL()),
		RequireSectorHost(deps.Portal.RootDomain, deps.Portal.ManagersSector),
	)
	appGroup.Get("/session", AppHandler{}.Session)
}
