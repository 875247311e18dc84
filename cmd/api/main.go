package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/portal-movimiento/docs"
	"github.com/jhoicas/portal-movimiento/internal/application/auth"
	"github.com/jhoicas/portal-movimiento/internal/application/dto"
	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/memory"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/portal-movimiento/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/portal-movimiento/internal/interfaces/http"
	"github.com/jhoicas/portal-movimiento/pkg/config"
	"github.com/jhoicas/portal-movimiento/pkg/logger"
)

// @title                       Portal Movimiento API
// @version                     1.0
// @description                 Emisión de tokens, heartbeat de sesión y login del portal multi-sector.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}

	log := logger.New(logger.Config{
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if cfg.App.Env == "development" {
		figure.NewFigure(cfg.App.Name, "cybermedium", true).Print()
		fmt.Println()
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		userRepo repository.UserRepository
		txRunner auth.TxRunner
	)
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("usuarios en memoria: se pierden al reiniciar")
		userRepo = memory.NewUserRepository()
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		userRepo = postgres.NewUserRepository(pool)
		txRunner = postgres.NewTxRunner(pool)
	}

	var sessions repository.ServerSessionRepository
	if cfg.Redis.Addr != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		sessions = infraredis.NewServerSessionRepository(rdb)
	} else {
		log.Warn().Msg("sesiones de servidor en memoria (REDIS_ADDR vacío)")
		sessions = memory.NewServerSessionRepository(nil)
	}

	authUC := auth.NewAuthUseCase(userRepo, sessions, auth.JWTConfig{
		Secret:            cfg.JWT.Secret,
		ExpMinutes:        cfg.JWT.Expiration,
		RefreshExpMinutes: cfg.JWT.RefreshExpiration,
		Issuer:            cfg.JWT.Issuer,
	}, auth.SessionConfig{
		ManagersSector: cfg.Portal.ManagersSector,
		ServerTTL:      cfg.Session.ServerTTL,
	})
	if txRunner != nil {
		authUC.WithTxRunner(txRunner)
	}

	if cfg.DB.Driver == "memory" && cfg.App.AdminEmail != "" {
		_, err := authUC.RegisterUser(ctx, dto.RegisterRequest{
			Email:    cfg.App.AdminEmail,
			Password: cfg.App.AdminPassword,
			Role:     entity.RoleAdmin,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("crear admin inicial")
		}
		log.Info().Str("email", cfg.App.AdminEmail).Msg("admin inicial creado")
	}

	resolver := sector.NewResolver(sector.Topology{
		ManagersSector: cfg.Portal.ManagersSector,
		ManagersOrigin: cfg.Portal.ManagersOrigin,
		ManagersPort:   cfg.Portal.ManagersPort,
		RootDomain:     cfg.Portal.RootDomain,
		LocalPorts:     cfg.Portal.LocalPorts,
		DefaultPort:    cfg.Portal.DefaultPort,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.MetricsMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Portal Movimiento API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		Resolver:  resolver,
		Portal:    cfg.Portal,
		JWTSecret: cfg.JWT.Secret,
		Logger:    log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
