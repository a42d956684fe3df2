package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventario-ledger/internal/app"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	container, err := app.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}

	server := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	server.Use(recover.New())

	httpRouter.Router(server, httpRouter.RouterDeps{
		Catalog:     container.Catalog,
		Coordinator: container.Coordinator,
		Adjustments: container.Adjustments,
		Orders:      container.Orders,
		Audit:       container.Audit,
		Gatherer:    container.Registry,
		Log:         log.Component("http"),
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := server.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cerrar dependencias")
	}

	log.Info().Msg("aplicación detenida")
}
