package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/inventario-ledger/internal/app"
	"github.com/jhoicas/inventario-ledger/internal/interfaces/cli"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		return 1
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "stockctl",
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("inicializar dependencias")
		return 1
	}
	defer func() {
		if err := container.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("cerrar dependencias")
		}
	}()

	root := cli.NewRootCommand(cli.Deps{
		Catalog:     container.Catalog,
		Coordinator: container.Coordinator,
		Adjustments: container.Adjustments,
		Audit:       container.Audit,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
