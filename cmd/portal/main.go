package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/portal-movimiento/internal/interfaces/cli"
	"github.com/jhoicas/portal-movimiento/pkg/config"
	"github.com/jhoicas/portal-movimiento/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// El log va a stderr para no mezclarse con las URLs que imprime la herramienta.
	log := logger.New(logger.Config{
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Output:     os.Stderr,
	})

	root := cli.NewRootCommand(cfg, log)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "portal:", err)
		os.Exit(1)
	}
}
