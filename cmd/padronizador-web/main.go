package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"padronizador/internal/config"
	"padronizador/internal/logging"
	"padronizador/internal/web"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log, err := logging.New(logging.Options{File: cfg.LogFile, JSON: cfg.LogJSON})
	must(err)
	defer log.Close()

	srv, err := web.NewServer(cfg, log)
	must(err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(srv.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
