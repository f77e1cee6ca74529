package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skiclub/internal/club"
	"skiclub/internal/config"
	"skiclub/internal/db"
	grpcserver "skiclub/internal/grpc"
	"skiclub/internal/httpapi"
	"skiclub/internal/notify"
	"skiclub/internal/seed"
	"skiclub/internal/sheets"
	"skiclub/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	ctx := context.Background()
	if cfg.Seed {
		if _, err := seed.Run(ctx, d, time.Now()); err != nil && !errors.Is(err, seed.ErrNotEmpty) {
			log.Fatalf("seed demo data: %v", err)
		}
	}

	// A broken push setup disables notifications; the dashboard still works.
	gw, err := notify.NewGateway(ctx, cfg.Push)
	if err != nil {
		log.Printf("push gateway disabled: %v", err)
		gw = nil
	}
	dispatcher := notify.NewDispatcher(repository.NewDeviceTokenRepository(d), gw, cfg.Push.Timeout)
	svc := club.New(d, dispatcher)

	opts := httpapi.Options{
		JWTSecret:  cfg.Auth.JWTSecret,
		SessionTTL: cfg.Auth.SessionTTL,
		RateLimit:  cfg.HTTP.RateLimit,
	}
	if cfg.Sheets.Configured() {
		exp, err := sheets.New(ctx, cfg.Sheets)
		if err != nil {
			log.Printf("sheets export disabled: %v", err)
		} else {
			opts.Sheets = exp
		}
	}
	app, err := httpapi.New(svc, opts).App()
	if err != nil {
		log.Fatalf("build http app: %v", err)
	}
	go func() {
		if err := app.Listen(cfg.HTTP.Address); err != nil {
			log.Printf("http server stopped: %v", err)
		}
	}()
	log.Printf("HTTP server listening on %s", cfg.HTTP.Address)

	// Start gRPC
	shutdown, err := grpcserver.StartGRPC(cfg, svc)
	if err != nil {
		log.Fatalf("start grpc: %v", err)
	}
	log.Printf("gRPC server listening on %s", cfg.GRPC.Address)

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
