package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "pedbook/docs" // swagger docs

	"pedbook/internal/app"
	"pedbook/internal/cache"
	"pedbook/internal/config"
	"pedbook/internal/db"
)

// @title PedBook API
// @version 1.0
// @description Library management API: books, authors, loans, reviews and users.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	gormDB, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if cfg.ResetDB {
		log.Println("RESET_DB=true detected, dropping all tables...")
		db.Reset(gormDB)
	}

	if err := db.Migrate(gormDB); err != nil {
		log.Fatal(err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	application, err := app.New(cfg, gormDB, cacheClient, app.NewSender(cfg))
	if err != nil {
		log.Fatalf("app init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "http://localhost:" + cfg.ServerPort
	}
	log.Printf("Swagger documentation available at: %s/swagger/index.html", swaggerHost)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- application.Run(ctx)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatal(err)
		}
		return
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("Server stopped")
}
