package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pedbook/internal/auth"
	"pedbook/internal/cache"
	"pedbook/internal/config"
	"pedbook/internal/handler"
	"pedbook/internal/mailer"
	"pedbook/internal/repository"
	"pedbook/internal/router"
	"pedbook/internal/seed"
	"pedbook/internal/service"
	"pedbook/internal/storage"
	"pedbook/internal/worker"
)

const (
	mailQueueSize = 256

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 15 * time.Second
)

// App is the assembled server with its background workers.
type App struct {
	Echo *echo.Echo

	cfg    *config.Config
	queue  *mailer.Queue
	worker *worker.OverdueWorker
}

// NewSender picks SMTP delivery when a host is configured, logging otherwise.
func NewSender(cfg *config.Config) mailer.Sender {
	if cfg.SMTPHost == "" {
		log.Println("SMTP_HOST not set, emails will only be logged")
		return mailer.LogSender{}
	}
	return mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}

// New wires repositories, services and handlers onto a fresh echo instance.
// The database must already be migrated.
func New(cfg *config.Config, gormDB *gorm.DB, cacheClient *cache.Client, sender mailer.Sender) (*App, error) {
	disk, err := storage.NewDisk(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	log.Printf("Serving uploads from %s", disk.Root())

	renderer, err := mailer.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("mail templates: %w", err)
	}
	queue := mailer.NewQueue(sender, mailQueueSize)
	notifier := mailer.NewNotifier(renderer, queue, cfg.PublicBaseURL, cfg.FinePerDay)

	// Initialize repositories
	authorRepo := repository.NewAuthorRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	loanRepo := repository.NewLoanRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	policy := service.LoanPolicy{
		DefaultDays: cfg.LoanDays,
		MaxDays:     cfg.MaxLoanDays,
		FinePerDay:  cfg.FinePerDay,
		MaxFine:     cfg.MaxFine,
	}
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, notifier)
	userService := service.NewUserService(userRepo, bookRepo, loanRepo, disk)
	authorService := service.NewAuthorService(authorRepo, disk, cacheClient)
	bookService := service.NewBookService(bookRepo, loanRepo, authorService, disk, cacheClient)
	loanService := service.NewLoanService(loanRepo, userRepo, bookRepo, policy, notifier)
	reviewService := service.NewReviewService(reviewRepo, bookRepo)

	e := echo.New()
	router.Register(e, cfg, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService, jwtService),
		Users:   handler.NewUserHandler(userService, authService),
		Authors: handler.NewAuthorHandler(authorService, bookService),
		Books:   handler.NewBookHandler(bookService, reviewService),
		Loans:   handler.NewLoanHandler(loanService),
		Reviews: handler.NewReviewHandler(reviewService),
		Uploads: handler.NewUploadHandler(disk),
		Health:  handler.NewHealthHandler(gormDB, cacheClient),
		Seed:    handler.NewSeedHandler(seed.NewImporter(authorRepo, bookRepo)),
	}, jwtService, tokenStore)

	return &App{
		Echo:   e,
		cfg:    cfg,
		queue:  queue,
		worker: worker.NewOverdueWorker(loanService, cfg.OverdueScanInterval),
	}, nil
}

// Run starts the background worker and serves HTTP until the server is shut down.
func (a *App) Run(ctx context.Context) error {
	a.worker.Start(ctx)

	addr := ":" + a.cfg.ServerPort
	if err := a.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server start: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, then the worker, then drains queued mail.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := a.Echo.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("server shutdown: %w", err)
	}
	a.worker.Stop()
	if err := a.queue.Close(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("mail queue: %w", err)
	}
	return firstErr
}
