package router

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"pedbook/internal/auth"
	"pedbook/internal/config"
	"pedbook/internal/handler"
	appmw "pedbook/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Authors *handler.AuthorHandler
	Books   *handler.BookHandler
	Loans   *handler.LoanHandler
	Reviews *handler.ReviewHandler
	Uploads *handler.UploadHandler
	Health  *handler.HealthHandler
	Seed    *handler.SeedHandler
}

// Register wires routes and middleware. Every route is served both at the
// root and under /api.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	h Handlers,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	// Room for one image plus the rest of the multipart form.
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (cfg.MaxUploadBytes+1<<20)>>10)))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	limiter := appmw.PerMinute(cfg.AuthRatePerMinute)
	jwt := appmw.JWT(jwtService, tokenStore)
	authed := []echo.MiddlewareFunc{jwt}
	librarian := []echo.MiddlewareFunc{jwt, appmw.RequireLibrarian()}

	for _, g := range []*echo.Group{e.Group(""), e.Group("/api")} {
		mount(g, h, limiter.Middleware(), authed, librarian)
	}
}

// mount registers the API on one prefix. Middleware is attached per route so
// unknown paths still answer 404 instead of 401.
func mount(g *echo.Group, h Handlers, limit echo.MiddlewareFunc, authed, librarian []echo.MiddlewareFunc) {
	g.GET("/healthz", h.Health.Live)
	g.GET("/readyz", h.Health.Ready)
	g.GET("/uploads/*", h.Uploads.ServeUpload)

	// Auth
	g.POST("/auth/register", h.Auth.Register, limit)
	g.POST("/auth/login", h.Auth.Login, limit)
	g.POST("/auth/refresh", h.Auth.Refresh)
	g.POST("/auth/logout", h.Auth.Logout)
	g.GET("/me", h.Auth.Me, authed...)

	// Authors
	g.GET("/authors", h.Authors.ListAuthors)
	g.GET("/authors/:id", h.Authors.GetAuthor)
	g.GET("/authors/:id/books", h.Authors.ListAuthorBooks)
	g.POST("/authors", h.Authors.CreateAuthor, librarian...)
	g.PUT("/authors/:id", h.Authors.UpdateAuthor, librarian...)
	g.DELETE("/authors/:id", h.Authors.DeleteAuthor, librarian...)
	g.POST("/authors/:id/photo", h.Authors.UploadPhoto, librarian...)

	// Books
	g.GET("/books", h.Books.ListBooks)
	g.GET("/books/:id", h.Books.GetBook)
	g.GET("/books/:id/reviews", h.Books.ListBookReviews)
	g.POST("/books", h.Books.CreateBook, librarian...)
	g.PUT("/books/:id", h.Books.UpdateBook, librarian...)
	g.DELETE("/books/:id", h.Books.DeleteBook, librarian...)
	g.POST("/books/:id/photo", h.Books.UploadPhoto, librarian...)

	// Users
	g.GET("/users", h.Users.ListUsers, librarian...)
	g.POST("/users", h.Users.CreateUser, librarian...)
	g.GET("/users/:id", h.Users.GetUser, authed...)
	g.PUT("/users/:id", h.Users.UpdateProfile, authed...)
	g.PUT("/users/:id/favorite-book", h.Users.SetFavoriteBook, authed...)
	g.POST("/users/:id/image", h.Users.UploadProfileImage, authed...)
	g.DELETE("/users/:id", h.Users.DeleteUser, librarian...)

	// Loans
	g.GET("/loans", h.Loans.ListLoans, librarian...)
	g.GET("/loans/me", h.Loans.ListMyLoans, authed...)
	g.POST("/loans", h.Loans.CreateLoan, authed...)
	g.GET("/loans/:id", h.Loans.GetLoan, authed...)
	g.POST("/loans/:id/return", h.Loans.ReturnLoan, authed...)
	g.DELETE("/loans/:id", h.Loans.DeleteLoan, librarian...)

	// Reviews
	g.GET("/reviews", h.Reviews.ListReviews)
	g.GET("/reviews/:id", h.Reviews.GetReview)
	g.POST("/reviews", h.Reviews.CreateReview, authed...)
	g.PUT("/reviews/:id", h.Reviews.UpdateReview, authed...)
	g.DELETE("/reviews/:id", h.Reviews.DeleteReview, authed...)

	// Seed
	g.POST("/seed/catalog", h.Seed.SeedCatalog, librarian...)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
