package middleware

import (
	"log"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"pedbook/internal/auth"
	"pedbook/internal/errors"
	"pedbook/internal/service"
)

const contextKey = "user"

func unauthorized(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

// JWT authenticates requests with a bearer access token. Refresh tokens and
// tokens revoked on logout are rejected.
func JWT(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:  jwtService.Secret(),
		ContextKey:  contextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized("missing or invalid token")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims := CurrentClaims(c)
			if !claims.IsAccess() {
				return unauthorized("access token required")
			}
			revoked, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				log.Printf("check token blacklist: %v", err)
			}
			if revoked {
				return unauthorized("token revoked")
			}
			return next(c)
		})
	}
}

// CurrentClaims returns the claims of the authenticated caller, or nil.
func CurrentClaims(c echo.Context) *auth.Claims {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*auth.Claims)
	return claims
}

// CurrentActor returns the caller as a service.Actor.
func CurrentActor(c echo.Context) service.Actor {
	claims := CurrentClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: claims.UserID, Librarian: claims.IsLibrarian()}
}

// RequireLibrarian allows only librarians through. It must run after JWT.
func RequireLibrarian() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CurrentClaims(c).IsLibrarian() {
				return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
					Error: "librarian role required",
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}
