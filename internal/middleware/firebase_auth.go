package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// IDTokenVerifier is satisfied by *firebase auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

const firebaseTokenKey = "firebaseToken"

// FirebaseAuthMiddleware verifies a Firebase ID token taken from the
// Authorization bearer header or the id_token form field.
func FirebaseAuthMiddleware(verifier IDTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if verifier == nil {
				return echo.NewHTTPError(http.StatusNotFound)
			}

			idToken := c.FormValue("id_token")
			if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
				tokenParts := strings.Split(authHeader, " ")
				if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
				}
				idToken = tokenParts[1]
			}
			if idToken == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "ID token is missing")
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			c.Set(firebaseTokenKey, token)
			return next(c)
		}
	}
}

// FirebaseToken returns the token verified by FirebaseAuthMiddleware.
func FirebaseToken(c echo.Context) *fbauth.Token {
	token, _ := c.Get(firebaseTokenKey).(*fbauth.Token)
	return token
}
