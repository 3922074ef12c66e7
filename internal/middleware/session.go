package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anonto42/yatube/backend/internal/auth"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const userKey = "user"

// LoginURL is where anonymous visitors of protected pages are sent.
const LoginURL = "/auth/login/"

// SessionMiddleware resolves the session cookie into the current user.
// Requests without a valid session continue anonymously.
func SessionMiddleware(tokens *auth.TokenService, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			userID, err := tokens.ParseSession(cookie.Value)
			if err != nil {
				auth.ClearSessionCookie(c)
				return next(c)
			}

			user, err := users.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				slog.Debug("session user not found", "user_id", userID, "error", err)
				auth.ClearSessionCookie(c)
				return next(c)
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// RequireLogin redirects anonymous visitors to the login page, carrying the
// requested URI in the next parameter.
func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return c.Redirect(http.StatusFound, LoginRedirect(c.Request().URL.RequestURI()))
		}
		return next(c)
	}
}

// LoginRedirect builds the login URL for a post-login destination.
func LoginRedirect(next string) string {
	return LoginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userKey).(*models.User)
	return user
}

// SetCurrentUser marks user as authenticated for the rest of the request.
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(userKey, user)
}
