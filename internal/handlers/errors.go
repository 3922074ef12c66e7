package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders 404 and 500 pages for browser requests and falls back
// to Echo's default handler for everything else.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		var page string
		switch {
		case code == http.StatusNotFound:
			page = "core/404.html"
		case code >= http.StatusInternalServerError:
			page = "core/500.html"
			slog.Error("request failed",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"error", err,
			)
		default:
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.Render(code, page, map[string]interface{}{"path": c.Request().URL.Path})
		}
		if err != nil {
			slog.Error("failed to render error page", "page", page, "error", err)
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}
