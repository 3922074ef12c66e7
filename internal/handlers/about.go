package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterAboutRoutes registers the static about pages
func RegisterAboutRoutes(e *echo.Echo) {
	e.GET("/about/author/", staticPage("about/author.html"))
	e.GET("/about/tech/", staticPage("about/tech.html"))
}

func staticPage(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, name, map[string]interface{}{})
	}
}
