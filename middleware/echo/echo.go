// Package echo mounts the relay handler on an Echo instance
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Mount routes every method on every path to h. Echo's own 404 and 405
// handling never runs; h answers unknown paths itself.
func Mount(e *echo.Echo, h http.Handler) {
	handler := Handler(h)
	e.Any("/", handler)
	e.Any("/*", handler)
}

// Handler adapts h to an Echo handler, for mounting under custom routes
func Handler(h http.Handler) echo.HandlerFunc {
	return echo.WrapHandler(h)
}
