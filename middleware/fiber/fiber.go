// Package fiber mounts the relay handler on a Fiber app
package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Mount hands every request on app to h through the net/http adaptor.
// Register it after any routes the app serves itself; requests that reach
// it never fall through to Fiber's 404.
func Mount(app *fiber.App, h http.Handler) {
	app.Use(Handler(h))
}

// Handler adapts h to a Fiber handler, for mounting under custom routes
func Handler(h http.Handler) fiber.Handler {
	return adaptor.HTTPHandler(h)
}
