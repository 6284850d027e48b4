// Package gin mounts the relay handler on a Gin engine
package gin

import (
	"net/http"

	gongin "github.com/gin-gonic/gin"
)

// Paths served by the relay handler.
var relayPaths = []string{"/webhook", "/health"}

// Mount routes every method on the relay paths, and every unmatched request,
// to h. h keeps full control over status codes, CORS headers and the 404
// body.
//
// Trailing-slash redirects are disabled on the engine so "/health/" reaches
// h as an unknown path instead of being redirected.
func Mount(engine *gongin.Engine, h http.Handler) {
	engine.RedirectTrailingSlash = false
	handler := Handler(h)
	for _, path := range relayPaths {
		engine.Any(path, handler)
	}
	engine.NoRoute(handler)
}

// Handler adapts h to a Gin handler, for mounting under custom routes
func Handler(h http.Handler) gongin.HandlerFunc {
	return gongin.WrapH(h)
}
