package routes

import (
	"net/http"

	"github.com/dukerupert/daigou/internal/handler"
	"github.com/dukerupert/daigou/internal/router"
)

// RegisterAPIRoutes registers the stateless JSON API. quoteLimit wraps the
// quote endpoint, typically with a rate limiter; it may be nil.
func RegisterAPIRoutes(r *router.Router, deps APIDeps, quoteLimit router.Middleware) {
	var quoteMiddleware []router.Middleware
	if quoteLimit != nil {
		quoteMiddleware = append(quoteMiddleware, quoteLimit)
	}

	r.Post("/api/v1/quotes", deps.QuoteHandler.Create, quoteMiddleware...)
	r.Get("/api/v1/tariff", deps.QuoteHandler.Tariff)

	// Preflight requests from allowed origins are answered by the CORS
	// middleware; anything that gets through is a JSON 404.
	r.Handle(http.MethodOptions, "/api/v1/{path...}", http.HandlerFunc(handler.NotFoundResponse))
}
