package routes

import (
	"github.com/dukerupert/daigou/internal/router"
)

// RegisterWorksheetRoutes registers the worksheet page and its form
// actions. r is expected to carry the session and CSRF middleware.
func RegisterWorksheetRoutes(r *router.Router, deps WorksheetDeps) {
	h := deps.WorksheetHandler

	r.Get("/{$}", h.Show)
	r.Post("/worksheet/rows", h.AddRow)
	r.Post("/worksheet/rows/{index}/delete", h.RemoveRow)
	r.Post("/worksheet/commit", h.Commit)
	r.Post("/worksheet/discard", h.Discard)
	r.Post("/worksheet/calculate", h.Calculate)
}
