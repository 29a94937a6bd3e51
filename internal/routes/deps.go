package routes

import (
	"github.com/dukerupert/daigou/internal/handler/api"
	"github.com/dukerupert/daigou/internal/handler/ui"
)

// WorksheetDeps contains dependencies for the worksheet page routes
type WorksheetDeps struct {
	WorksheetHandler *ui.WorksheetHandler
}

// APIDeps contains dependencies for the JSON API routes
type APIDeps struct {
	QuoteHandler *api.QuoteHandler
}
