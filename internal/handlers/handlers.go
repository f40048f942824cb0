package handlers

import (
	"time"

	"github.com/sourceful-energy/tariff-service/internal/ai"
	"github.com/sourceful-energy/tariff-service/internal/scrape"
	"github.com/sourceful-energy/tariff-service/internal/storage"
)

// Deps holds the shared dependencies used by the HTTP handlers. Parser may
// be nil when no API key is configured; AI endpoints then return 503.
type Deps struct {
	Parser       *ai.Parser
	Scraper      *scrape.Scraper
	Results      *storage.ResultStore
	CatalogueURL string
	ResultMaxAge time.Duration
}

var deps Deps

// Configure sets the handler dependencies. Must be called before routes are
// served.
func Configure(d Deps) {
	deps = d
}
