package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sourceful-energy/tariff-service/internal/catalogue"
	"github.com/sourceful-energy/tariff-service/internal/rise"
)

const catalogueCacheTTL = time.Hour

// catalogueCache keeps the last successful catalogue fetch so the listing
// stays available while the upstream is down.
var catalogueCache struct {
	mu        sync.Mutex
	entries   []catalogue.Entry
	fetchedAt time.Time
}

// CatalogueResponse represents the grid company listing
type CatalogueResponse struct {
	Count   int               `json:"count"`
	Entries []catalogue.Entry `json:"entries"`
	Warning string            `json:"warning,omitempty"`
}

// FetchRequest represents the body for fetching a tariff API directly
type FetchRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExplainRequest represents the body for explaining a single tariff
type ExplainRequest struct {
	Tariff *rise.Tariff `json:"tariff" binding:"required"`
}

// ExploreCatalogue lists grid companies from the national tariff catalogue
// GET /api/explore/catalogue
func ExploreCatalogue(c *gin.Context) {
	catalogueCache.mu.Lock()
	defer catalogueCache.mu.Unlock()

	if time.Since(catalogueCache.fetchedAt) < catalogueCacheTTL && catalogueCache.entries != nil {
		c.JSON(http.StatusOK, CatalogueResponse{
			Count:   len(catalogueCache.entries),
			Entries: catalogueCache.entries,
		})
		return
	}

	data, err := deps.Scraper.FetchJSON(c.Request.Context(), deps.CatalogueURL)
	if err != nil {
		if catalogueCache.entries != nil {
			c.JSON(http.StatusOK, CatalogueResponse{
				Count:   len(catalogueCache.entries),
				Entries: catalogueCache.entries,
				Warning: "Katalogen kunde inte uppdateras; visar senast kända lista.",
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Tariffkatalogen kunde inte hämtas."})
		return
	}

	entries := catalogue.Normalize(data)
	catalogueCache.entries = entries
	catalogueCache.fetchedAt = time.Now()

	c.JSON(http.StatusOK, CatalogueResponse{Count: len(entries), Entries: entries})
}

// ExploreFetch retrieves the tariff listing of a published tariff API
// POST /api/explore/fetch
func ExploreFetch(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.URL) > maxURLLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL:en är för lång (max 2048 tecken)"})
		return
	}

	data, err := deps.Scraper.FetchRiseAPI(c.Request.Context(), req.URL)
	if err != nil {
		respondScrapeError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// ExploreExplain produces a consumer-friendly explanation of a tariff
// POST /api/explore/explain
func ExploreExplain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if deps.Parser == nil {
		aiUnavailable(c)
		return
	}

	explanation, err := deps.Parser.ExplainTariff(c.Request.Context(), req.Tariff)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Förklaringen kunde inte tas fram. Försök igen senare."})
		return
	}
	c.JSON(http.StatusOK, explanation)
}
