package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourceful-energy/tariff-service/internal/rise"
	"github.com/sourceful-energy/tariff-service/internal/storage"
)

// SaveResultRequest represents the body for saving a parse result
type SaveResultRequest struct {
	Tariffs   json.RawMessage `json:"tariffs" binding:"required"`
	SourceURL string          `json:"sourceUrl"`
}

// SaveResultResponse represents the response after saving a result
type SaveResultResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ResultResponse represents a stored result returned to clients
type ResultResponse struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"createdAt"`
	SourceURL string          `json:"sourceUrl,omitempty"`
	Tariffs   json.RawMessage `json:"tariffs"`
}

// RecentResultsResponse represents the recent result listing
type RecentResultsResponse struct {
	Count   int                     `json:"count"`
	Results []storage.ResultSummary `json:"results"`
}

// SaveResult stores a parse result and returns a short shareable ID
// POST /api/results/save
func SaveResult(c *gin.Context) {
	var req SaveResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tariffs rise.TariffsResponse
	if err := json.Unmarshal(req.Tariffs, &tariffs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ogiltigt tariffdokument"})
		return
	}
	if len(req.SourceURL) > maxURLLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL:en är för lång (max 2048 tecken)"})
		return
	}

	id, err := deps.Results.Save(c.Request.Context(), req.Tariffs, storage.SaveOptions{
		SourceURL: req.SourceURL,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Resultatet kunde inte sparas"})
		return
	}

	c.JSON(http.StatusOK, SaveResultResponse{ID: id, URL: "/api/results/" + id})
}

// RecentResults lists the most recently saved results
// GET /api/results/recent
func RecentResults(c *gin.Context) {
	results, err := deps.Results.ListRecent(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Resultaten kunde inte listas"})
		return
	}
	c.JSON(http.StatusOK, RecentResultsResponse{Count: len(results), Results: results})
}

// GetResult returns a stored result by its short ID
// GET /api/results/:id
func GetResult(c *gin.Context) {
	result, err := deps.Results.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Resultatet kunde inte läsas"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resultatet hittades inte"})
		return
	}

	c.JSON(http.StatusOK, ResultResponse{
		ID:        result.ID,
		CreatedAt: result.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		SourceURL: result.SourceURL,
		Tariffs:   result.Data,
	})
}

// CleanupResults deletes stored results older than the configured retention
// POST /admin/results/cleanup
func CleanupResults(c *gin.Context) {
	deleted, err := deps.Results.Cleanup(c.Request.Context(), deps.ResultMaxAge)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
