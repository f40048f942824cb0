package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sourceful-energy/tariff-service/internal/ai"
	"github.com/sourceful-energy/tariff-service/internal/extract"
	"github.com/sourceful-energy/tariff-service/internal/metrics"
	"github.com/sourceful-energy/tariff-service/internal/normalize"
	"github.com/sourceful-energy/tariff-service/internal/rise"
	"github.com/sourceful-energy/tariff-service/internal/scrape"
)

const (
	maxTextLength = 100 * 1024
	maxURLLength  = 2048
)

// ParseTextRequest represents the body for parsing free text
type ParseTextRequest struct {
	Text        string `json:"text" binding:"required"`
	CompanyName string `json:"companyName"`
}

// ParseURLRequest represents the body for parsing a web page
type ParseURLRequest struct {
	URL         string `json:"url" binding:"required"`
	CompanyName string `json:"companyName"`
}

// ParseCombinedRequest represents the body for parsing text and a web page
// together. At least one of text and url must be set.
type ParseCombinedRequest struct {
	Text        string `json:"text"`
	URL         string `json:"url"`
	CompanyName string `json:"companyName"`
}

// ImproveRequest represents the body for refining an earlier result
type ImproveRequest struct {
	Tariffs     *rise.TariffsResponse `json:"tariffs" binding:"required"`
	Instruction string                `json:"instruction" binding:"required"`
}

// ParseText converts free text describing a grid tariff into structured form
// POST /api/parse/text
func ParseText(c *gin.Context) {
	var req ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Text) > maxTextLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Texten är för lång (max 100 000 tecken)"})
		return
	}
	if deps.Parser == nil {
		aiUnavailable(c)
		return
	}
	metrics.ParseRequests.WithLabelValues("text").Inc()

	result, err := deps.Parser.ParseText(c.Request.Context(), req.Text, req.CompanyName)
	if err != nil {
		respondParseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ParseURL scrapes a web page and converts it into structured form
// POST /api/parse/url
func ParseURL(c *gin.Context) {
	var req ParseURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.URL) > maxURLLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL:en är för lång (max 2048 tecken)"})
		return
	}
	if deps.Parser == nil {
		aiUnavailable(c)
		return
	}
	metrics.ParseRequests.WithLabelValues("url").Inc()

	text, err := deps.Scraper.ScrapeText(c.Request.Context(), req.URL)
	if err != nil {
		respondScrapeError(c, err)
		return
	}

	result, err := deps.Parser.ParseText(c.Request.Context(), text, req.CompanyName)
	if err != nil {
		respondParseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ParseCombined merges scraped page content with user-provided text before
// parsing
// POST /api/parse/combined
func ParseCombined(c *gin.Context) {
	var req ParseCombinedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text == "" && req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ange text, en URL eller båda"})
		return
	}
	if len(req.Text) > maxTextLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Texten är för lång (max 100 000 tecken)"})
		return
	}
	if len(req.URL) > maxURLLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL:en är för lång (max 2048 tecken)"})
		return
	}
	if deps.Parser == nil {
		aiUnavailable(c)
		return
	}
	metrics.ParseRequests.WithLabelValues("combined").Inc()

	parts := make([]string, 0, 2)
	if req.URL != "" {
		scraped, err := deps.Scraper.ScrapeText(c.Request.Context(), req.URL)
		if err != nil {
			respondScrapeError(c, err)
			return
		}
		parts = append(parts, scraped)
	}
	if req.Text != "" {
		parts = append(parts, req.Text)
	}

	result, err := deps.Parser.ParseText(c.Request.Context(), strings.Join(parts, "\n\n"), req.CompanyName)
	if err != nil {
		respondParseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Improve reworks an earlier parse result according to a user instruction
// POST /api/parse/improve
func Improve(c *gin.Context) {
	var req ImproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if deps.Parser == nil {
		aiUnavailable(c)
		return
	}
	metrics.ParseRequests.WithLabelValues("improve").Inc()

	result, err := deps.Parser.Improve(c.Request.Context(), req.Tariffs, req.Instruction)
	if err != nil {
		respondParseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func aiUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI-tjänsten är inte konfigurerad"})
}

func respondParseError(c *gin.Context, err error) {
	var guardErr *ai.GuardError
	if errors.As(err, &guardErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": guardErr.Reason})
		return
	}

	var extractErr *extract.ExtractionError
	var schemaErr *normalize.SchemaError
	if errors.As(err, &extractErr) || errors.As(err, &schemaErr) || errors.Is(err, extract.ErrNoJSON) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Kunde inte tolka texten som en eltariff. Försök med ett tydligare underlag."})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"error": "Tolkningen misslyckades. Försök igen senare."})
}

func respondScrapeError(c *gin.Context, err error) {
	var unsafeErr *scrape.UnsafeURLError
	if errors.As(err, &unsafeErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL:en kan inte hämtas: " + unsafeErr.Reason})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "Sidan kunde inte hämtas. Kontrollera adressen och försök igen."})
}
