package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceful-energy/tariff-service/internal/ai"
	"github.com/sourceful-energy/tariff-service/internal/rise"
	"github.com/sourceful-energy/tariff-service/internal/scrape"
	"github.com/sourceful-energy/tariff-service/internal/storage"
)

type stubGenerator struct {
	content string
	err     error
	calls   int
}

func (s *stubGenerator) Generate(_ context.Context, _ ai.GenerateRequest) (string, error) {
	s.calls++
	return s.content, s.err
}

const tariffText = "Elnätstariff för villa. Överföringsavgift 24,5 öre/kWh, effektavgift 45 kr/kW."

const generatedTariffs = `{
	"tariffs": [
		{
			"name": "Villatariff",
			"companyName": "Ellevio AB",
			"validPeriod": {"fromIncluding": "2025-01-01"},
			"energyPrice": {
				"components": [
					{"name": "Överföringsavgift", "type": "fixed", "unit": "kWh",
					 "price": {"priceExVat": 0.245, "priceIncVat": 0.30625}}
				]
			}
		}
	]
}`

func newTestRouter(t *testing.T, gen ai.TextGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	var parser *ai.Parser
	if gen != nil {
		parser = ai.NewParser(gen)
	}
	Configure(Deps{
		Parser:       parser,
		Scraper:      scrape.NewDefault(),
		Results:      storage.NewResultStore(local),
		CatalogueURL: "https://eltariff.deplide.org/tariffcatalogue/all",
		ResultMaxAge: 90 * 24 * time.Hour,
	})

	r := gin.New()
	r.GET("/health", HealthCheck)
	api := r.Group("/api")
	{
		api.POST("/parse/text", ParseText)
		api.POST("/parse/url", ParseURL)
		api.POST("/parse/improve", Improve)
		api.POST("/explore/explain", ExploreExplain)
		api.POST("/results/save", SaveResult)
		api.GET("/results/recent", RecentResults)
		api.GET("/results/:id", GetResult)
		api.POST("/generate/excel", GenerateExcel)
		api.POST("/generate/openapi", GenerateOpenAPI)
		api.POST("/generate/package", GeneratePackage)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.APIKeyConfigured)
}

func TestHealthCheckWithoutParser(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.APIKeyConfigured)
}

func TestParseTextEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodPost, "/api/parse/text", ParseTextRequest{
		Text:        tariffText,
		CompanyName: "Ellevio AB",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp rise.TariffsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tariffs, 1)
	assert.Equal(t, "Villatariff", resp.Tariffs[0].Name)
	assert.Equal(t, "0.245", resp.Tariffs[0].EnergyPrice.Components[0].Price.PriceExVat.String())
}

func TestParseTextEndpointRejectsNonTariffInput(t *testing.T) {
	gen := &stubGenerator{content: generatedTariffs}
	r := newTestRouter(t, gen)

	w := doJSON(t, r, http.MethodPost, "/api/parse/text", ParseTextRequest{
		Text: "Recept på köttbullar med gräddsås.",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gen.calls)
}

func TestParseTextEndpointMissingBody(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodPost, "/api/parse/text", map[string]string{"companyName": "Ellevio AB"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseTextEndpointTooLong(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodPost, "/api/parse/text", ParseTextRequest{
		Text: string(bytes.Repeat([]byte("a"), maxTextLength+1)),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseTextEndpointWithoutParser(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/parse/text", ParseTextRequest{Text: tariffText})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestParseTextEndpointUnparseableAnswer(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: "Jag kan tyvärr inte hjälpa till med detta."})

	w := doJSON(t, r, http.MethodPost, "/api/parse/text", ParseTextRequest{Text: tariffText})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestParseURLEndpointRejectsInternalURL(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodPost, "/api/parse/url", ParseURLRequest{
		URL: "http://169.254.169.254/latest/meta-data/",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImproveEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	var existing rise.TariffsResponse
	require.NoError(t, json.Unmarshal([]byte(generatedTariffs), &existing))

	w := doJSON(t, r, http.MethodPost, "/api/parse/improve", ImproveRequest{
		Tariffs:     &existing,
		Instruction: "Lägg till månadsavgiften 125 kr.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestExplainEndpointProseFallback(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: "En enkel tariff med rörligt elöverföringspris."})

	var doc rise.TariffsResponse
	require.NoError(t, json.Unmarshal([]byte(generatedTariffs), &doc))

	w := doJSON(t, r, http.MethodPost, "/api/explore/explain", ExplainRequest{Tariff: &doc.Tariffs[0]})
	require.Equal(t, http.StatusOK, w.Code)

	var explanation ai.Explanation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &explanation))
	assert.Contains(t, explanation.Summary, "rörligt")
}

func TestSaveAndGetResult(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodPost, "/api/results/save", SaveResultRequest{
		Tariffs:   json.RawMessage(generatedTariffs),
		SourceURL: "https://www.ellevio.se/priser",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var saved SaveResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.Len(t, saved.ID, 8)
	assert.Equal(t, "/api/results/"+saved.ID, saved.URL)

	w = doJSON(t, r, http.MethodGet, "/api/results/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, saved.ID, result.ID)
	assert.Equal(t, "https://www.ellevio.se/priser", result.SourceURL)

	var tariffs rise.TariffsResponse
	require.NoError(t, json.Unmarshal(result.Tariffs, &tariffs))
	assert.Equal(t, "Villatariff", tariffs.Tariffs[0].Name)
}

func TestSaveResultRejectsGarbage(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodPost, "/api/results/save", SaveResultRequest{
		Tariffs: json.RawMessage(`{"tariffs": "inte en lista"}`),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetResultNotFound(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	w := doJSON(t, r, http.MethodGet, "/api/results/zzzzzzzz", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecentResults(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/results/save", SaveResultRequest{
			Tariffs: json.RawMessage(generatedTariffs),
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/results/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RecentResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
	for _, summary := range resp.Results {
		assert.Equal(t, 1, summary.TariffCount)
	}
}

func TestGenerateExcelEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	var doc rise.TariffsResponse
	require.NoError(t, json.Unmarshal([]byte(generatedTariffs), &doc))

	w := doJSON(t, r, http.MethodPost, "/api/generate/excel", GenerateRequest{Tariffs: &doc})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ellevio-ab")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestGeneratePackageEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	var doc rise.TariffsResponse
	require.NoError(t, json.Unmarshal([]byte(generatedTariffs), &doc))

	w := doJSON(t, r, http.MethodPost, "/api/generate/package", GenerateRequest{
		Tariffs:      &doc,
		CompanyOrgNo: "556037-7326",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	// ZIP local file header magic
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestGenerateOpenAPIEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{content: generatedTariffs})

	var doc rise.TariffsResponse
	require.NoError(t, json.Unmarshal([]byte(generatedTariffs), &doc))

	w := doJSON(t, r, http.MethodPost, "/api/generate/openapi", GenerateRequest{
		Tariffs:     &doc,
		CompanyName: "Ellevio AB",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var spec map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.1", spec["openapi"])
}
