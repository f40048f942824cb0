package export

import (
	"fmt"

	"github.com/sourceful-energy/tariff-service/internal/metrics"
)

// OpenAPISpec builds the OpenAPI 3.0 document describing the RISE grid
// tariff API a company would deploy for the parsed tariffs.
func OpenAPISpec(companyName, companyOrgNo string) map[string]any {
	metrics.ExportsGenerated.WithLabelValues("openapi").Inc()

	return map[string]any{
		"openapi": "3.0.1",
		"info": map[string]any{
			"title":       fmt.Sprintf("%s - Elnätstariff API", companyName),
			"description": fmt.Sprintf("API för elnätstariffer från %s (org.nr %s)", companyName, companyOrgNo),
			"version":     "0.1.0",
			"contact":     map[string]any{"name": companyName},
		},
		"servers": []any{
			map[string]any{"url": "/gridtariff/v0", "description": "Grid Tariff API"},
		},
		"paths": map[string]any{
			"/info": map[string]any{
				"get": map[string]any{
					"summary": "Get API info",
					"responses": map[string]any{
						"200": jsonResponse("API information", "#/components/schemas/InfoResponse"),
					},
				},
			},
			"/tariffs": map[string]any{
				"get": map[string]any{
					"summary": "Get all tariffs",
					"responses": map[string]any{
						"200": jsonResponse("List of tariffs", "#/components/schemas/TariffsResponse"),
					},
				},
			},
			"/tariffs/{id}": map[string]any{
				"get": map[string]any{
					"summary": "Get tariff by ID",
					"parameters": []any{
						map[string]any{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   map[string]any{"type": "string", "format": "uuid"},
						},
					},
					"responses": map[string]any{
						"200": jsonResponse("Tariff details", "#/components/schemas/TariffResponse"),
						"404": map[string]any{"description": "Tariff not found"},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": openAPISchemas(),
		},
	}
}

func jsonResponse(description, ref string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": ref},
			},
		},
	}
}

func openAPISchemas() map[string]any {
	return map[string]any{
		"InfoResponse": objectSchema(map[string]any{
			"name":                  map[string]any{"type": "string"},
			"apiVersion":            map[string]any{"type": "string"},
			"implementationVersion": map[string]any{"type": "string"},
			"lastUpdated":           map[string]any{"type": "string", "format": "date-time"},
			"operator":              map[string]any{"type": "string"},
			"timeZone":              map[string]any{"type": "string"},
		}),
		"TariffsResponse": objectSchema(map[string]any{
			"tariffs":          arraySchema("#/components/schemas/Tariff"),
			"calendarPatterns": arraySchema("#/components/schemas/CalendarPattern"),
		}),
		"TariffResponse": objectSchema(map[string]any{
			"tariff":           map[string]any{"$ref": "#/components/schemas/Tariff"},
			"calendarPatterns": arraySchema("#/components/schemas/CalendarPattern"),
		}),
		"Tariff": objectSchema(map[string]any{
			"id":            map[string]any{"type": "string", "format": "uuid"},
			"name":          map[string]any{"type": "string"},
			"description":   map[string]any{"type": "string"},
			"validPeriod":   map[string]any{"$ref": "#/components/schemas/ValidPeriod"},
			"timeZone":      map[string]any{"type": "string"},
			"lastUpdated":   map[string]any{"type": "string", "format": "date-time"},
			"companyName":   map[string]any{"type": "string"},
			"companyOrgNo":  map[string]any{"type": "string"},
			"direction":     map[string]any{"type": "string", "enum": []any{"consumption", "production"}},
			"billingPeriod": map[string]any{"type": "string"},
			"fixedPrice":    map[string]any{"$ref": "#/components/schemas/PriceElement"},
			"energyPrice":   map[string]any{"$ref": "#/components/schemas/PriceElement"},
			"powerPrice":    map[string]any{"$ref": "#/components/schemas/PriceElement"},
		}),
		"ValidPeriod": objectSchema(map[string]any{
			"fromIncluding": map[string]any{"type": "string", "format": "date"},
			"toExcluding":   map[string]any{"type": "string", "format": "date"},
		}),
		"PriceElement": objectSchema(map[string]any{
			"id":         map[string]any{"type": "string", "format": "uuid"},
			"name":       map[string]any{"type": "string"},
			"components": arraySchema("#/components/schemas/PriceComponent"),
		}),
		"PriceComponent": objectSchema(map[string]any{
			"id":    map[string]any{"type": "string", "format": "uuid"},
			"name":  map[string]any{"type": "string"},
			"type":  map[string]any{"type": "string", "enum": []any{"fixed", "variable", "peak", "dynamic"}},
			"price": map[string]any{"$ref": "#/components/schemas/Price"},
			"unit":  map[string]any{"type": "string", "enum": []any{"kWh", "kW", "kVAr"}},
		}),
		"Price": objectSchema(map[string]any{
			"priceExVat":  map[string]any{"type": "number"},
			"priceIncVat": map[string]any{"type": "number"},
			"currency":    map[string]any{"type": "string"},
		}),
		"CalendarPattern": objectSchema(map[string]any{
			"reference": map[string]any{"type": "string"},
			"frequency": map[string]any{"type": "string"},
			"days":      map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"dates":     map[string]any{"type": "array", "items": map[string]any{"type": "string", "format": "date"}},
		}),
	}
}

func objectSchema(properties map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": properties}
}

func arraySchema(ref string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"$ref": ref}}
}
