package normalize

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceful-energy/tariff-service/internal/rise"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	require.NoError(t, dec.Decode(&doc))
	return doc
}

const sampleDoc = `{
	"tariffs": [
		{
			"name": "Effekttariff villa",
			"description": "För villakunder med 16-25A säkring",
			"validPeriod": {"fromIncluding": "2025-01-01", "toExcluding": "2026-01-01"},
			"companyName": "Göteborg Energi Nät AB",
			"companyOrgNo": "556379-2729",
			"fixedPrice": {
				"name": "Fast avgift",
				"components": [
					{
						"name": "Abonnemangsavgift",
						"type": "fixed",
						"price": {"priceExVat": 100, "priceIncVat": 125, "currency": "SEK"},
						"pricedPeriod": "P1M"
					}
				]
			},
			"energyPrice": {
				"name": "Energiavgift",
				"components": [
					{
						"name": "Överföringsavgift höglast",
						"type": "fixed",
						"price": {"priceExVat": 0.20, "priceIncVat": 0.25},
						"unit": "kWh",
						"recurringPeriods": [
							{
								"reference": "main",
								"frequency": "P1D",
								"activePeriods": [
									{
										"fromIncluding": "06:00:00",
										"toExcluding": "22:00:00",
										"calendarPatternReferences": {"include": ["weekdays"], "exclude": ["holidays"]}
									}
								]
							}
						]
					}
				]
			},
			"powerPrice": {
				"name": "Effektavgift",
				"components": [
					{
						"name": "Effektavgift vinter",
						"type": "peak",
						"price": {"priceExVat": 40, "priceIncVat": 50},
						"unit": "kW",
						"peakIdentificationSettings": {
							"peakFunction": "peak(main)",
							"peakIdentificationPeriod": "P1D",
							"peakDuration": "PT1H",
							"numberOfPeaksForAverageCalculation": 3
						}
					}
				]
			}
		}
	],
	"warnings": ["Antog 25% moms"]
}`

func newTestNormalizer() *Normalizer {
	return New(
		WithCalendarYear(2025),
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
}

func TestNormalizeFullDocument(t *testing.T) {
	resp, err := newTestNormalizer().Normalize(decode(t, sampleDoc))
	require.NoError(t, err)
	require.Len(t, resp.Tariffs, 1)

	tariff := resp.Tariffs[0]
	assert.Equal(t, "Effekttariff villa", tariff.Name)
	assert.Equal(t, "Göteborg Energi Nät AB", tariff.CompanyName)
	assert.Equal(t, "556379-2729", tariff.CompanyOrgNo)
	assert.Equal(t, rise.DirectionConsumption, tariff.Direction)
	assert.Equal(t, "Europe/Stockholm", tariff.TimeZone)
	assert.Equal(t, "P1M", tariff.BillingPeriod)
	assert.NotEqual(t, tariff.ID.String(), "00000000-0000-0000-0000-000000000000")

	require.NotNil(t, tariff.ValidPeriod.ToExcluding)
	assert.Equal(t, "2026-01-01", tariff.ValidPeriod.ToExcluding.String())

	require.NotNil(t, tariff.FixedPrice)
	require.Len(t, tariff.FixedPrice.Components, 1)
	fixed := tariff.FixedPrice.Components[0]
	assert.Equal(t, rise.ComponentFixed, fixed.Type)
	assert.Equal(t, "100", fixed.Price.PriceExVat.String())
	assert.Equal(t, rise.CurrencySEK, fixed.Price.Currency)
	require.NotNil(t, fixed.PricedPeriod)
	assert.Equal(t, "P1M", *fixed.PricedPeriod)

	require.NotNil(t, tariff.EnergyPrice)
	energy := tariff.EnergyPrice.Components[0]
	require.NotNil(t, energy.Unit)
	assert.Equal(t, rise.UnitKWh, *energy.Unit)
	require.Len(t, energy.RecurringPeriods, 1)
	rp := energy.RecurringPeriods[0]
	assert.Equal(t, "main", rp.Reference)
	require.Len(t, rp.ActivePeriods, 1)
	ap := rp.ActivePeriods[0]
	assert.Equal(t, "06:00:00", ap.FromIncluding.String())
	assert.Equal(t, "22:00:00", ap.ToExcluding.String())
	require.NotNil(t, ap.CalendarPatternReferences)
	assert.Equal(t, []string{"weekdays"}, ap.CalendarPatternReferences.Include)
	assert.Equal(t, []string{"holidays"}, ap.CalendarPatternReferences.Exclude)

	require.NotNil(t, tariff.PowerPrice)
	power := tariff.PowerPrice.Components[0]
	assert.Equal(t, rise.ComponentPeak, power.Type)
	require.NotNil(t, power.PeakIdentificationSettings)
	assert.Equal(t, 3, power.PeakIdentificationSettings.NumberOfPeaksForAverageCalculation)

	// Calendar patterns always come from the fixed default set.
	require.Len(t, resp.CalendarPatterns, 3)
	assert.Equal(t, "weekdays", resp.CalendarPatterns[0].Reference)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, resp.CalendarPatterns[0].Days)

	assert.Equal(t, []string{"Antog 25% moms"}, resp.Warnings)
}

func TestNormalizeDecimalFidelity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Numeric literal", `{"tariffs":[{"name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"},"energyPrice":{"components":[{"price":{"priceExVat":0.20,"priceIncVat":0.25}}]}}]}`},
		{"Quoted string", `{"tariffs":[{"name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"},"energyPrice":{"components":[{"price":{"priceExVat":"0.20","priceIncVat":"0.25"}}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newTestNormalizer().Normalize(decode(t, tt.raw))
			require.NoError(t, err)
			price := resp.Tariffs[0].EnergyPrice.Components[0].Price
			// Exact decimal, no binary floating point artifacts.
			assert.Equal(t, "0.2", price.PriceExVat.String())
			assert.True(t, price.PriceExVat.Equal(price.PriceExVat.Truncate(2)))
			assert.Equal(t, "0.25", price.PriceIncVat.String())
		})
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantPath string
	}{
		{
			"Missing companyName",
			`{"tariffs":[{"name":"T","validPeriod":{"fromIncluding":"2025-01-01"}}]}`,
			"tariffs[0].companyName",
		},
		{
			"Missing name",
			`{"tariffs":[{"companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"}}]}`,
			"tariffs[0].name",
		},
		{
			"Missing validPeriod",
			`{"tariffs":[{"name":"T","companyName":"C"}]}`,
			"tariffs[0].validPeriod",
		},
		{
			"Missing fromIncluding",
			`{"tariffs":[{"name":"T","companyName":"C","validPeriod":{}}]}`,
			"tariffs[0].validPeriod.fromIncluding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestNormalizer().Normalize(decode(t, tt.raw))
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantPath, schemaErr.Path)
		})
	}
}

func TestNormalizeAllOrNothing(t *testing.T) {
	// The second tariff is invalid; no partial result may be returned.
	raw := `{"tariffs":[
		{"name":"T1","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"}},
		{"name":"T2","validPeriod":{"fromIncluding":"2025-01-01"}}
	]}`
	resp, err := newTestNormalizer().Normalize(decode(t, raw))
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestNormalizeEnumRejection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Bad currency", `{"tariffs":[{"name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"},"fixedPrice":{"components":[{"price":{"priceExVat":1,"priceIncVat":1,"currency":"USD"}}]}}]}`},
		{"Bad unit", `{"tariffs":[{"name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"},"fixedPrice":{"components":[{"price":{"priceExVat":1,"priceIncVat":1},"unit":"MWh"}]}}]}`},
		{"Bad component type", `{"tariffs":[{"name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"},"fixedPrice":{"components":[{"type":"bonus","price":{"priceExVat":1,"priceIncVat":1}}]}}]}`},
		{"Bad direction", `{"tariffs":[{"name":"T","companyName":"C","direction":"sideways","validPeriod":{"fromIncluding":"2025-01-01"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestNormalizer().Normalize(decode(t, tt.raw))
			var schemaErr *SchemaError
			assert.True(t, errors.As(err, &schemaErr), "want SchemaError, got %v", err)
		})
	}
}

func TestNormalizeAbsentContainersStayAbsent(t *testing.T) {
	raw := `{"tariffs":[{"name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"}}]}`
	resp, err := newTestNormalizer().Normalize(decode(t, raw))
	require.NoError(t, err)

	tariff := resp.Tariffs[0]
	assert.Nil(t, tariff.FixedPrice)
	assert.Nil(t, tariff.EnergyPrice)
	assert.Nil(t, tariff.PowerPrice)
	assert.Nil(t, tariff.ValidPeriod.ToExcluding, "open-ended period stays open")
}

func TestNormalizeIgnoresSourceIDs(t *testing.T) {
	raw := `{"tariffs":[{"id":"11111111-1111-1111-1111-111111111111","name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"}}]}`
	doc := decode(t, raw)

	first, err := newTestNormalizer().Normalize(doc)
	require.NoError(t, err)
	second, err := newTestNormalizer().Normalize(doc)
	require.NoError(t, err)

	assert.NotEqual(t, "11111111-1111-1111-1111-111111111111", first.Tariffs[0].ID.String())
	assert.NotEqual(t, first.Tariffs[0].ID, second.Tariffs[0].ID, "identities are fresh per call")
}

func TestNormalizeAliases(t *testing.T) {
	// snake_case keys resolve through alias lists.
	raw := `{"tariffs":[{"name":"T","company_name":"C","valid_period":{"from_including":"2025-01-01","to_excluding":"2026-01-01"},"billing_period":"P3M"}]}`
	resp, err := newTestNormalizer().Normalize(decode(t, raw))
	require.NoError(t, err)

	tariff := resp.Tariffs[0]
	assert.Equal(t, "C", tariff.CompanyName)
	assert.Equal(t, "P3M", tariff.BillingPeriod)
	require.NotNil(t, tariff.ValidPeriod.ToExcluding)
}

func TestNormalizeRoundTrip(t *testing.T) {
	// Serialize the normalized graph with the fixed camelCase field names
	// and normalize the serialized form again: structurally identical
	// except for regenerated identities.
	n := newTestNormalizer()
	first, err := n.Normalize(decode(t, sampleDoc))
	require.NoError(t, err)

	serialized, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := n.Normalize(decode(t, string(serialized)))
	require.NoError(t, err)

	stripIDs := func(resp *rise.TariffsResponse) *rise.TariffsResponse {
		for i := range resp.Tariffs {
			resp.Tariffs[i].ID = uuid.Nil
			for _, element := range []*rise.PriceElement{resp.Tariffs[i].FixedPrice, resp.Tariffs[i].EnergyPrice, resp.Tariffs[i].PowerPrice} {
				if element == nil {
					continue
				}
				element.ID = uuid.Nil
				for j := range element.Components {
					element.Components[j].ID = uuid.Nil
				}
			}
		}
		return resp
	}

	firstJSON, err := json.Marshal(stripIDs(first))
	require.NoError(t, err)
	secondJSON, err := json.Marshal(stripIDs(second))
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestNormalizeMissingPriceDefaultsToZero(t *testing.T) {
	raw := `{"tariffs":[{"name":"T","companyName":"C","validPeriod":{"fromIncluding":"2025-01-01"},"fixedPrice":{"components":[{"name":"Kampanj"}]}}]}`
	resp, err := newTestNormalizer().Normalize(decode(t, raw))
	require.NoError(t, err)

	price := resp.Tariffs[0].FixedPrice.Components[0].Price
	assert.True(t, price.PriceExVat.IsZero())
	assert.True(t, price.PriceIncVat.IsZero())
	assert.Equal(t, rise.CurrencySEK, price.Currency)
}
