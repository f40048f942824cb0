package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sourceful-energy/tariff-service/internal/rise"
)

// Alias lists per logical field. Generated documents are inconsistent about
// casing and naming, so each field is resolved against a fixed, ordered list
// of accepted keys; the first present, non-empty value wins. Unknown keys in
// the source are ignored.
var (
	aliasName          = []string{"name", "tariffName", "tariff_name", "title"}
	aliasDescription   = []string{"description", "desc", "summary"}
	aliasCompanyName   = []string{"companyName", "company_name", "company", "gridOwner", "grid_owner"}
	aliasCompanyOrgNo  = []string{"companyOrgNo", "company_org_no", "orgNo", "org_no", "organisationNumber"}
	aliasProduct       = []string{"product", "productName", "product_name"}
	aliasDirection     = []string{"direction"}
	aliasBillingPeriod = []string{"billingPeriod", "billing_period"}
	aliasTimeZone      = []string{"timeZone", "time_zone", "timezone"}
	aliasValidPeriod   = []string{"validPeriod", "valid_period", "validity"}
	aliasFromIncluding = []string{"fromIncluding", "from_including", "from", "validFrom", "valid_from", "startDate", "start_date"}
	aliasToExcluding   = []string{"toExcluding", "to_excluding", "to", "validTo", "valid_to", "endDate", "end_date"}
	aliasFixedPrice    = []string{"fixedPrice", "fixed_price", "fixed"}
	aliasEnergyPrice   = []string{"energyPrice", "energy_price", "energy"}
	aliasPowerPrice    = []string{"powerPrice", "power_price", "power"}
	aliasCostFunction  = []string{"costFunction", "cost_function"}
	aliasComponents    = []string{"components", "priceComponents", "price_components"}
	aliasType          = []string{"type", "componentType", "component_type"}
	aliasReference     = []string{"reference", "ref"}
	aliasPrice         = []string{"price", "prices"}
	aliasPriceExVat    = []string{"priceExVat", "price_ex_vat", "priceExclVat", "exVat", "ex_vat"}
	aliasPriceIncVat   = []string{"priceIncVat", "price_inc_vat", "priceInclVat", "incVat", "inc_vat"}
	aliasCurrency      = []string{"currency"}
	aliasUnit          = []string{"unit"}
	aliasPricedPeriod  = []string{"pricedPeriod", "priced_period"}
	aliasRecurring     = []string{"recurringPeriods", "recurring_periods"}
	aliasFrequency     = []string{"frequency"}
	aliasActivePeriods = []string{"activePeriods", "active_periods"}
	aliasCalendarRefs  = []string{"calendarPatternReferences", "calendar_pattern_references", "calendarPatterns"}
	aliasInclude       = []string{"include", "includes"}
	aliasExclude       = []string{"exclude", "excludes"}
	aliasPeakSettings  = []string{"peakIdentificationSettings", "peak_identification_settings"}
	aliasPeakFunction  = []string{"peakFunction", "peak_function"}
	aliasPeakPeriod    = []string{"peakIdentificationPeriod", "peak_identification_period"}
	aliasPeakDuration  = []string{"peakDuration", "peak_duration"}
	aliasPeakCount     = []string{"numberOfPeaksForAverageCalculation", "number_of_peaks_for_average_calculation", "numberOfPeaks"}
	aliasTariffs       = []string{"tariffs", "tariff"}
	aliasWarnings      = []string{"warnings"}
)

// pickFirst resolves a logical field against its alias list, returning the
// first key whose value is present and neither nil nor the empty string.
func pickFirst(m map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// asObject returns the value as a JSON object, or nil if it is anything else.
func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// asSlice returns the value as a JSON array, or nil if it is anything else.
func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// coerceString renders scalar values as a string. Objects, arrays and bools
// do not coerce.
func coerceString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	}
	return "", false
}

// coerceDecimal parses a price value through its string form so a numeric
// 0.2 and a quoted "0.2" normalize to the same exact decimal. Floating
// point is never on the parse path when documents are decoded with
// json.Number (the extractor and the handlers both do).
func coerceDecimal(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case json.Number:
		return decimal.NewFromString(val.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(val))
	case float64:
		// Only hit when the caller decoded without UseNumber; format with
		// the shortest representation that round-trips, then parse.
		return decimal.NewFromString(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	}
	return decimal.Decimal{}, fmt.Errorf("not a numeric value: %T", v)
}

// coerceInt parses integers from numbers or numeric strings. Booleans are
// rejected.
func coerceInt(v any) (int, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return 0, err
			}
			return int(f), nil
		}
		return int(n), nil
	case float64:
		return int(val), nil
	case int:
		return val, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", val)
		}
		return n, nil
	}
	return 0, fmt.Errorf("not an integer: %T", v)
}

// optionalString resolves an optional free-text field to a *string.
func optionalString(m map[string]any, keys []string) *string {
	v, ok := pickFirst(m, keys)
	if !ok {
		return nil
	}
	s, ok := coerceString(v)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// stringOrDefault resolves a free-text field, falling back to def.
func stringOrDefault(m map[string]any, keys []string, def string) string {
	if s := optionalString(m, keys); s != nil {
		return *s
	}
	return def
}

// stringList coerces a JSON array into its string members, dropping
// anything that is not a string.
func stringList(v any) []string {
	items := asSlice(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func requireDate(m map[string]any, keys []string, path string) (rise.Date, error) {
	v, ok := pickFirst(m, keys)
	if !ok {
		return rise.Date{}, &SchemaError{Path: path, Msg: "required field missing"}
	}
	s, ok := coerceString(v)
	if !ok {
		return rise.Date{}, &SchemaError{Path: path, Value: v, Msg: "expected date string"}
	}
	d, err := rise.ParseDate(s)
	if err != nil {
		return rise.Date{}, &SchemaError{Path: path, Value: s, Msg: "invalid date"}
	}
	return d, nil
}

func optionalDate(m map[string]any, keys []string, path string) (*rise.Date, error) {
	v, ok := pickFirst(m, keys)
	if !ok {
		return nil, nil
	}
	s, ok := coerceString(v)
	if !ok || s == "" {
		return nil, nil
	}
	d, err := rise.ParseDate(s)
	if err != nil {
		return nil, &SchemaError{Path: path, Value: s, Msg: "invalid date"}
	}
	return &d, nil
}
