// Package catalogue normalizes third-party API catalogue listings into a
// small fixed record shape.
//
// Catalogue data is a discovery aid from a source outside our control, so
// unlike tariff normalization this path degrades gracefully: entries that
// cannot be made sense of are dropped, never raised.
package catalogue

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/sourceful-energy/tariff-service/internal/metrics"
)

// Entry is a normalized catalogue record for a RISE-compatible API.
type Entry struct {
	Name                string  `json:"name"`
	APIURL              string  `json:"apiUrl"`
	Description         *string `json:"description,omitempty"`
	Region              *string `json:"region,omitempty"`
	TariffCount         *int    `json:"tariffCount,omitempty"`
	SourceURL           *string `json:"sourceUrl,omitempty"`
	CompanyOrgNo        *string `json:"companyOrgNo,omitempty"`
	MeteringPointIDFrom *string `json:"meteringPointIdFrom,omitempty"`
	MeteringPointIDTo   *string `json:"meteringPointIdTo,omitempty"`
}

// Candidate keys probed, in order, when the top-level document is an object
// rather than a bare list.
var listKeys = []string{"apis", "items", "data", "results", "entries", "catalogue"}

// Per-field alias lists; first present, non-empty value wins.
var (
	urlKeys = []string{
		"api_url", "apiUrl", "base_url", "baseUrl", "url",
		"endpoint", "rise_api", "riseApi", "tariff_api_url",
	}
	nameKeys = []string{
		"name", "title", "company", "companyName", "company_name",
		"utility", "network_company", "networkCompany", "grid_owner", "operator",
	}
	descriptionKeys = []string{"description", "summary", "notes"}
	regionKeys      = []string{"region", "area", "city", "municipality", "county"}
	countKeys       = []string{"tariff_count", "tariffCount", "count"}
	sourceKeys      = []string{"source_url", "sourceUrl", "homepage", "website", "userDocUrlOrEmail"}
	orgNoKeys       = []string{"company_org_no", "companyOrgNo", "orgNo"}
	mpFromKeys      = []string{"meteringPointIdFrom", "metering_point_id_from"}
	mpToKeys        = []string{"meteringPointIdTo", "metering_point_id_to"}
)

// Normalize reduces arbitrary catalogue JSON to a sorted list of usable
// entries. It never fails: entries without a resolvable API URL, or with a
// URL that does not parse, are silently dropped.
func Normalize(data any) []Entry {
	items := extractItems(data)
	entries := make([]Entry, 0, len(items))

	for _, item := range items {
		entry, ok := normalizeEntry(item)
		if !ok {
			metrics.CatalogueEntriesDropped.Inc()
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries
}

func extractItems(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		return objectsOf(v)
	case map[string]any:
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				if items := objectsOf(list); len(items) > 0 {
					return items
				}
			}
		}
	}
	return nil
}

func objectsOf(list []any) []map[string]any {
	items := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}

func normalizeEntry(item map[string]any) (Entry, bool) {
	apiURL := pickString(item, urlKeys)
	if apiURL == "" {
		// The API URL is the one field the entry is useless without.
		return Entry{}, false
	}
	parsed, err := url.Parse(apiURL)
	if err != nil || parsed.Host == "" {
		return Entry{}, false
	}

	name := pickString(item, nameKeys)
	if name == "" {
		name = strings.TrimPrefix(parsed.Hostname(), "www.")
	}

	entry := Entry{
		Name:                name,
		APIURL:              apiURL,
		Description:         pickOptional(item, descriptionKeys),
		Region:              pickOptional(item, regionKeys),
		SourceURL:           pickOptional(item, sourceKeys),
		CompanyOrgNo:        pickOptional(item, orgNoKeys),
		MeteringPointIDFrom: pickOptional(item, mpFromKeys),
		MeteringPointIDTo:   pickOptional(item, mpToKeys),
	}

	count, ok := pickFirst(item, countKeys)
	if !ok {
		// Fall back to counting an inline tariff list, when there is one.
		if tariffs, isList := item["tariffs"].([]any); isList {
			count = len(tariffs)
			ok = true
		}
	}
	if ok {
		if n, valid := coerceCount(count); valid {
			entry.TariffCount = &n
		}
	}

	return entry, true
}

func pickFirst(item map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		v, present := item[key]
		if !present || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func pickString(item map[string]any, keys []string) string {
	v, ok := pickFirst(item, keys)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	}
	return ""
}

func pickOptional(item map[string]any, keys []string) *string {
	s := pickString(item, keys)
	if s == "" {
		return nil
	}
	return &s
}

// coerceCount accepts integers, floats (truncated) and strings (digits
// extracted). Booleans never coerce.
func coerceCount(v any) (int, bool) {
	switch val := v.(type) {
	case bool:
		return 0, false
	case int:
		return val, true
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n), true
		}
		if f, err := val.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case float64:
		return int(val), true
	case string:
		var digits strings.Builder
		for _, r := range val {
			if unicode.IsDigit(r) {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			return 0, false
		}
		n, err := strconv.Atoi(digits.String())
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
