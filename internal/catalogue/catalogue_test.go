package catalogue

import (
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return data
}

func TestNormalizeBareList(t *testing.T) {
	raw := `[
		{"name": "Vattenfall Eldistribution", "api_url": "https://api.vattenfall.se/tariffs", "region": "Stockholm"},
		{"name": "Ellevio", "apiUrl": "https://api.ellevio.se/v1", "tariff_count": 4}
	]`
	entries := Normalize(decode(t, raw))
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Sorted case-insensitively by name.
	if entries[0].Name != "Ellevio" || entries[1].Name != "Vattenfall Eldistribution" {
		t.Errorf("unexpected order: %q, %q", entries[0].Name, entries[1].Name)
	}
	if entries[0].TariffCount == nil || *entries[0].TariffCount != 4 {
		t.Errorf("TariffCount = %v, want 4", entries[0].TariffCount)
	}
	if entries[1].Region == nil || *entries[1].Region != "Stockholm" {
		t.Errorf("Region = %v, want Stockholm", entries[1].Region)
	}
}

func TestNormalizeWrappedList(t *testing.T) {
	for _, key := range []string{"apis", "items", "data", "results", "entries", "catalogue"} {
		t.Run(key, func(t *testing.T) {
			raw := `{"` + key + `": [{"name": "X", "url": "https://example.se/api"}]}`
			entries := Normalize(decode(t, raw))
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
		})
	}
}

func TestNormalizeNameFromHostname(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{"Plain host", "https://api.tekniskaverken.se/tariffs", "api.tekniskaverken.se"},
		{"Strips www", "https://www.kraftringen.se/api", "kraftringen.se"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `[{"api_url": "` + tt.rawURL + `"}]`
			entries := Normalize(decode(t, raw))
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			if entries[0].Name != tt.want {
				t.Errorf("Name = %q, want %q", entries[0].Name, tt.want)
			}
		})
	}
}

func TestNormalizeDropsUnusableEntries(t *testing.T) {
	raw := `[
		{"name": "No URL at all"},
		{"name": "Relative URL", "url": "/tariffs"},
		{"name": "Keeper", "url": "https://keeper.se/api"},
		"not an object",
		42
	]`
	entries := Normalize(decode(t, raw))
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Name != "Keeper" {
		t.Errorf("Name = %q, want Keeper", entries[0].Name)
	}
}

func TestNormalizeNeverFails(t *testing.T) {
	for _, data := range []any{nil, "just a string", 17, map[string]any{"unrelated": true}, []any{}} {
		if entries := Normalize(data); len(entries) != 0 {
			t.Errorf("Normalize(%v) = %v, want empty", data, entries)
		}
	}
}

func TestNormalizeInlineTariffCount(t *testing.T) {
	raw := `[{"name": "Inline", "url": "https://inline.se/api", "tariffs": [{}, {}, {}]}]`
	entries := Normalize(decode(t, raw))
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].TariffCount == nil || *entries[0].TariffCount != 3 {
		t.Errorf("TariffCount = %v, want 3", entries[0].TariffCount)
	}
}

func TestCoerceCount(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
		ok    bool
	}{
		{"Int", 7, 7, true},
		{"Number int", json.Number("12"), 12, true},
		{"Number float", json.Number("3.9"), 3, true},
		{"Float", 5.7, 5, true},
		{"Digit string", "15", 15, true},
		{"Mixed string", "ca 15 tariffer", 15, true},
		{"No digits", "inga", 0, false},
		{"Bool", true, 0, false},
		{"Nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceCount(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("coerceCount(%v) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeOptionalFields(t *testing.T) {
	raw := `[{
		"name": "Full",
		"url": "https://full.se/api",
		"description": "Elnätstariffer",
		"company_org_no": "556036-2138",
		"meteringPointIdFrom": "735999100000000000",
		"meteringPointIdTo": "735999199999999999",
		"homepage": "https://full.se"
	}]`
	entries := Normalize(decode(t, raw))
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Description == nil || *e.Description != "Elnätstariffer" {
		t.Errorf("Description = %v", e.Description)
	}
	if e.CompanyOrgNo == nil || *e.CompanyOrgNo != "556036-2138" {
		t.Errorf("CompanyOrgNo = %v", e.CompanyOrgNo)
	}
	if e.MeteringPointIDFrom == nil || e.MeteringPointIDTo == nil {
		t.Error("metering point range missing")
	}
	if e.SourceURL == nil || *e.SourceURL != "https://full.se" {
		t.Errorf("SourceURL = %v", e.SourceURL)
	}
}
