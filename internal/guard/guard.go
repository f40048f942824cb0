// Package guard holds the plausibility checks that gate whether content and
// results are treated as grid tariff data at all.
//
// Two independent gates: CheckFreeText scores raw input text against a
// Swedish keyword set before it is ever sent for AI analysis, and Check
// decides whether a fully normalized result is complete enough to persist
// or export. Both are heuristics with typed negative results, not errors.
package guard

import (
	"strings"

	"github.com/sourceful-energy/tariff-service/internal/rise"
)

// Result is the outcome of a guard check. Reason is set only when OK is
// false, in end-user facing Swedish.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func ok() Result { return Result{OK: true} }

func notOK(reason string) Result { return Result{OK: false, Reason: reason} }

const (
	reasonNotTariffText = "Innehållet verkar inte beskriva en elnäts-/effekttariff. " +
		"Skicka endast elnätsbolagsdata (tariffer, nätavgifter, kWh/kW-priser)."
	reasonNoTariffs    = "Resultatet saknar tariffer och kan därför inte sparas."
	reasonNoCompany    = "Resultatet saknar företagsnamn och kan därför inte sparas."
	reasonNoComponents = "Resultatet saknar prismoduler och kan därför inte sparas."
)

// keywords is the full vocabulary scored against input text.
var keywords = []string{
	"elnät", "elnäts", "elnätsbolag", "elnätstariff", "elnätstariffer",
	"nätavgift", "nätavgifter", "överföringsavgift", "överföringsavgifter",
	"tariff", "tariffer", "effekt", "effektavgift", "effektavgifter",
	"abonnemang", "säkring", "förbrukning", "energipris", "energiavgift",
	"kwh", "kw", "kvar", "öre", "kr/kwh", "kr/kw", "rise", "elnätet",
}

// strongKeywords is the narrower set that must hit at least once: terms
// specific enough to grid tariffs that generic energy prose without any of
// them is rejected.
var strongKeywords = map[string]struct{}{
	"elnät":            {},
	"elnätstariff":     {},
	"nätavgift":        {},
	"överföringsavgift": {},
	"effektavgift":     {},
	"kwh":              {},
	"kw":               {},
	"kr/kwh":           {},
	"kr/kw":            {},
	"tariff":           {},
}

// CheckFreeText scores raw text before AI analysis. It requires at least
// one strong keyword and two total keyword hits. A heuristic gate: false
// positives and negatives are expected and acceptable.
func CheckFreeText(text string) Result {
	lowered := strings.ToLower(text)

	hits := 0
	strong := false
	for _, keyword := range keywords {
		if !strings.Contains(lowered, keyword) {
			continue
		}
		hits++
		if _, isStrong := strongKeywords[keyword]; isStrong {
			strong = true
		}
	}

	if strong && hits >= 2 {
		return ok()
	}
	return notOK(reasonNotTariffText)
}

// Check decides whether a normalized result is plausible tariff data:
// non-empty, attributable to a company, and priced. Rules are evaluated in
// order and the first failure wins. A component with a price of exactly
// zero still counts as priced.
func Check(response *rise.TariffsResponse) Result {
	if response == nil || len(response.Tariffs) == 0 {
		return notOK(reasonNoTariffs)
	}

	for i := range response.Tariffs {
		tariff := &response.Tariffs[i]

		if strings.TrimSpace(tariff.CompanyName) == "" {
			return notOK(reasonNoCompany)
		}

		components := 0
		for _, element := range tariff.PriceElements() {
			if element != nil {
				components += len(element.Components)
			}
		}
		if components == 0 {
			return notOK(reasonNoComponents)
		}
	}

	return ok()
}
