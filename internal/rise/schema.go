// Package rise holds the RISE Eltariff data model: the strict, normalized
// representation of Swedish grid tariffs produced by the schema normalizer.
//
// Field names follow the RISE Eltariff API interchange convention
// (https://github.com/RI-SE/Eltariff-API): camelCase aliases such as
// fromIncluding, priceExVat and peakIdentificationPeriod.
package rise

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidPeriod is the date range something is valid in. A nil ToExcluding
// means the period is open-ended.
type ValidPeriod struct {
	FromIncluding Date  `json:"fromIncluding"`
	ToExcluding   *Date `json:"toExcluding,omitempty"`
}

// Price carries both VAT sides of a price. Values are exact decimals; the
// normalizer never routes them through binary floating point.
type Price struct {
	PriceExVat  decimal.Decimal `json:"priceExVat"`
	PriceIncVat decimal.Decimal `json:"priceIncVat"`
	Currency    Currency        `json:"currency"`
}

// CalendarPatternReference filters the calendar days an active period
// applies to, by calendar pattern name.
type CalendarPatternReference struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// ActivePeriod is a daily clock-time window, optionally gated by calendar
// pattern membership.
type ActivePeriod struct {
	FromIncluding             TimeOfDay                 `json:"fromIncluding"`
	ToExcluding               TimeOfDay                 `json:"toExcluding"`
	CalendarPatternReferences *CalendarPatternReference `json:"calendarPatternReferences,omitempty"`
}

// RecurringPeriod groups active periods that repeat at a given frequency.
type RecurringPeriod struct {
	Reference     string         `json:"reference"`
	Frequency     string         `json:"frequency"` // ISO-8601 duration, e.g. "P1D"
	ActivePeriods []ActivePeriod `json:"activePeriods"`
}

// PeakIdentificationSettings describes how a billable power peak is
// identified and averaged.
type PeakIdentificationSettings struct {
	PeakFunction                       string `json:"peakFunction"` // e.g. "peak(main)"
	PeakIdentificationPeriod           string `json:"peakIdentificationPeriod"`
	PeakDuration                       string `json:"peakDuration"`
	NumberOfPeaksForAverageCalculation int    `json:"numberOfPeaksForAverageCalculation"`
}

// PriceComponent is a single charged item inside a price element.
type PriceComponent struct {
	ID                         uuid.UUID                   `json:"id"`
	Name                       string                      `json:"name"`
	Description                *string                     `json:"description,omitempty"`
	Type                       ComponentType               `json:"type"`
	Reference                  string                      `json:"reference"`
	ValidPeriod                *ValidPeriod                `json:"validPeriod,omitempty"`
	Price                      Price                       `json:"price"`
	Unit                       *Unit                       `json:"unit,omitempty"`
	PricedPeriod               *string                     `json:"pricedPeriod,omitempty"` // e.g. "P1M", "P1Y"
	RecurringPeriods           []RecurringPeriod           `json:"recurringPeriods"`
	PeakIdentificationSettings *PeakIdentificationSettings `json:"peakIdentificationSettings,omitempty"`
}

// PriceElement is a container for price components. A tariff carries up to
// three: fixed, energy and power.
type PriceElement struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	CostFunction *string          `json:"costFunction,omitempty"`
	Components   []PriceComponent `json:"components"`
}

// CalendarPattern names a set of calendar days, either as weekday numbers
// (1-7) or as explicit dates (holidays).
type CalendarPattern struct {
	Reference string `json:"reference"`
	Frequency string `json:"frequency"` // "P1W" for weekly, "P1Y" for yearly
	Days      []int  `json:"days,omitempty"`
	Dates     []Date `json:"dates,omitempty"`
}

// Tariff is a complete grid tariff definition.
type Tariff struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Description   *string       `json:"description,omitempty"`
	ValidPeriod   ValidPeriod   `json:"validPeriod"`
	TimeZone      string        `json:"timeZone"`
	LastUpdated   time.Time     `json:"lastUpdated"`
	CompanyName   string        `json:"companyName"`
	CompanyOrgNo  string        `json:"companyOrgNo"`
	Product       *string       `json:"product,omitempty"`
	Direction     Direction     `json:"direction"`
	BillingPeriod string        `json:"billingPeriod"` // ISO-8601 duration, default "P1M"
	FixedPrice    *PriceElement `json:"fixedPrice,omitempty"`
	EnergyPrice   *PriceElement `json:"energyPrice,omitempty"`
	PowerPrice    *PriceElement `json:"powerPrice,omitempty"`
}

// PriceElements returns the tariff's price elements in fixed/energy/power
// order. Absent elements are returned as nil entries.
func (t *Tariff) PriceElements() [3]*PriceElement {
	return [3]*PriceElement{t.FixedPrice, t.EnergyPrice, t.PowerPrice}
}

// TariffsResponse is the normalizer's output document: the tariffs, the
// calendar patterns they reference, and any free-text warnings emitted by
// the upstream content generation step.
type TariffsResponse struct {
	Tariffs          []Tariff          `json:"tariffs"`
	CalendarPatterns []CalendarPattern `json:"calendarPatterns"`
	Warnings         []string          `json:"warnings"`
}

const (
	// DefaultTimeZone is the time zone assumed for Swedish grid tariffs.
	DefaultTimeZone = "Europe/Stockholm"
	// DefaultBillingPeriod is the billing period assumed when a source
	// does not state one.
	DefaultBillingPeriod = "P1M"
	// DefaultReference is the recurring period reference used when a
	// source does not name one.
	DefaultReference = "main"
	// DefaultFrequency is the recurring period frequency assumed when a
	// source does not state one.
	DefaultFrequency = "P1D"
)
