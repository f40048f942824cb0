// Package normalize maps loosely structured tariff documents onto the
// strict RISE model.
//
// The input is untrusted, AI-generated JSON: field names vary, optional
// structures come and go, and numbers arrive as either literals or strings.
// Normalization is all-or-nothing per document — tariff data is billing
// relevant, so the first structurally invalid tariff aborts the whole batch
// rather than returning a partial result.
package normalize

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sourceful-energy/tariff-service/internal/rise"
)

// SchemaError reports a required field that is missing or a value that
// failed coercion during normalization.
type SchemaError struct {
	Path  string // JSON path of the offending field, e.g. "tariffs[0].companyName"
	Value any    // offending value, nil when the field was absent
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("schema: %s: %s (got %v)", e.Path, e.Msg, e.Value)
	}
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Msg)
}

// Normalizer converts generic JSON documents into rise.TariffsResponse
// graphs. The zero value is not usable; use New.
type Normalizer struct {
	calendarYear int
	now          func() time.Time
	newID        func() uuid.UUID
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCalendarYear sets the reference year for the default calendar
// pattern set.
func WithCalendarYear(year int) Option {
	return func(n *Normalizer) { n.calendarYear = year }
}

// WithClock overrides the timestamp source for lastUpdated stamping.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New returns a Normalizer with the default calendar year taken from the
// current date.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		calendarYear: time.Now().Year(),
		now:          time.Now,
		newID:        uuid.New,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize builds the strict tariff graph from a parsed generic document.
// Every entity receives a freshly generated identity; ids present in the
// source are deliberately ignored so independent documents can never
// collide. The calendarPatterns of the output are always the fixed default
// set — only the pattern names referenced inside active periods are taken
// from the source.
func (n *Normalizer) Normalize(doc map[string]any) (*rise.TariffsResponse, error) {
	rawTariffs, _ := pickFirst(doc, aliasTariffs)

	var tariffs []rise.Tariff
	for i, item := range asSlice(rawTariffs) {
		m := asObject(item)
		if m == nil {
			return nil, &SchemaError{Path: fmt.Sprintf("tariffs[%d]", i), Value: item, Msg: "expected object"}
		}
		tariff, err := n.normalizeTariff(m, fmt.Sprintf("tariffs[%d]", i))
		if err != nil {
			return nil, err
		}
		tariffs = append(tariffs, *tariff)
	}

	var warnings []string
	if raw, ok := pickFirst(doc, aliasWarnings); ok {
		warnings = stringList(raw)
	}

	return &rise.TariffsResponse{
		Tariffs:          tariffs,
		CalendarPatterns: rise.DefaultCalendarPatterns(n.calendarYear),
		Warnings:         warnings,
	}, nil
}

func (n *Normalizer) normalizeTariff(m map[string]any, path string) (*rise.Tariff, error) {
	name := stringOrDefault(m, aliasName, "")
	if name == "" {
		return nil, &SchemaError{Path: path + ".name", Msg: "required field missing"}
	}
	company := stringOrDefault(m, aliasCompanyName, "")
	if company == "" {
		return nil, &SchemaError{Path: path + ".companyName", Msg: "required field missing"}
	}

	vpRaw, ok := pickFirst(m, aliasValidPeriod)
	if !ok {
		return nil, &SchemaError{Path: path + ".validPeriod", Msg: "required field missing"}
	}
	validPeriod, err := n.normalizeValidPeriod(asObject(vpRaw), path+".validPeriod")
	if err != nil {
		return nil, err
	}

	direction := rise.DirectionConsumption
	if v, ok := pickFirst(m, aliasDirection); ok {
		s, _ := coerceString(v)
		direction = rise.Direction(s)
		if !direction.Valid() {
			return nil, &SchemaError{Path: path + ".direction", Value: s, Msg: "unknown direction"}
		}
	}

	tariff := &rise.Tariff{
		ID:            n.newID(),
		Name:          name,
		Description:   optionalString(m, aliasDescription),
		ValidPeriod:   *validPeriod,
		TimeZone:      stringOrDefault(m, aliasTimeZone, rise.DefaultTimeZone),
		LastUpdated:   n.now(),
		CompanyName:   company,
		CompanyOrgNo:  stringOrDefault(m, aliasCompanyOrgNo, ""),
		Product:       optionalString(m, aliasProduct),
		Direction:     direction,
		BillingPeriod: stringOrDefault(m, aliasBillingPeriod, rise.DefaultBillingPeriod),
	}

	if tariff.FixedPrice, err = n.normalizeElement(m, aliasFixedPrice, path+".fixedPrice"); err != nil {
		return nil, err
	}
	if tariff.EnergyPrice, err = n.normalizeElement(m, aliasEnergyPrice, path+".energyPrice"); err != nil {
		return nil, err
	}
	if tariff.PowerPrice, err = n.normalizeElement(m, aliasPowerPrice, path+".powerPrice"); err != nil {
		return nil, err
	}

	return tariff, nil
}

func (n *Normalizer) normalizeValidPeriod(m map[string]any, path string) (*rise.ValidPeriod, error) {
	if m == nil {
		return nil, &SchemaError{Path: path, Msg: "expected object"}
	}
	from, err := requireDate(m, aliasFromIncluding, path+".fromIncluding")
	if err != nil {
		return nil, err
	}
	to, err := optionalDate(m, aliasToExcluding, path+".toExcluding")
	if err != nil {
		return nil, err
	}
	return &rise.ValidPeriod{FromIncluding: from, ToExcluding: to}, nil
}

// normalizeElement resolves an optional price element container. Absent or
// null containers stay nil so callers can distinguish "no power pricing"
// from "power pricing with zero components".
func (n *Normalizer) normalizeElement(m map[string]any, keys []string, path string) (*rise.PriceElement, error) {
	raw, ok := pickFirst(m, keys)
	if !ok {
		return nil, nil
	}
	em := asObject(raw)
	if em == nil {
		return nil, nil
	}

	element := &rise.PriceElement{
		ID:           n.newID(),
		Name:         stringOrDefault(em, aliasName, ""),
		Description:  optionalString(em, aliasDescription),
		CostFunction: optionalString(em, aliasCostFunction),
		Components:   []rise.PriceComponent{},
	}

	rawComponents, _ := pickFirst(em, aliasComponents)
	for i, item := range asSlice(rawComponents) {
		cm := asObject(item)
		if cm == nil {
			return nil, &SchemaError{Path: fmt.Sprintf("%s.components[%d]", path, i), Value: item, Msg: "expected object"}
		}
		component, err := n.normalizeComponent(cm, fmt.Sprintf("%s.components[%d]", path, i))
		if err != nil {
			return nil, err
		}
		element.Components = append(element.Components, *component)
	}

	return element, nil
}

func (n *Normalizer) normalizeComponent(m map[string]any, path string) (*rise.PriceComponent, error) {
	componentType := rise.ComponentFixed
	if v, ok := pickFirst(m, aliasType); ok {
		s, _ := coerceString(v)
		componentType = rise.ComponentType(s)
		if !componentType.Valid() {
			return nil, &SchemaError{Path: path + ".type", Value: s, Msg: "unknown component type"}
		}
	}

	price, err := n.normalizePrice(m, path+".price")
	if err != nil {
		return nil, err
	}

	component := &rise.PriceComponent{
		ID:               n.newID(),
		Name:             stringOrDefault(m, aliasName, ""),
		Description:      optionalString(m, aliasDescription),
		Type:             componentType,
		Reference:        stringOrDefault(m, aliasReference, rise.DefaultReference),
		Price:            *price,
		PricedPeriod:     optionalString(m, aliasPricedPeriod),
		RecurringPeriods: []rise.RecurringPeriod{},
	}

	if v, ok := pickFirst(m, aliasUnit); ok {
		s, _ := coerceString(v)
		unit := rise.Unit(s)
		if !unit.Valid() {
			return nil, &SchemaError{Path: path + ".unit", Value: s, Msg: "unknown unit"}
		}
		component.Unit = &unit
	}

	if v, ok := pickFirst(m, aliasValidPeriod); ok {
		if vm := asObject(v); vm != nil {
			vp, err := n.normalizeValidPeriod(vm, path+".validPeriod")
			if err != nil {
				return nil, err
			}
			component.ValidPeriod = vp
		}
	}

	rawRecurring, _ := pickFirst(m, aliasRecurring)
	for i, item := range asSlice(rawRecurring) {
		rm := asObject(item)
		if rm == nil {
			continue
		}
		rp, err := n.normalizeRecurringPeriod(rm, fmt.Sprintf("%s.recurringPeriods[%d]", path, i))
		if err != nil {
			return nil, err
		}
		component.RecurringPeriods = append(component.RecurringPeriods, *rp)
	}

	if v, ok := pickFirst(m, aliasPeakSettings); ok {
		if pm := asObject(v); pm != nil {
			ps, err := n.normalizePeakSettings(pm, path+".peakIdentificationSettings")
			if err != nil {
				return nil, err
			}
			component.PeakIdentificationSettings = ps
		}
	}

	return component, nil
}

// normalizePrice builds the component price. A missing price object or a
// missing VAT side normalizes to an exact zero rather than failing: zero is
// a legitimate price (promotional fees), and the guard decides downstream
// whether the result is plausible at all. A present but unparseable value is
// still a hard schema error.
func (n *Normalizer) normalizePrice(m map[string]any, path string) (*rise.Price, error) {
	pm := asObject(mustPick(m, aliasPrice))
	if pm == nil {
		pm = map[string]any{}
	}

	exVat := decimal.Zero
	if exRaw, ok := pickFirst(pm, aliasPriceExVat); ok {
		parsed, err := coerceDecimal(exRaw)
		if err != nil {
			return nil, &SchemaError{Path: path + ".priceExVat", Value: exRaw, Msg: "invalid decimal"}
		}
		exVat = parsed
	}

	incVat := decimal.Zero
	if incRaw, ok := pickFirst(pm, aliasPriceIncVat); ok {
		parsed, err := coerceDecimal(incRaw)
		if err != nil {
			return nil, &SchemaError{Path: path + ".priceIncVat", Value: incRaw, Msg: "invalid decimal"}
		}
		incVat = parsed
	}

	currency := rise.CurrencySEK
	if v, ok := pickFirst(pm, aliasCurrency); ok {
		s, _ := coerceString(v)
		currency = rise.Currency(s)
		if !currency.Valid() {
			return nil, &SchemaError{Path: path + ".currency", Value: s, Msg: "unknown currency"}
		}
	}

	return &rise.Price{PriceExVat: exVat, PriceIncVat: incVat, Currency: currency}, nil
}

func (n *Normalizer) normalizeRecurringPeriod(m map[string]any, path string) (*rise.RecurringPeriod, error) {
	rp := &rise.RecurringPeriod{
		Reference:     stringOrDefault(m, aliasReference, rise.DefaultReference),
		Frequency:     stringOrDefault(m, aliasFrequency, rise.DefaultFrequency),
		ActivePeriods: []rise.ActivePeriod{},
	}

	rawActive, _ := pickFirst(m, aliasActivePeriods)
	for i, item := range asSlice(rawActive) {
		am := asObject(item)
		if am == nil {
			continue
		}
		ap, err := n.normalizeActivePeriod(am, fmt.Sprintf("%s.activePeriods[%d]", path, i))
		if err != nil {
			return nil, err
		}
		rp.ActivePeriods = append(rp.ActivePeriods, *ap)
	}

	return rp, nil
}

func (n *Normalizer) normalizeActivePeriod(m map[string]any, path string) (*rise.ActivePeriod, error) {
	from, err := requireTimeOfDay(m, aliasFromIncluding, path+".fromIncluding")
	if err != nil {
		return nil, err
	}
	to, err := requireTimeOfDay(m, aliasToExcluding, path+".toExcluding")
	if err != nil {
		return nil, err
	}

	ap := &rise.ActivePeriod{FromIncluding: from, ToExcluding: to}

	if v, ok := pickFirst(m, aliasCalendarRefs); ok {
		if cm := asObject(v); cm != nil {
			include, _ := pickFirst(cm, aliasInclude)
			exclude, _ := pickFirst(cm, aliasExclude)
			ap.CalendarPatternReferences = &rise.CalendarPatternReference{
				Include: stringList(include),
				Exclude: stringList(exclude),
			}
		}
	}

	return ap, nil
}

func (n *Normalizer) normalizePeakSettings(m map[string]any, path string) (*rise.PeakIdentificationSettings, error) {
	count := 1
	if v, ok := pickFirst(m, aliasPeakCount); ok {
		parsed, err := coerceInt(v)
		if err != nil || parsed < 1 {
			return nil, &SchemaError{Path: path + ".numberOfPeaksForAverageCalculation", Value: v, Msg: "expected positive integer"}
		}
		count = parsed
	}

	return &rise.PeakIdentificationSettings{
		PeakFunction:                       stringOrDefault(m, aliasPeakFunction, "peak(main)"),
		PeakIdentificationPeriod:           stringOrDefault(m, aliasPeakPeriod, "P1D"),
		PeakDuration:                       stringOrDefault(m, aliasPeakDuration, "PT1H"),
		NumberOfPeaksForAverageCalculation: count,
	}, nil
}

func requireTimeOfDay(m map[string]any, keys []string, path string) (rise.TimeOfDay, error) {
	v, ok := pickFirst(m, keys)
	if !ok {
		return rise.TimeOfDay{}, &SchemaError{Path: path, Msg: "required field missing"}
	}
	s, ok := coerceString(v)
	if !ok {
		return rise.TimeOfDay{}, &SchemaError{Path: path, Value: v, Msg: "expected time string"}
	}
	t, err := rise.ParseTimeOfDay(s)
	if err != nil {
		return rise.TimeOfDay{}, &SchemaError{Path: path, Value: s, Msg: "invalid time"}
	}
	return t, nil
}

func mustPick(m map[string]any, keys []string) any {
	v, _ := pickFirst(m, keys)
	return v
}
