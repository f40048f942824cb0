package rise

// Direction is the direction of energy flow a tariff applies to.
type Direction string

const (
	DirectionConsumption Direction = "consumption"
	DirectionProduction  Direction = "production"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionConsumption || d == DirectionProduction
}

// ComponentType classifies how a price component is charged.
type ComponentType string

const (
	ComponentFixed    ComponentType = "fixed"
	ComponentVariable ComponentType = "variable"
	ComponentPeak     ComponentType = "peak"
	ComponentDynamic  ComponentType = "dynamic"
)

func (t ComponentType) Valid() bool {
	switch t {
	case ComponentFixed, ComponentVariable, ComponentPeak, ComponentDynamic:
		return true
	}
	return false
}

// Currency is the billing currency of a price.
type Currency string

const (
	CurrencySEK Currency = "SEK"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) Valid() bool {
	return c == CurrencySEK || c == CurrencyEUR
}

// Unit is the measurement unit a price applies per.
type Unit string

const (
	UnitKWh  Unit = "kWh"
	UnitKW   Unit = "kW"
	UnitKVAr Unit = "kVAr"
)

func (u Unit) Valid() bool {
	return u == UnitKWh || u == UnitKW || u == UnitKVAr
}
