package rise

import "time"

// Pattern names referenced by the default calendar set.
const (
	PatternWeekdays = "weekdays"
	PatternWeekends = "weekends"
	PatternHolidays = "holidays"
)

// swedishHolidays lists the public holidays per reference year. Only years
// we have verified tables for are present; DefaultCalendarPatterns falls
// back to the latest known year for anything newer.
var swedishHolidays = map[int][]Date{
	2025: {
		NewDate(2025, time.January, 1),   // Nyårsdagen
		NewDate(2025, time.January, 6),   // Trettondedag jul
		NewDate(2025, time.April, 18),    // Långfredagen
		NewDate(2025, time.April, 21),    // Annandag påsk
		NewDate(2025, time.May, 1),       // Första maj
		NewDate(2025, time.May, 29),      // Kristi himmelsfärdsdag
		NewDate(2025, time.June, 6),      // Nationaldagen
		NewDate(2025, time.June, 21),     // Midsommardagen
		NewDate(2025, time.November, 1),  // Alla helgons dag
		NewDate(2025, time.December, 25), // Juldagen
		NewDate(2025, time.December, 26), // Annandag jul
	},
	2026: {
		NewDate(2026, time.January, 1),
		NewDate(2026, time.January, 6),
		NewDate(2026, time.April, 3),
		NewDate(2026, time.April, 6),
		NewDate(2026, time.May, 1),
		NewDate(2026, time.May, 14),
		NewDate(2026, time.June, 6),
		NewDate(2026, time.June, 20),
		NewDate(2026, time.October, 31),
		NewDate(2026, time.December, 25),
		NewDate(2026, time.December, 26),
	},
}

// DefaultCalendarPatterns returns the fixed calendar pattern set for Swedish
// grid tariffs: weekdays, weekends, and the holiday dates of the given
// reference year. The normalizer always emits this set regardless of what a
// source document provided.
func DefaultCalendarPatterns(year int) []CalendarPattern {
	holidays, ok := swedishHolidays[year]
	if !ok {
		latest := 0
		for y := range swedishHolidays {
			if y > latest {
				latest = y
			}
		}
		holidays = swedishHolidays[latest]
	}

	return []CalendarPattern{
		{
			Reference: PatternWeekdays,
			Frequency: "P1W",
			Days:      []int{1, 2, 3, 4, 5},
		},
		{
			Reference: PatternWeekends,
			Frequency: "P1W",
			Days:      []int{6, 7},
		},
		{
			Reference: PatternHolidays,
			Frequency: "P1Y",
			Dates:     holidays,
		},
	}
}
