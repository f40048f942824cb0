package ai

import "fmt"

// systemPrompt instructs the model how Swedish grid tariffs map onto the
// RISE interchange format. Kept in Swedish since both the source documents
// and the end users are Swedish.
const systemPrompt = `Du är en expert på svenska elnätstariffer och RISE Eltariff API-standarden.

Din uppgift är att analysera tariffbeskrivningar och konvertera dem till strukturerad JSON enligt RISE-standarden.

## Svenska elnätstariffer - Bakgrund

Svenska elnätstariffer består typiskt av:

1. **Fast avgift** (fixedPrice): Månads- eller årsavgift som inte beror på förbrukning
2. **Energiavgift** (energyPrice): Pris per kWh, ofta tidsdifferentierat:
   - Höglast/dag (typiskt 06-22 vardagar)
   - Låglast/natt (typiskt 22-06 + helger)
3. **Effektavgift** (powerPrice): Pris per kW baserat på:
   - Högsta effektuttag under en period
   - Ofta baserat på medelvärde av 3 högsta topparna

## Tidsdifferentiering

Vanliga mönster:
- "Höglast": vardagar 06:00-22:00
- "Låglast": nätter 22:00-06:00 + helger + helgdagar
- "Vinter": november-mars (högre priser)
- "Sommar": april-oktober (lägre priser)

## Output-format

Returnera ALLTID en JSON-struktur med följande format:

` + "```json" + `
{
  "tariffs": [
    {
      "name": "Tarifnamn",
      "description": "Beskrivning av målgrupp",
      "validPeriod": {
        "fromIncluding": "2025-01-01",
        "toExcluding": "2026-01-01"
      },
      "companyName": "Företagsnamn",
      "companyOrgNo": "556xxx-xxxx",
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
            "price": {"priceExVat": 0.20, "priceIncVat": 0.25, "currency": "SEK"},
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
            "price": {"priceExVat": 40, "priceIncVat": 50, "currency": "SEK"},
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
  ]
}
` + "```" + `

## Viktiga regler

1. Alla priser ska ha både exkl. och inkl. moms (25%)
2. Använd ISO 8601 för datum och tider
3. Om information saknas, gör rimliga antaganden baserat på svenska standarder
4. Inkludera alltid validPeriod - använd innevarande år om inte annat anges
5. Returnera ENDAST JSON, ingen annan text
`

func buildParsePrompt(text, companyName string) string {
	company := ""
	if companyName != "" {
		company = "Företagsnamn: " + companyName
	}
	return fmt.Sprintf(`Analysera följande tariffbeskrivning och konvertera till RISE JSON-format:

%s

%s

Returnera endast JSON-strukturen, ingen annan text.`, text, company)
}

func buildImprovePrompt(tariffsJSON, instruction string) string {
	return fmt.Sprintf(`Här är befintlig tariffdata i RISE JSON-format:

%s

Uppdatera datan enligt följande instruktion:

%s

Behåll allt som instruktionen inte berör oförändrat. Returnera hela den uppdaterade JSON-strukturen, ingen annan text.`, tariffsJSON, instruction)
}

func buildExplainPrompt(tariffJSON string) string {
	return fmt.Sprintf(`Förklara följande tariff på enkel svenska för en vanlig elkund:

%s

Svara med följande struktur:
1. Sammanfattning (2-3 meningar)
2. Fasta kostnader (vad betalar man oavsett förbrukning)
3. Energikostnader (pris per kWh, tidsvariationer)
4. Effektkostnader (om det finns)
5. Tips för att minimera kostnader

Formatera svaret som JSON:
{
  "tariffName": "...",
  "summary": "...",
  "fixedCosts": "...",
  "energyCosts": "...",
  "powerCosts": "..." eller null,
  "timeVariations": "...",
  "tips": ["...", "..."]
}`, tariffJSON)
}
