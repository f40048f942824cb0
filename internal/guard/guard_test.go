package guard

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sourceful-energy/tariff-service/internal/rise"
)

func TestCheckFreeText(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{
			"Typical tariff page",
			"Elnätstariffer för 2025. Överföringsavgift 24,5 öre/kWh och effektavgift 45 kr/kW per månad.",
			true,
		},
		{
			"Strong keyword plus one more hit",
			"Vår nätavgift beror på din förbrukning.",
			true,
		},
		{
			"Single strong hit only",
			"Information om vår tariff.",
			false,
		},
		{
			"Many weak hits without a strong one",
			"Abonnemang med fast energipris och låg energiavgift, öre per enhet.",
			false,
		},
		{
			"Unrelated Swedish text",
			"Öppettider och kontaktuppgifter för kundtjänst.",
			false,
		},
		{
			"Case insensitive",
			"ELNÄT och EFFEKTAVGIFT gäller från januari.",
			true,
		},
		{
			"Empty input",
			"",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckFreeText(tt.text)
			if got.OK != tt.ok {
				t.Errorf("CheckFreeText(%q).OK = %v, want %v (reason %q)", tt.text, got.OK, tt.ok, got.Reason)
			}
			if !got.OK && got.Reason != reasonNotTariffText {
				t.Errorf("Reason = %q, want %q", got.Reason, reasonNotTariffText)
			}
			if got.OK && got.Reason != "" {
				t.Errorf("Reason = %q on OK result, want empty", got.Reason)
			}
		})
	}
}

func pricedTariff(name, company string) rise.Tariff {
	return rise.Tariff{
		Name:        name,
		CompanyName: company,
		FixedPrice: &rise.PriceElement{
			Name: "Fast avgift",
			Components: []rise.PriceComponent{
				{
					Name: "Abonnemang",
					Type: rise.ComponentFixed,
					Price: rise.Price{
						PriceExVat:  decimal.NewFromInt(100),
						PriceIncVat: decimal.NewFromInt(125),
						Currency:    rise.CurrencySEK,
					},
				},
			},
		},
	}
}

func TestCheck(t *testing.T) {
	bare := pricedTariff("Villatariff", "Ellevio AB")
	bare.FixedPrice = nil

	unattributed := pricedTariff("Villatariff", "   ")

	zeroPriced := pricedTariff("Kampanjtariff", "Ellevio AB")
	zeroPriced.FixedPrice.Components[0].Price.PriceExVat = decimal.Zero
	zeroPriced.FixedPrice.Components[0].Price.PriceIncVat = decimal.Zero

	tests := []struct {
		name       string
		response   *rise.TariffsResponse
		ok         bool
		wantReason string
	}{
		{"Nil response", nil, false, reasonNoTariffs},
		{"No tariffs", &rise.TariffsResponse{}, false, reasonNoTariffs},
		{
			"Missing company name",
			&rise.TariffsResponse{Tariffs: []rise.Tariff{unattributed}},
			false, reasonNoCompany,
		},
		{
			"No components anywhere",
			&rise.TariffsResponse{Tariffs: []rise.Tariff{bare}},
			false, reasonNoComponents,
		},
		{
			"Complete tariff",
			&rise.TariffsResponse{Tariffs: []rise.Tariff{pricedTariff("Villatariff", "Ellevio AB")}},
			true, "",
		},
		{
			"Zero price still counts as priced",
			&rise.TariffsResponse{Tariffs: []rise.Tariff{zeroPriced}},
			true, "",
		},
		{
			"First failing tariff wins",
			&rise.TariffsResponse{Tariffs: []rise.Tariff{unattributed, pricedTariff("OK", "Ellevio AB")}},
			false, reasonNoCompany,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.response)
			if got.OK != tt.ok {
				t.Errorf("Check().OK = %v, want %v", got.OK, tt.ok)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestCheckEnergyAndPowerComponentsCount(t *testing.T) {
	// Components in any of the three price elements satisfy the gate.
	tariff := rise.Tariff{
		Name:        "Effekttariff",
		CompanyName: "Kraftringen Nät AB",
		PowerPrice: &rise.PriceElement{
			Components: []rise.PriceComponent{{Name: "Effektavgift", Type: rise.ComponentPeak}},
		},
	}
	got := Check(&rise.TariffsResponse{Tariffs: []rise.Tariff{tariff}})
	if !got.OK {
		t.Errorf("Check().OK = false (%q), want true", got.Reason)
	}
}
