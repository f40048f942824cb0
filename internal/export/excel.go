// Package export produces shareable artifacts from normalized tariff data:
// Excel workbooks, OpenAPI specifications and deployable ZIP packages.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sourceful-energy/tariff-service/internal/metrics"
	"github.com/sourceful-energy/tariff-service/internal/rise"
)

const (
	sheetOverview = "Översikt"
	sheetFixed    = "Fasta avgifter"
	sheetEnergy   = "Energiavgifter"
	sheetPower    = "Effektavgifter"
)

// headerColor is the Sourceful brand teal used for header rows.
const headerColor = "017E7A"

// Excel renders the tariffs as a workbook with one overview sheet and one
// sheet per price element kind, all in Swedish.
func Excel(tariffs *rise.TariffsResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Style: 1}, {Type: "right", Style: 1},
			{Type: "top", Style: 1}, {Type: "bottom", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetOverview); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetFixed, sheetEnergy, sheetPower} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	if err := writeOverview(f, headerStyle, tariffs); err != nil {
		return nil, err
	}
	if err := writeComponentSheet(f, headerStyle, sheetFixed, tariffs, func(t *rise.Tariff) *rise.PriceElement { return t.FixedPrice }, fixedExtra); err != nil {
		return nil, err
	}
	if err := writeComponentSheet(f, headerStyle, sheetEnergy, tariffs, func(t *rise.Tariff) *rise.PriceElement { return t.EnergyPrice }, unitExtra(rise.UnitKWh)); err != nil {
		return nil, err
	}
	if err := writeComponentSheet(f, headerStyle, sheetPower, tariffs, func(t *rise.Tariff) *rise.PriceElement { return t.PowerPrice }, unitExtra(rise.UnitKW)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	metrics.ExportsGenerated.WithLabelValues("excel").Inc()
	return buf.Bytes(), nil
}

func writeOverview(f *excelize.File, headerStyle int, tariffs *rise.TariffsResponse) error {
	header := []any{"Företag", "Tariffnamn", "Beskrivning", "Giltig från", "Giltig till"}
	if err := writeHeader(f, sheetOverview, headerStyle, header); err != nil {
		return err
	}

	for i := range tariffs.Tariffs {
		tariff := &tariffs.Tariffs[i]
		validTo := "Tillsvidare"
		if tariff.ValidPeriod.ToExcluding != nil {
			validTo = tariff.ValidPeriod.ToExcluding.String()
		}
		description := ""
		if tariff.Description != nil {
			description = *tariff.Description
		}
		row := []any{
			tariff.CompanyName,
			tariff.Name,
			description,
			tariff.ValidPeriod.FromIncluding.String(),
			validTo,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetOverview, cell, &row); err != nil {
			return err
		}
	}

	return autoFitColumns(f, sheetOverview, len(header))
}

// extraColumn produces the last column of a component sheet.
type extraColumn struct {
	title string
	value func(*rise.PriceComponent) string
}

var fixedExtra = extraColumn{
	title: "Period",
	value: func(c *rise.PriceComponent) string {
		if c.PricedPeriod == nil {
			return ""
		}
		switch *c.PricedPeriod {
		case "P1M":
			return "per månad"
		case "P1Y":
			return "per år"
		}
		return *c.PricedPeriod
	},
}

func unitExtra(fallback rise.Unit) extraColumn {
	return extraColumn{
		title: "Enhet",
		value: func(c *rise.PriceComponent) string {
			if c.Unit != nil {
				return string(*c.Unit)
			}
			return string(fallback)
		},
	}
}

func writeComponentSheet(f *excelize.File, headerStyle int, sheet string, tariffs *rise.TariffsResponse, element func(*rise.Tariff) *rise.PriceElement, extra extraColumn) error {
	header := []any{"Tariff", "Avgift", "Pris ex moms", "Pris ink moms", "Valuta", extra.title}
	if err := writeHeader(f, sheet, headerStyle, header); err != nil {
		return err
	}

	rowIdx := 2
	for i := range tariffs.Tariffs {
		tariff := &tariffs.Tariffs[i]
		el := element(tariff)
		if el == nil {
			continue
		}
		for j := range el.Components {
			comp := &el.Components[j]
			exVat, _ := comp.Price.PriceExVat.Float64()
			incVat, _ := comp.Price.PriceIncVat.Float64()
			row := []any{
				tariff.Name,
				comp.Name,
				exVat,
				incVat,
				string(comp.Price.Currency),
				extra.value(comp),
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			rowIdx++
		}
	}

	return autoFitColumns(f, sheet, len(header))
}

func writeHeader(f *excelize.File, sheet string, style int, header []any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	end, _ := excelize.CoordinatesToCellName(len(header), 1)
	return f.SetCellStyle(sheet, "A1", end, style)
}

func autoFitColumns(f *excelize.File, sheet string, columns int) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	for col := 1; col <= columns; col++ {
		maxLen := 0
		for _, row := range rows {
			if col-1 < len(row) && len(row[col-1]) > maxLen {
				maxLen = len(row[col-1])
			}
		}
		width := float64(maxLen + 2)
		if width > 50 {
			width = 50
		}
		name, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}
