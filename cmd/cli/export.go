package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sourceful-energy/tariff-service/internal/export"
	"github.com/sourceful-energy/tariff-service/internal/rise"
)

var (
	exportFormat  string
	exportCompany string
	exportOrgNo   string
	exportOutput  string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <result.json>",
	Short: "Export a normalized tariff document as Excel or an API package",
	Long: `Export a RISE gridtariff JSON document (as produced by the parse command
or the API) into a deliverable: a styled Excel workbook, a deployable API
package (ZIP with static API files, OpenAPI spec and Docker setup), or a bare
OpenAPI specification.`,
	Example: `  tariff-service export result.json --format xlsx
  tariff-service export result.json --format package --org-no 556037-7326
  tariff-service export result.json --format openapi -o openapi.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "Output format: xlsx, package, or openapi")
	exportCmd.Flags().StringVar(&exportCompany, "company", "", "Company name (default: from the document)")
	exportCmd.Flags().StringVar(&exportOrgNo, "org-no", "", "Company organisation number")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: derived from company name)")
}

func runExport(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var tariffs rise.TariffsResponse
	if err := json.Unmarshal(content, &tariffs); err != nil {
		return fmt.Errorf("input is not a tariff document: %w", err)
	}

	company := exportCompany
	if company == "" && len(tariffs.Tariffs) > 0 {
		company = tariffs.Tariffs[0].CompanyName
	}
	if company == "" {
		return fmt.Errorf("no company name in document, use --company")
	}

	var (
		data     []byte
		filename string
	)
	switch exportFormat {
	case "xlsx":
		data, err = export.Excel(&tariffs)
		filename = export.ExcelFilename(company)
	case "package":
		data, err = export.Bundle(&tariffs, company, exportOrgNo)
		filename = export.BundleFilename(company)
	case "openapi":
		data, err = json.MarshalIndent(export.OpenAPISpec(company, exportOrgNo), "", "  ")
		filename = export.Slug(company) + "-openapi.json"
	default:
		return fmt.Errorf("unknown format: %s (use xlsx, package, or openapi)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if exportOutput != "" {
		filename = exportOutput
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	logger.Info().Str("file", filename).Int("bytes", len(data)).Msg("Export written")
	return nil
}
