package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sourceful-energy/tariff-service/internal/catalogue"
	"github.com/sourceful-energy/tariff-service/internal/scrape"
)

const defaultCatalogueURL = "https://eltariff.deplide.org/tariffcatalogue/all"

var (
	catalogueURL    string
	catalogueOutput string
)

// catalogueCmd represents the catalogue command
var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "List grid companies from the national tariff catalogue",
	Long: `Fetch the national tariff catalogue and print the grid companies it
lists, together with their published tariff API endpoints where available.`,
	Example: `  tariff-service catalogue
  tariff-service catalogue --output json`,
	RunE: runCatalogue,
}

func init() {
	rootCmd.AddCommand(catalogueCmd)

	catalogueCmd.Flags().StringVar(&catalogueURL, "url", "", "Catalogue URL (default: configured or national catalogue)")
	catalogueCmd.Flags().StringVar(&catalogueOutput, "output", "table", "Output format: table or json")
}

func runCatalogue(cmd *cobra.Command, args []string) error {
	url := catalogueURL
	if url == "" && cfg != nil && cfg.Scraper.CatalogueURL != "" {
		url = cfg.Scraper.CatalogueURL
	}
	if url == "" {
		url = defaultCatalogueURL
	}

	logger.Info().Str("url", url).Msg("Fetching catalogue")

	scraper := scrape.NewDefault()
	data, err := scraper.FetchJSON(context.Background(), url)
	if err != nil {
		return fmt.Errorf("failed to fetch catalogue: %w", err)
	}

	entries := catalogue.Normalize(data)
	logger.Info().Int("count", len(entries)).Msg("Catalogue fetched")

	if catalogueOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tORG NO\tTARIFFS\tAPI")
	for _, entry := range entries {
		orgNo := ""
		if entry.CompanyOrgNo != nil {
			orgNo = *entry.CompanyOrgNo
		}
		tariffs := "-"
		if entry.TariffCount != nil {
			tariffs = fmt.Sprintf("%d", *entry.TariffCount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Name, orgNo, tariffs, entry.APIURL)
	}
	return w.Flush()
}
