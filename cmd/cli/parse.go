package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sourceful-energy/tariff-service/internal/ai"
	"github.com/sourceful-energy/tariff-service/internal/normalize"
)

var (
	parseCompany   string
	parseSkipGuard bool
	parseYear      int
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a tariff description into RISE gridtariff JSON",
	Long: `Parse a free-text tariff description into the structured RISE gridtariff
format using the configured AI model. Reads from the given file, or from stdin
when no file is given. The normalized JSON document is written to stdout.

Requires ANTHROPIC_API_KEY to be set.`,
	Example: `  tariff-service parse ./ellevio-priser.txt --company "Ellevio AB"
  pbpaste | tariff-service parse --company "Vattenfall Eldistribution AB"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseCompany, "company", "", "Grid company name hint for the AI model")
	parseCmd.Flags().BoolVar(&parseSkipGuard, "skip-guard", false, "Skip the tariff-keyword plausibility check on the input")
	parseCmd.Flags().IntVar(&parseYear, "year", 0, "Calendar year for holiday patterns (default: current year)")
}

func runParse(cmd *cobra.Command, args []string) error {
	var (
		text []byte
		err  error
	)
	if len(args) == 1 {
		logger.Info().Str("file", args[0]).Msg("Reading file")
		text, err = os.ReadFile(args[0])
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if len(text) == 0 {
		return fmt.Errorf("input is empty")
	}

	parser, err := buildParser()
	if err != nil {
		return err
	}

	logger.Info().Int("bytes", len(text)).Msg("Parsing tariff description")
	result, err := parser.ParseText(context.Background(), string(text), parseCompany)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	logger.Info().Int("tariffs", len(result.Tariffs)).Msg("Parse complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func buildParser() (*ai.Parser, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" && cfg != nil {
		apiKey = cfg.AI.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	var clientOpts []ai.AnthropicOption
	if cfg != nil && cfg.AI.Model != "" {
		clientOpts = append(clientOpts, ai.WithModel(cfg.AI.Model))
	}
	client, err := ai.NewAnthropicClient(apiKey, clientOpts...)
	if err != nil {
		return nil, err
	}

	opts := []ai.ParserOption{ai.WithLogger(*logger)}
	if parseSkipGuard {
		opts = append(opts, ai.WithoutInputGate())
	}
	if parseYear > 0 {
		opts = append(opts, ai.WithNormalizer(normalize.New(normalize.WithCalendarYear(parseYear))))
	}
	return ai.NewParser(client, opts...), nil
}
