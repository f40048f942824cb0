package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sourceful-energy/tariff-service/internal/extract"
	"github.com/sourceful-energy/tariff-service/internal/guard"
	"github.com/sourceful-energy/tariff-service/internal/metrics"
	"github.com/sourceful-energy/tariff-service/internal/normalize"
	"github.com/sourceful-energy/tariff-service/internal/rise"
)

// GuardError is returned when a plausibility gate rejects the input or the
// result. Reason is end-user facing Swedish.
type GuardError struct {
	Reason string
}

func (e *GuardError) Error() string { return e.Reason }

// Explanation is a customer-facing description of a single tariff.
type Explanation struct {
	TariffName     string   `json:"tariffName"`
	Summary        string   `json:"summary"`
	FixedCosts     string   `json:"fixedCosts"`
	EnergyCosts    string   `json:"energyCosts"`
	PowerCosts     *string  `json:"powerCosts"`
	TimeVariations *string  `json:"timeVariations"`
	Tips           []string `json:"tips"`
}

// Parser runs the full document-to-RISE pipeline: plausibility gate,
// generation, JSON recovery, strict normalization, result gate.
type Parser struct {
	gen        TextGenerator
	normalizer *normalize.Normalizer
	logger     zerolog.Logger
	skipGate   bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithNormalizer overrides the default normalizer.
func WithNormalizer(n *normalize.Normalizer) ParserOption {
	return func(p *Parser) { p.normalizer = n }
}

// WithLogger sets the parser logger.
func WithLogger(logger zerolog.Logger) ParserOption {
	return func(p *Parser) { p.logger = logger }
}

// WithoutInputGate disables the free-text plausibility check. Intended for
// interactive use where the operator already knows the input is tariff data.
func WithoutInputGate() ParserOption {
	return func(p *Parser) { p.skipGate = true }
}

// NewParser creates a Parser on top of a text generator.
func NewParser(gen TextGenerator, opts ...ParserOption) *Parser {
	p := &Parser{
		gen:        gen,
		normalizer: normalize.New(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseText converts a free-text tariff description into a normalized
// response. Content that does not look like grid tariff data is rejected
// before any generation call is made.
func (p *Parser) ParseText(ctx context.Context, text, companyName string) (*rise.TariffsResponse, error) {
	start := time.Now()
	defer func() {
		metrics.ParseDuration.Observe(time.Since(start).Seconds())
	}()

	if !p.skipGate {
		if gate := guard.CheckFreeText(text); !gate.OK {
			metrics.GuardRejections.WithLabelValues("free_text").Inc()
			metrics.ParseFailures.WithLabelValues("guard").Inc()
			return nil, &GuardError{Reason: gate.Reason}
		}
	}

	content, err := p.gen.Generate(ctx, GenerateRequest{
		System: systemPrompt,
		Prompt: buildParsePrompt(text, companyName),
	})
	if err != nil {
		metrics.ParseFailures.WithLabelValues("generate").Inc()
		return nil, err
	}

	return p.interpret(content)
}

// Improve re-generates existing tariff data according to a natural language
// instruction and normalizes the result from scratch.
func (p *Parser) Improve(ctx context.Context, tariffs *rise.TariffsResponse, instruction string) (*rise.TariffsResponse, error) {
	start := time.Now()
	defer func() {
		metrics.ParseDuration.Observe(time.Since(start).Seconds())
	}()

	tariffsJSON, err := json.MarshalIndent(tariffs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tariffs: %w", err)
	}

	content, err := p.gen.Generate(ctx, GenerateRequest{
		System: systemPrompt,
		Prompt: buildImprovePrompt(string(tariffsJSON), instruction),
	})
	if err != nil {
		metrics.ParseFailures.WithLabelValues("generate").Inc()
		return nil, err
	}

	return p.interpret(content)
}

// ExplainTariff generates a customer-facing explanation of a tariff. When
// the model answers in prose instead of the requested JSON, the whole
// answer becomes the summary rather than failing.
func (p *Parser) ExplainTariff(ctx context.Context, tariff *rise.Tariff) (*Explanation, error) {
	tariffJSON, err := json.MarshalIndent(tariff, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tariff: %w", err)
	}

	content, err := p.gen.Generate(ctx, GenerateRequest{
		Prompt:    buildExplainPrompt(string(tariffJSON)),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, err
	}

	doc, err := extract.Extract(content)
	if err != nil {
		p.logger.Warn().Err(err).Str("tariff", tariff.Name).Msg("Explanation was not JSON, using raw text")
		return &Explanation{TariffName: tariff.Name, Summary: content, Tips: []string{}}, nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode explanation: %w", err)
	}
	var explanation Explanation
	if err := json.Unmarshal(raw, &explanation); err != nil {
		return &Explanation{TariffName: tariff.Name, Summary: content, Tips: []string{}}, nil
	}
	if explanation.TariffName == "" {
		explanation.TariffName = tariff.Name
	}
	if explanation.Tips == nil {
		explanation.Tips = []string{}
	}
	return &explanation, nil
}

// interpret recovers JSON from generated content, normalizes it strictly
// and applies the result gate.
func (p *Parser) interpret(content string) (*rise.TariffsResponse, error) {
	doc, err := extract.Extract(content)
	if err != nil {
		metrics.ParseFailures.WithLabelValues("extract").Inc()
		p.logger.Error().Err(err).Int("contentLength", len(content)).Msg("Failed to extract JSON from generated content")
		return nil, err
	}

	response, err := p.normalizer.Normalize(doc)
	if err != nil {
		metrics.ParseFailures.WithLabelValues("normalize").Inc()
		p.logger.Error().Err(err).Msg("Generated document failed normalization")
		return nil, err
	}

	if gate := guard.Check(response); !gate.OK {
		metrics.GuardRejections.WithLabelValues("result").Inc()
		metrics.ParseFailures.WithLabelValues("guard").Inc()
		return nil, &GuardError{Reason: gate.Reason}
	}

	p.logger.Info().
		Int("tariffs", len(response.Tariffs)).
		Int("warnings", len(response.Warnings)).
		Msg("Parsed tariff document")
	return response, nil
}
