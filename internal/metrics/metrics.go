// Package metrics holds the Prometheus instrumentation for the tariff
// service. All collectors are registered on the default registry via
// promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ParseRequests counts AI parse attempts by input source.
	ParseRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_parse_requests_total",
		Help: "Total number of AI parse requests by source",
	}, []string{"source"}) // source: text, url, combined, improve

	// ParseFailures counts parse attempts that failed, by pipeline stage.
	ParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_parse_failures_total",
		Help: "Total number of failed parse requests by stage",
	}, []string{"stage"}) // stage: guard, generate, extract, normalize

	// ParseDuration tracks end-to-end parse latency.
	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tariff_parse_duration_seconds",
		Help:    "End-to-end duration of AI parse requests",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	})

	// GuardRejections counts plausibility gate rejections by gate.
	GuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_guard_rejections_total",
		Help: "Total number of guard rejections by gate",
	}, []string{"gate"}) // gate: free_text, result

	// ExtractionRepairs counts JSON extractions that needed brace repair.
	ExtractionRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_extraction_repairs_total",
		Help: "Total number of AI responses recovered through JSON repair",
	})

	// CatalogueEntriesDropped counts catalogue entries dropped during
	// normalization.
	CatalogueEntriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_catalogue_entries_dropped_total",
		Help: "Total number of catalogue entries dropped as unusable",
	})

	// ScrapeRequests counts outbound scrape fetches by kind.
	ScrapeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_scrape_requests_total",
		Help: "Total number of outbound scrape requests by kind",
	}, []string{"kind"}) // kind: html, json, rise_api

	// ScrapeBlocked counts scrape requests rejected by the SSRF guard.
	ScrapeBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_scrape_blocked_total",
		Help: "Total number of scrape requests blocked as unsafe",
	})

	// ResultsSaved counts persisted shareable results.
	ResultsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_results_saved_total",
		Help: "Total number of saved shareable results",
	})

	// ExportsGenerated counts generated export artifacts by format.
	ExportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_exports_generated_total",
		Help: "Total number of generated exports by format",
	}, []string{"format"}) // format: excel, openapi, package
)
