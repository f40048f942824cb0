// Package scrape fetches tariff content from the web: HTML pages that get
// reduced to plain text for AI analysis, and JSON from RISE-compatible
// APIs. Every outbound URL passes an SSRF guard first.
package scrape

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	httpclient "github.com/sourceful-energy/tariff-service/internal/http"
	"github.com/sourceful-energy/tariff-service/internal/http/ratelimit"
	"github.com/sourceful-energy/tariff-service/internal/metrics"
)

// UnsafeURLError is returned when a URL fails the SSRF guard.
type UnsafeURLError struct {
	URL    string
	Reason string
}

func (e *UnsafeURLError) Error() string {
	return fmt.Sprintf("unsafe URL %s: %s", e.URL, e.Reason)
}

// Hostname fragments that indicate internal infrastructure.
var internalPatterns = []string{
	"internal", "intranet", "corp", "private", "admin", "metadata", "169.254",
}

// CheckURL validates that a URL is safe to request: http(s) scheme, a real
// hostname, and no path to loopback, private or link-local addresses,
// including via DNS. Resolution failures pass; the fetch itself will fail.
func CheckURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &UnsafeURLError{URL: rawURL, Reason: fmt.Sprintf("invalid URL: %v", err)}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &UnsafeURLError{URL: rawURL, Reason: fmt.Sprintf("invalid URL scheme %q", parsed.Scheme)}
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return &UnsafeURLError{URL: rawURL, Reason: "URL must have a hostname"}
	}

	switch hostname {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return &UnsafeURLError{URL: rawURL, Reason: "cannot request localhost"}
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if isInternalIP(ip) {
			return &UnsafeURLError{URL: rawURL, Reason: "cannot request internal IP addresses"}
		}
	} else if addrs, err := net.LookupIP(hostname); err == nil {
		for _, addr := range addrs {
			if isInternalIP(addr) {
				return &UnsafeURLError{URL: rawURL, Reason: "hostname resolves to internal IP address"}
			}
		}
	}

	for _, pattern := range internalPatterns {
		if strings.Contains(hostname, pattern) {
			return &UnsafeURLError{URL: rawURL, Reason: "cannot request internal hostnames"}
		}
	}

	return nil
}

func isInternalIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// Scraper fetches and reduces web content.
type Scraper struct {
	client *httpclient.Client
}

// New creates a scraper with the given outbound rate limit config.
func New(config ratelimit.Config) *Scraper {
	return &Scraper{client: httpclient.NewClient(config)}
}

// NewDefault creates a scraper with default rate limiting.
func NewDefault() *Scraper {
	return New(ratelimit.DefaultConfig())
}

// ScrapeText fetches a web page and reduces it to readable text for AI
// analysis.
func (s *Scraper) ScrapeText(ctx context.Context, rawURL string) (string, error) {
	if err := CheckURL(rawURL); err != nil {
		metrics.ScrapeBlocked.Inc()
		return "", err
	}
	metrics.ScrapeRequests.WithLabelValues("html").Inc()

	resp, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	return ExtractText(doc), nil
}

// FetchJSON fetches arbitrary JSON from a URL with SSRF protection.
// Numbers are decoded as json.Number.
func (s *Scraper) FetchJSON(ctx context.Context, rawURL string) (any, error) {
	if err := CheckURL(rawURL); err != nil {
		metrics.ScrapeBlocked.Inc()
		return nil, err
	}
	metrics.ScrapeRequests.WithLabelValues("json").Inc()

	var data any
	if err := s.client.GetJSON(ctx, rawURL, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// FetchRiseAPI fetches the tariff listing of a RISE-compatible API given
// its base URL.
func (s *Scraper) FetchRiseAPI(ctx context.Context, apiURL string) (map[string]any, error) {
	if err := CheckURL(apiURL); err != nil {
		metrics.ScrapeBlocked.Inc()
		return nil, err
	}
	metrics.ScrapeRequests.WithLabelValues("rise_api").Inc()

	tariffsURL := strings.TrimRight(apiURL, "/") + "/tariffs"
	var data map[string]any
	if err := s.client.GetJSON(ctx, tariffsURL, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Elements stripped before text extraction: non-content and navigation.
var strippedSelectors = "script, style, nav, footer, header, noscript"

// Selectors probed for the main content region, most specific first.
var contentSelectors = []string{
	"main", "article", "div.content", "div.main-content", "div.article",
}

// ExtractText reduces a parsed HTML document to newline separated text.
// Navigation chrome is dropped and a main content region is preferred over
// the whole body when one exists.
func ExtractText(doc *goquery.Document) string {
	doc.Find(strippedSelectors).Remove()

	root := doc.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			root = sel.First()
			break
		}
	}

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}
