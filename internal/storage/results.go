package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sourceful-energy/tariff-service/internal/metrics"
)

const (
	resultsPrefix = "results/"
	resultIDLen   = 8
)

// idAlphabet is lowercase letters and digits minus the easily confused
// characters l, 1, 0 and o.
const idAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// SavedResult is a persisted, shareable parse result with its tracking
// metadata.
type SavedResult struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	SourceURL string          `json:"sourceUrl,omitempty"`
	UserAgent string          `json:"userAgent,omitempty"`
	IPHash    string          `json:"ipHash,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// ResultSummary is the listing view of a saved result, without the tariff
// payload.
type ResultSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	TariffCount int       `json:"tariffCount"`
	IPHash      string    `json:"ipHash,omitempty"`
	Browser     string    `json:"browser"`
}

// SaveOptions carries optional tracking info for a saved result. The IP
// address is never stored as-is, only a truncated hash.
type SaveOptions struct {
	SourceURL string
	UserAgent string
	IPAddress string
}

// ResultStore persists shareable results on top of a Storage backend.
type ResultStore struct {
	storage Storage
	now     func() time.Time
}

// NewResultStore creates a result store.
func NewResultStore(storage Storage) *ResultStore {
	return &ResultStore{storage: storage, now: time.Now}
}

// Save persists tariff data under a fresh short ID and returns the ID.
func (r *ResultStore) Save(ctx context.Context, data json.RawMessage, opts SaveOptions) (string, error) {
	id, err := r.uniqueID(ctx)
	if err != nil {
		return "", err
	}

	result := SavedResult{
		ID:        id,
		CreatedAt: r.now(),
		SourceURL: opts.SourceURL,
		UserAgent: truncate(opts.UserAgent, 200),
		Data:      data,
	}
	if opts.IPAddress != "" {
		result.IPHash = HashIP(opts.IPAddress)
	}

	content, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	metadata := &Metadata{
		ContentType: "application/json",
		SourceURL:   opts.SourceURL,
		SavedAt:     result.CreatedAt,
	}
	if err := r.storage.Put(ctx, resultKey(id), content, metadata); err != nil {
		return "", err
	}

	metrics.ResultsSaved.Inc()
	return id, nil
}

// Load retrieves a saved result by ID. Returns nil without error when the
// ID does not exist or is malformed.
func (r *ResultStore) Load(ctx context.Context, id string) (*SavedResult, error) {
	safeID := sanitizeID(id)
	if safeID == "" || safeID != id {
		return nil, nil
	}

	exists, err := r.storage.Exists(ctx, resultKey(safeID))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	content, err := r.storage.Get(ctx, resultKey(safeID))
	if err != nil {
		return nil, err
	}

	var result SavedResult
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("corrupt stored result %s: %w", safeID, err)
	}
	return &result, nil
}

// Delete removes a saved result. Returns true when something was deleted.
func (r *ResultStore) Delete(ctx context.Context, id string) (bool, error) {
	safeID := sanitizeID(id)
	if safeID == "" || safeID != id {
		return false, nil
	}

	exists, err := r.storage.Exists(ctx, resultKey(safeID))
	if err != nil || !exists {
		return false, err
	}
	if err := r.storage.Delete(ctx, resultKey(safeID)); err != nil {
		return false, err
	}
	return true, nil
}

// ListRecent returns metadata for the most recently created results,
// newest first. Unreadable entries are skipped.
func (r *ResultStore) ListRecent(ctx context.Context, limit int) ([]ResultSummary, error) {
	keys, err := r.storage.List(ctx, resultsPrefix)
	if err != nil {
		return nil, err
	}

	summaries := make([]ResultSummary, 0, len(keys))
	for _, key := range keys {
		content, err := r.storage.Get(ctx, key)
		if err != nil {
			continue
		}
		var result SavedResult
		if err := json.Unmarshal(content, &result); err != nil {
			continue
		}

		summaries = append(summaries, ResultSummary{
			ID:          result.ID,
			CreatedAt:   result.CreatedAt,
			SourceURL:   result.SourceURL,
			TariffCount: countTariffs(result.Data),
			IPHash:      result.IPHash,
			Browser:     browserFromUserAgent(result.UserAgent),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Cleanup deletes results older than maxAge. A zero maxAge deletes
// everything. Returns the number of deleted results.
func (r *ResultStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	keys, err := r.storage.List(ctx, resultsPrefix)
	if err != nil {
		return 0, err
	}

	cutoff := time.Time{}
	if maxAge > 0 {
		cutoff = r.now().Add(-maxAge)
	}

	deleted := 0
	for _, key := range keys {
		if !cutoff.IsZero() {
			content, err := r.storage.Get(ctx, key)
			if err != nil {
				continue
			}
			var result SavedResult
			if err := json.Unmarshal(content, &result); err == nil && result.CreatedAt.After(cutoff) {
				continue
			}
		}
		if err := r.storage.Delete(ctx, key); err != nil {
			continue
		}
		deleted++
	}
	return deleted, nil
}

// HashIP returns a short, non-reversible identifier for an IP address:
// the first 8 hex chars of its SHA-256.
func HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:])[:8]
}

func (r *ResultStore) uniqueID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		id, err := generateID(resultIDLen)
		if err != nil {
			return "", err
		}
		exists, err := r.storage.Exists(ctx, resultKey(id))
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique result ID")
}

func generateID(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	id := make([]byte, length)
	for i, b := range buf {
		id[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(id), nil
}

func resultKey(id string) string {
	return resultsPrefix + id + ".json"
}

// sanitizeID keeps only alphanumeric characters, guarding against path
// traversal in user-supplied IDs.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countTariffs(data json.RawMessage) int {
	var doc struct {
		Tariffs []json.RawMessage `json:"tariffs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0
	}
	return len(doc.Tariffs)
}

func browserFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	default:
		return "Unknown"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
