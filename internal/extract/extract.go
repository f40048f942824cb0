// Package extract recovers a JSON document from free-form model output.
//
// Generated text routinely wraps the JSON in prose or markdown fences, and
// long outputs get truncated mid-object. Extract first tries the cheap path
// (slice between the outermost braces), then falls back to a brace-balance
// scan that can both trim trailing garbage and close a truncated document.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sourceful-energy/tariff-service/internal/metrics"
)

// ErrNoJSON is returned when the text contains no object start at all.
var ErrNoJSON = errors.New("no JSON object found in text")

// ExtractionError is returned when no parseable JSON could be recovered
// from the text even after repair.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not interpret generated content: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract locates a JSON object in raw text and parses it into a generic
// value. Numbers are decoded as json.Number so decimal values survive
// without floating point rounding.
func Extract(raw string) (map[string]any, error) {
	text := stripFences(raw)

	start := strings.Index(text, "{")
	if start < 0 {
		return nil, ErrNoJSON
	}

	// Common case: well-formed output, outermost braces delimit the document.
	if end := strings.LastIndex(text, "}"); end > start {
		if doc, err := parseObject(text[start : end+1]); err == nil {
			return doc, nil
		}
	}

	repaired, err := repair(text[start:])
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	doc, err := parseObject(repaired)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	metrics.ExtractionRepairs.Inc()
	return doc, nil
}

// stripFences removes a surrounding markdown code fence (``` or ```json),
// a wrapper most generation models add around JSON answers.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		return ""
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// repair scans text starting at a '{' and returns the smallest prefix that
// forms a balanced JSON document. String contents are skipped (honoring
// backslash escapes) so literal braces inside values never affect the
// balance. If the text ends before balance is reached, the missing closers
// are appended in innermost-first order.
func repair(text string) (string, error) {
	var (
		inString bool
		escaped  bool
		braces   int
		brackets int
		stack    []byte
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			braces++
			stack = append(stack, '}')
		case '}':
			braces--
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case '[':
			brackets++
			stack = append(stack, ']')
		case ']':
			brackets--
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}

		if braces == 0 && brackets == 0 {
			return text[:i+1], nil
		}
	}

	if braces < 0 || brackets < 0 {
		return "", fmt.Errorf("unbalanced JSON: %d braces, %d brackets", braces, brackets)
	}

	// Truncated output: close whatever is still open, innermost first. An
	// unterminated string has to be closed before any brackets.
	var b strings.Builder
	b.WriteString(text)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String(), nil
}

func parseObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
