package verification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Classifier compares a collector's photo against the originally reported
// waste type and amount, returning the model's raw text response.
type Classifier interface {
	VerifyCollection(ctx context.Context, image []byte, wasteType, amount string) (string, error)
}

// Result is the parsed verification outcome from the classifier.
type Result struct {
	WasteTypeMatch bool    `json:"wasteTypeMatch"`
	QuantityMatch  bool    `json:"quantityMatch"`
	Confidence     float64 `json:"confidence"`
}

// Matched reports whether the verification passes after overrides.
func (r Result) Matched() bool {
	return r.WasteTypeMatch && r.QuantityMatch
}

// extractJSONFromMarkdown extracts JSON from markdown code blocks.
func extractJSONFromMarkdown(response string) string {
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseResult parses the classifier response and validates its fields.
// Malformed content is a local parse failure, not a classifier error.
func ParseResult(response string) (*Result, error) {
	cleaned := strings.TrimSpace(response)
	jsonContent := extractJSONFromMarkdown(cleaned)

	var raw struct {
		WasteTypeMatch *bool    `json:"wasteTypeMatch"`
		QuantityMatch  *bool    `json:"quantityMatch"`
		Confidence     *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}
	if raw.WasteTypeMatch == nil {
		return nil, errors.New("wasteTypeMatch is required")
	}
	if raw.QuantityMatch == nil {
		return nil, errors.New("quantityMatch is required")
	}
	if raw.Confidence == nil {
		return nil, errors.New("confidence is required")
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return nil, errors.New("confidence must be between 0 and 1")
	}

	return &Result{
		WasteTypeMatch: *raw.WasteTypeMatch,
		QuantityMatch:  *raw.QuantityMatch,
		Confidence:     *raw.Confidence,
	}, nil
}

// ApplyOverrides adjusts the raw match flags by confidence band:
// at confidence >= 0.9 a double mismatch becomes a double match, in
// (0.8, 0.9) any single match promotes the other flag, and below 0.8 a
// waste-type match alone promotes both. Preserved from the original
// product behavior; do not tighten without a product decision.
func ApplyOverrides(r Result) Result {
	if r.Confidence > 0.8 {
		if r.Confidence >= 0.9 {
			if !r.WasteTypeMatch && !r.QuantityMatch {
				r.WasteTypeMatch = true
				r.QuantityMatch = true
			}
		} else if r.WasteTypeMatch || r.QuantityMatch {
			r.WasteTypeMatch = true
			r.QuantityMatch = true
		}
	}

	if r.Confidence < 0.8 && r.WasteTypeMatch {
		r.WasteTypeMatch = true
		r.QuantityMatch = true
	}

	return r
}
