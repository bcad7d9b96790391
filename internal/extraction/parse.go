package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateFormats are tried in order when normalizing extracted dates.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

// parseBillFacts parses the JSON response text from an extraction backend.
// Provider, amount and category are required; everything else is defaulted.
func parseBillFacts(text string) (*BillFacts, error) {
	text = strings.TrimSpace(text)

	// Models occasionally wrap the payload in markdown fences despite being
	// told not to.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Extract the outermost JSON object in case the model added prose.
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("%w: unterminated JSON object", ErrMalformedResponse)
	}
	text = text[startIdx : endIdx+1]

	// Amount is decoded through a pointer so an absent field is
	// distinguishable from a genuine zero. A missing amount must not slip
	// through as a 0.00 expense.
	var raw struct {
		BillFacts
		Amount *float64 `json:"amount"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	facts := raw.BillFacts
	facts.Provider = strings.TrimSpace(facts.Provider)
	facts.Category = strings.TrimSpace(facts.Category)

	if facts.Provider == "" {
		return nil, fmt.Errorf("%w: missing provider", ErrMalformedResponse)
	}
	if facts.Category == "" {
		return nil, fmt.Errorf("%w: missing category", ErrMalformedResponse)
	}
	if raw.Amount == nil {
		return nil, fmt.Errorf("%w: missing amount", ErrMalformedResponse)
	}
	if *raw.Amount < 0 {
		return nil, fmt.Errorf("%w: negative amount %v", ErrMalformedResponse, *raw.Amount)
	}
	facts.Amount = *raw.Amount

	facts.Date = normalizeDate(facts.Date, time.Now())
	facts.RenewalDate = strings.TrimSpace(facts.RenewalDate)
	if facts.RenewalDate != "" {
		if normalized, ok := tryFormats(facts.RenewalDate); ok {
			facts.RenewalDate = normalized
		}
	}
	facts.Rating = strings.TrimSpace(facts.Rating)
	facts.Advice = strings.TrimSpace(facts.Advice)
	facts.RecommendedAction = strings.TrimSpace(facts.RecommendedAction)

	return &facts, nil
}

// normalizeDate converts a date-like string to YYYY-MM-DD, falling back to
// the given default when the value is absent or unparseable.
func normalizeDate(value string, fallback time.Time) string {
	value = strings.TrimSpace(value)
	if value != "" {
		if normalized, ok := tryFormats(value); ok {
			return normalized
		}
	}
	return fallback.Format("2006-01-02")
}

func tryFormats(value string) (string, bool) {
	for _, format := range dateFormats {
		if d, err := time.Parse(format, value); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}
