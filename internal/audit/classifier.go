// Package audit derives a canonical fairness verdict from the free-text
// price rating produced by the extraction service.
package audit

import (
	"strings"

	"github.com/jmoreda/billy-audit/internal/extraction"
)

// Status is the canonical fairness verdict for a bill.
type Status string

const (
	// StatusAbusive marks a price well above market for its category.
	StatusAbusive Status = "ABUSIVE"
	// StatusFair marks a price in the normal market range.
	StatusFair Status = "FAIR"
	// StatusOptimized marks a price at or below the best market offers.
	StatusOptimized Status = "OPTIMIZED"
)

// Audited couples extracted bill facts with the derived verdict.
type Audited struct {
	extraction.BillFacts
	Status Status `json:"auditStatus"`
	Detail string `json:"auditDetail"`
}

// The upstream model has produced several incompatible label vocabularies
// for the same concept ("AVISO BILLY", "ABUSIVO", "AVISO", ...), so
// classification matches keywords rather than exact labels. Keep this table
// as the single place to absorb new label drift.
var (
	warningMarkers   = []string{"aviso", "abusiv", "warning", "alerta"}
	optimizedMarkers = []string{"top", "optimiz", "optimal"}
)

// Classify maps the rating label onto a Status and attaches a human-readable
// rationale. Pure and total: an absent or unrecognized rating is FAIR, never
// an error, so one odd label cannot stall the whole submission.
func Classify(facts extraction.BillFacts) Audited {
	status := classifyRating(facts.Rating)
	return Audited{
		BillFacts: facts,
		Status:    status,
		Detail:    detailFor(status, facts),
	}
}

func classifyRating(rating string) Status {
	r := strings.ToLower(rating)
	for _, marker := range warningMarkers {
		if strings.Contains(r, marker) {
			return StatusAbusive
		}
	}
	for _, marker := range optimizedMarkers {
		if strings.Contains(r, marker) {
			return StatusOptimized
		}
	}
	return StatusFair
}

func detailFor(status Status, facts extraction.BillFacts) string {
	if facts.Advice != "" {
		return facts.Advice
	}
	switch status {
	case StatusAbusive:
		return "This price looks well above market for " + facts.Category + ". Consider switching providers."
	case StatusOptimized:
		return "This price is at or below the best market offers for " + facts.Category + "."
	default:
		return "This price is within the normal market range for " + facts.Category + "."
	}
}
