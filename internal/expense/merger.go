package expense

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreda/billy-audit/internal/audit"
)

// IDGenerator generates unique IDs for ledger records.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type clockTimeSource struct{}

func (clockTimeSource) Now() time.Time {
	return time.Now()
}

// Linkage carries the user's chosen asset and optional category override for
// a confirmed extraction result.
type Linkage struct {
	AssetID          string `json:"asset_id"`
	CategoryOverride string `json:"category,omitempty"`
}

// Merger maps a finalized, audited extraction result into an Expense record.
// Pure construction: no network, no validation, no persistence.
type Merger struct {
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewMerger creates a Merger with uuid IDs and the wall clock.
func NewMerger() *Merger {
	return &Merger{
		idGenerator: uuidGenerator{},
		timeSource:  clockTimeSource{},
	}
}

// NewMergerWithDeps creates a Merger with custom dependencies for testing.
func NewMergerWithDeps(idGen IDGenerator, timeSrc TimeSource) *Merger {
	return &Merger{
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Merge builds a fresh Expense from an audited result. Missing date defaults
// to now, a missing description is synthesized from the advice or renewal
// date, and the amount is converted from euros to integer cents. ID
// generation is the only non-deterministic part given fixed dependencies.
func (m *Merger) Merge(result audit.Audited, linkage Linkage) *Expense {
	now := m.timeSource.Now()

	date := now
	if result.Date != "" {
		if parsed, err := time.Parse("2006-01-02", result.Date); err == nil {
			date = parsed
		}
	}

	category := result.Category
	if linkage.CategoryOverride != "" {
		category = linkage.CategoryOverride
	}

	return &Expense{
		ID:          m.idGenerator.Generate(),
		AssetID:     linkage.AssetID,
		Category:    category,
		Amount:      int(math.Round(result.Amount * 100)),
		Date:        date,
		Provider:    result.Provider,
		Description: describeExpense(result),
		IsRecurring: true, // bills and contracts recur until cancelled
		RenewalDate: result.RenewalDate,
		AuditStatus: result.Status,
		AuditDetail: result.Detail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func describeExpense(result audit.Audited) string {
	if result.Advice != "" {
		return result.Advice
	}
	if result.RenewalDate != "" {
		return result.Provider + " bill, renews on " + result.RenewalDate
	}
	return result.Provider + " bill"
}
