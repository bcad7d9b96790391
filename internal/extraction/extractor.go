package extraction

import (
	"context"

	"github.com/jmoreda/billy-audit/internal/document"
)

// BillFacts contains the structured record extracted from one bill or
// contract. Provider, amount and category are always present; every other
// field may come back empty and is defaulted downstream, never rejected.
type BillFacts struct {
	Provider          string  `json:"provider"`
	Amount            float64 `json:"amount"`
	Date              string  `json:"date"`        // ISO 8601
	RenewalDate       string  `json:"renewalDate"` // ISO 8601, may be estimated
	Category          string  `json:"category"`
	Rating            string  `json:"priceRating"` // free-text price verdict label
	Advice            string  `json:"billyAdvice"`
	RecommendedAction string  `json:"recommendedAction"`
}

// Extractor defines the interface for bill extraction backends.
type Extractor interface {
	// Extract analyzes an encoded bill/contract and extracts its facts.
	Extract(ctx context.Context, payload *document.Payload) (*BillFacts, error)
	// Close releases backend resources.
	Close() error
}

// CredentialProvider returns the API credential to use for the next request.
// It is consulted on every extraction attempt so a credential configured
// between retries takes effect without restarting anything.
type CredentialProvider func() string

// billScanPrompt is the shared instruction used by all extraction backends.
const billScanPrompt = `You are Billy, an expert bill and contract auditor. Read all text in the attached document and extract:

1. "provider": the company issuing the bill (e.g. "Endesa", "Movistar", "Mapfre").
2. "amount": the total amount due, as a number with decimals.
3. "date": the invoice date in YYYY-MM-DD format.
4. "category": one of Luz, Agua, Gas, Internet, Movil, Seguros, Coche, Moto, Suscripcion, Otros.
5. "renewalDate": the renewal or expiry date in YYYY-MM-DD format. Estimate it if the document does not state one.
6. "priceRating": judge whether the price is fair for the market. Answer "AVISO BILLY" if it is abusive, "PRECIO TOP" if it is excellent, "PRECIO NORMAL" otherwise.
7. "billyAdvice": one bold, money-saving piece of advice about this bill.
8. "recommendedAction": the single next step the user should take.

Return ONLY valid JSON with exactly those fields. Do not wrap the response in markdown code blocks. If a field cannot be determined, use null.`
