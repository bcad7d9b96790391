package expense

import (
	"time"

	"github.com/jmoreda/billy-audit/internal/audit"
)

// Expense is a confirmed, audited bill appended to the user's ledger. It is
// never mutated by the pipeline after creation.
type Expense struct {
	ID          string       `json:"id"`
	AssetID     string       `json:"asset_id,omitempty"`
	Category    string       `json:"category"`
	Amount      int          `json:"amount"` // amount in cents
	Date        time.Time    `json:"date"`
	Provider    string       `json:"provider"`
	Description string       `json:"description"`
	IsRecurring bool         `json:"is_recurring"`
	RenewalDate string       `json:"renewal_date,omitempty"` // ISO 8601
	AuditStatus audit.Status `json:"audit_status"`
	AuditDetail string       `json:"audit_detail"`
	Filename    string       `json:"filename,omitempty"` // stored source document
	ContentType string       `json:"content_type,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Asset is something bills get linked to: a home, a vehicle, an insurance
// policy, a card.
type Asset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Detail    string    `json:"detail,omitempty"` // address, model or account number
	Provider  string    `json:"provider,omitempty"`
	Limit     int       `json:"limit,omitempty"` // credit limit in cents, cards only
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Asset type vocabulary.
const (
	AssetTypeHome       = "Vivienda"
	AssetTypeCommercial = "Local Comercial"
	AssetTypeStorage    = "Trastero/Garaje"
	AssetTypeCar        = "Coche"
	AssetTypeMotorbike  = "Moto"
	AssetTypeCreditCard = "Tarjeta de Credito"
	AssetTypeLoan       = "Prestamo/Hipoteca"
	AssetTypeInsurance  = "Seguro"
)
