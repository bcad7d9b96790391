// Package ingest orchestrates one bill submission at a time through
// encoding, extraction and classification, and exposes the result to the
// presentation layer as a small observable state machine.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoreda/billy-audit/internal/audit"
	"github.com/jmoreda/billy-audit/internal/document"
	"github.com/jmoreda/billy-audit/internal/expense"
	"github.com/jmoreda/billy-audit/internal/extraction"
)

// State is the UI-observable phase of the current submission.
type State string

const (
	StateIdle      State = "IDLE"
	StateReading   State = "READING"
	StateAnalyzing State = "ANALYZING"
	StateResult    State = "RESULT"
	StateError     State = "ERROR"
)

var (
	// ErrSubmissionInFlight means submit was called while a submission is
	// already being processed. No queuing: the caller must wait.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrNoResult means confirm or discard was called outside RESULT.
	ErrNoResult = errors.New("no pending result")

	// ErrNothingToRetry means retry was called outside ERROR.
	ErrNothingToRetry = errors.New("no failed submission to retry")

	// ErrUnknownAsset means the confirmation linkage names an asset that is
	// not in the ledger.
	ErrUnknownAsset = errors.New("linked asset not found")
)

// Encoder converts an uploaded document into a transmittable payload.
type Encoder interface {
	Encode(filename string, data []byte, declaredType string) (*document.Payload, error)
}

// Machine runs the document-to-structured-audit pipeline for a single
// session. At most one submission is in flight at a time; a RESULT or ERROR
// sticks until the user acts on it.
type Machine struct {
	encoder     Encoder
	extractor   extraction.Extractor
	merger      *expense.Merger
	ledger      expense.Ledger
	storage     expense.Storage
	credentials extraction.CredentialProvider

	mu         sync.Mutex
	state      State
	result     *audit.Audited
	err        error
	storedFile string
	storedType string
}

// NewMachine creates a Machine in the IDLE state.
func NewMachine(encoder Encoder, extractor extraction.Extractor, merger *expense.Merger, ledger expense.Ledger, storage expense.Storage, credentials extraction.CredentialProvider) *Machine {
	return &Machine{
		encoder:     encoder,
		extractor:   extractor,
		merger:      merger,
		ledger:      ledger,
		storage:     storage,
		credentials: credentials,
		state:       StateIdle,
	}
}

// Submit runs one document through the pipeline. It blocks until the
// submission reaches RESULT or ERROR; callers needing a responsive surface
// run it from their own goroutine and poll Snapshot. Cancelling the context
// abandons the in-flight request and returns the machine to IDLE.
func (m *Machine) Submit(ctx context.Context, filename string, data []byte, declaredType string) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrSubmissionInFlight
	}
	m.state = StateReading
	m.result = nil
	m.err = nil
	m.storedFile = ""
	m.storedType = ""
	m.mu.Unlock()

	payload, err := m.encoder.Encode(filename, data, declaredType)
	if err != nil {
		return m.fail(fmt.Errorf("encoding document: %w", err))
	}

	// Keep the source document next to the ledger; it is removed again
	// unless the user confirms.
	savedPath, err := m.storage.Save(filename, data)
	if err != nil {
		return m.fail(fmt.Errorf("%w: saving document: %v", document.ErrFileRead, err))
	}

	m.mu.Lock()
	m.state = StateAnalyzing
	m.mu.Unlock()

	facts, err := m.extractor.Extract(ctx, payload)
	if ctx.Err() != nil {
		m.deleteStored(savedPath)
		m.reset()
		return ctx.Err()
	}
	if err != nil {
		m.deleteStored(savedPath)
		return m.fail(err)
	}

	audited := audit.Classify(*facts)

	m.mu.Lock()
	m.state = StateResult
	m.result = &audited
	m.storedFile = savedPath
	// The stored bytes are the original upload, so sniff them rather than
	// trust the declared type. HEIC shots routinely arrive as image/jpeg.
	m.storedType = document.DetectMediaType(data, declaredType)
	m.mu.Unlock()

	slog.Info("Bill analyzed",
		"provider", audited.Provider,
		"category", audited.Category,
		"audit_status", audited.Status,
	)
	return nil
}

// Confirm hands the pending result to the ledger merger and appends the new
// expense, then returns the machine to IDLE. The linkage asset, when given,
// must exist.
func (m *Machine) Confirm(linkage expense.Linkage) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateResult {
		return nil, ErrNoResult
	}

	if linkage.AssetID != "" {
		if _, err := m.ledger.GetAsset(linkage.AssetID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, linkage.AssetID)
		}
	}

	exp := m.merger.Merge(*m.result, linkage)
	exp.Filename = m.storedFile
	exp.ContentType = m.storedType

	if err := m.ledger.AppendExpense(exp); err != nil {
		// Stay in RESULT so the user can confirm again.
		return nil, fmt.Errorf("appending expense: %w", err)
	}

	m.resetLocked()
	return exp, nil
}

// Discard drops the pending result and its stored source document.
func (m *Machine) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateResult {
		return ErrNoResult
	}

	if m.storedFile != "" {
		if err := m.storage.Delete(m.storedFile); err != nil {
			slog.Warn("Failed to delete discarded document", "filename", m.storedFile, "error", err)
		}
	}

	m.resetLocked()
	return nil
}

// Retry acknowledges a failed submission and returns to IDLE so the user can
// submit again, with the same file or a new one.
func (m *Machine) Retry() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateError {
		return ErrNothingToRetry
	}

	m.resetLocked()
	return nil
}

// ResolveCredential clears a credential-kind error once a credential is
// actually available, unblocking a retry. For any other error kind Retry is
// the only way out.
func (m *Machine) ResolveCredential() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateError {
		return ErrNothingToRetry
	}
	if !errors.Is(m.err, extraction.ErrMissingCredential) && !errors.Is(m.err, extraction.ErrInvalidCredential) {
		return ErrNothingToRetry
	}
	if m.credentials() == "" {
		return extraction.ErrMissingCredential
	}

	m.resetLocked()
	return nil
}

// Snapshot is the outward-facing view of the machine.
type Snapshot struct {
	State        State          `json:"state"`
	Result       *audit.Audited `json:"result,omitempty"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Snapshot returns the current state and payload.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{State: m.state}
	if m.state == StateResult {
		snap.Result = m.result
	}
	if m.state == StateError && m.err != nil {
		snap.ErrorKind = ErrorKind(m.err)
		snap.ErrorMessage = m.err.Error()
	}
	return snap
}

// ErrorKind names the taxonomy kind of a pipeline error for the
// presentation layer.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, document.ErrFileRead):
		return "FILE_READ"
	case errors.Is(err, extraction.ErrMissingCredential):
		return "MISSING_CREDENTIAL"
	case errors.Is(err, extraction.ErrInvalidCredential):
		return "INVALID_CREDENTIAL"
	case errors.Is(err, extraction.ErrQuotaExhausted):
		return "QUOTA_EXHAUSTED"
	case errors.Is(err, extraction.ErrEmptyResponse):
		return "EMPTY_RESPONSE"
	case errors.Is(err, extraction.ErrMalformedResponse):
		return "MALFORMED_RESPONSE"
	default:
		return "INTERNAL"
	}
}

func (m *Machine) fail(err error) error {
	m.mu.Lock()
	m.state = StateError
	m.err = err
	m.mu.Unlock()

	slog.Error("Submission failed", "kind", ErrorKind(err), "error", err)
	return err
}

func (m *Machine) deleteStored(path string) {
	if path == "" {
		return
	}
	if err := m.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete stored document", "filename", path, "error", err)
	}
}

func (m *Machine) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	m.state = StateIdle
	m.result = nil
	m.err = nil
	m.storedFile = ""
	m.storedType = ""
}
