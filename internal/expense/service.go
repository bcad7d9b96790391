package expense

import (
	"fmt"
	"log/slog"
	"strings"
)

// Service handles ledger queries and maintenance for the presentation layer.
// Expense creation itself goes through the ingestion pipeline and the Merger,
// never through here.
type Service struct {
	ledger      Ledger
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with uuid IDs and the wall clock.
func NewService(ledger Ledger, storage Storage) *Service {
	return &Service{
		ledger:      ledger,
		storage:     storage,
		idGenerator: uuidGenerator{},
		timeSource:  clockTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing.
func NewServiceWithDeps(ledger Ledger, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		ledger:      ledger,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ListExpenses returns all expenses in the ledger.
func (s *Service) ListExpenses() ([]*Expense, error) {
	expenses, err := s.ledger.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense retrieves an expense by ID.
func (s *Service) GetExpense(id string) (*Expense, error) {
	expense, err := s.ledger.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	return expense, nil
}

// DeleteExpense removes an expense and its stored source document.
func (s *Service) DeleteExpense(id string) error {
	expense, err := s.ledger.GetExpense(id)
	if err != nil {
		return fmt.Errorf("getting expense for deletion: %w", err)
	}

	if expense.Filename != "" {
		if err := s.storage.Delete(expense.Filename); err != nil {
			// The ledger record still goes; an orphaned file is the lesser evil.
			slog.Warn("Failed to delete source document", "filename", expense.Filename, "error", err)
		}
	}

	if err := s.ledger.DeleteExpense(id); err != nil {
		return fmt.Errorf("deleting expense from ledger: %w", err)
	}
	return nil
}

// GetExpenseFile retrieves the stored source document for an expense.
func (s *Service) GetExpenseFile(id string) ([]byte, string, error) {
	expense, err := s.ledger.GetExpense(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense: %w", err)
	}
	if expense.Filename == "" {
		return nil, "", fmt.Errorf("expense %s has no stored document", id)
	}

	data, err := s.storage.Get(expense.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense file: %w", err)
	}

	return data, expense.ContentType, nil
}

// CreateAsset registers a new asset to link expenses against.
func (s *Service) CreateAsset(name, assetType, detail, provider string, limit int) (*Asset, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("asset name is required")
	}
	if strings.TrimSpace(assetType) == "" {
		return nil, fmt.Errorf("asset type is required")
	}

	now := s.timeSource.Now()
	asset := &Asset{
		ID:        s.idGenerator.Generate(),
		Name:      strings.TrimSpace(name),
		Type:      strings.TrimSpace(assetType),
		Detail:    strings.TrimSpace(detail),
		Provider:  strings.TrimSpace(provider),
		Limit:     limit,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.ledger.SaveAsset(asset); err != nil {
		return nil, fmt.Errorf("saving asset: %w", err)
	}
	return asset, nil
}

// GetAsset retrieves an asset by ID.
func (s *Service) GetAsset(id string) (*Asset, error) {
	asset, err := s.ledger.GetAsset(id)
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return asset, nil
}

// ListAssets returns all registered assets.
func (s *Service) ListAssets() ([]*Asset, error) {
	assets, err := s.ledger.ListAssets()
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return assets, nil
}

// DeleteAsset removes an asset. Expenses already linked to it keep their
// asset ID; the linkage simply dangles, matching how the ledger treats
// deleted history elsewhere.
func (s *Service) DeleteAsset(id string) error {
	if _, err := s.ledger.GetAsset(id); err != nil {
		return fmt.Errorf("getting asset for deletion: %w", err)
	}
	if err := s.ledger.DeleteAsset(id); err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}
