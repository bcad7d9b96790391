package expense

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	expenseBucketName = "expenses"
	assetBucketName   = "assets"
)

// Ledger defines the interface for ledger persistence. Expenses are
// append-only: they are created on confirmation and never updated.
type Ledger interface {
	// AppendExpense adds a confirmed expense to the ledger.
	AppendExpense(expense *Expense) error

	// GetExpense retrieves an expense by ID.
	GetExpense(id string) (*Expense, error)

	// ListExpenses returns all expenses.
	ListExpenses() ([]*Expense, error)

	// DeleteExpense removes an expense from the ledger.
	DeleteExpense(id string) error

	// SaveAsset creates or updates an asset.
	SaveAsset(asset *Asset) error

	// GetAsset retrieves an asset by ID.
	GetAsset(id string) (*Asset, error)

	// ListAssets returns all assets.
	ListAssets() ([]*Asset, error)

	// DeleteAsset removes an asset.
	DeleteAsset(id string) error

	// Close closes the underlying database.
	Close() error
}

// BoltLedger implements the Ledger interface using BoltDB.
type BoltLedger struct {
	db *bbolt.DB
}

// NewBoltLedger creates a new BoltLedger instance.
func NewBoltLedger(path string) (*BoltLedger, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(expenseBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(assetBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltLedger{db: db}, nil
}

// AppendExpense adds a confirmed expense to the ledger.
func (b *BoltLedger) AppendExpense(expense *Expense) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data, err := json.Marshal(expense)
		if err != nil {
			return fmt.Errorf("marshaling expense: %w", err)
		}
		return bucket.Put([]byte(expense.ID), data)
	})
}

// GetExpense retrieves an expense by ID.
func (b *BoltLedger) GetExpense(id string) (*Expense, error) {
	var expense *Expense
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("expense not found: %s", id)
		}
		return json.Unmarshal(data, &expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns all expenses.
func (b *BoltLedger) ListExpenses() ([]*Expense, error) {
	expenses := make([]*Expense, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var expense Expense
			if err := json.Unmarshal(v, &expense); err != nil {
				return fmt.Errorf("unmarshaling expense: %w", err)
			}
			expenses = append(expenses, &expense)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense removes an expense from the ledger.
func (b *BoltLedger) DeleteExpense(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveAsset creates or updates an asset.
func (b *BoltLedger) SaveAsset(asset *Asset) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucketName))
		data, err := json.Marshal(asset)
		if err != nil {
			return fmt.Errorf("marshaling asset: %w", err)
		}
		return bucket.Put([]byte(asset.ID), data)
	})
}

// GetAsset retrieves an asset by ID.
func (b *BoltLedger) GetAsset(id string) (*Asset, error) {
	var asset *Asset
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("asset not found: %s", id)
		}
		return json.Unmarshal(data, &asset)
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// ListAssets returns all assets.
func (b *BoltLedger) ListAssets() ([]*Asset, error) {
	assets := make([]*Asset, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var asset Asset
			if err := json.Unmarshal(v, &asset); err != nil {
				return fmt.Errorf("unmarshaling asset: %w", err)
			}
			assets = append(assets, &asset)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// DeleteAsset removes an asset.
func (b *BoltLedger) DeleteAsset(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucketName))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the underlying database.
func (b *BoltLedger) Close() error {
	return b.db.Close()
}
