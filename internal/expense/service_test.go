package expense

import (
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockLedger is a mock implementation of Ledger
type mockLedger struct {
	expenses  map[string]*Expense
	assets    map[string]*Asset
	appendErr error
	getErr    error
	listErr   error
	deleteErr error
	assetErr  error
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		expenses: make(map[string]*Expense),
		assets:   make(map[string]*Asset),
	}
}

func (m *mockLedger) AppendExpense(expense *Expense) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.expenses[expense.ID] = expense
	return nil
}

func (m *mockLedger) GetExpense(id string) (*Expense, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	expense, ok := m.expenses[id]
	if !ok {
		return nil, errors.New("expense not found")
	}
	return expense, nil
}

func (m *mockLedger) ListExpenses() ([]*Expense, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	expenses := make([]*Expense, 0, len(m.expenses))
	for _, e := range m.expenses {
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (m *mockLedger) DeleteExpense(id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.expenses[id]; !ok {
		return errors.New("expense not found")
	}
	delete(m.expenses, id)
	return nil
}

func (m *mockLedger) SaveAsset(asset *Asset) error {
	if m.assetErr != nil {
		return m.assetErr
	}
	m.assets[asset.ID] = asset
	return nil
}

func (m *mockLedger) GetAsset(id string) (*Asset, error) {
	if m.assetErr != nil {
		return nil, m.assetErr
	}
	asset, ok := m.assets[id]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return asset, nil
}

func (m *mockLedger) ListAssets() ([]*Asset, error) {
	if m.assetErr != nil {
		return nil, m.assetErr
	}
	assets := make([]*Asset, 0, len(m.assets))
	for _, a := range m.assets {
		assets = append(assets, a)
	}
	return assets, nil
}

func (m *mockLedger) DeleteAsset(id string) error {
	if m.assetErr != nil {
		return m.assetErr
	}
	if _, ok := m.assets[id]; !ok {
		return errors.New("asset not found")
	}
	delete(m.assets, id)
	return nil
}

func (m *mockLedger) Close() error {
	return nil
}

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	files     map[string][]byte
	saveErr   error
	getErr    error
	deleteErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		files: make(map[string][]byte),
	}
}

func (m *mockStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.files[filename] = data
	return filename, nil
}

func (m *mockStorage) Get(path string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) Delete(path string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.files[path]; !ok {
		return errors.New("file not found")
	}
	delete(m.files, path)
	return nil
}

// sequentialIDGenerator generates predictable IDs for tests
type sequentialIDGenerator struct {
	next int
}

func (g *sequentialIDGenerator) Generate() string {
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

var _ = Describe("Service", func() {
	var (
		ledger  *mockLedger
		storage *mockStorage
		service *Service
	)

	BeforeEach(func() {
		ledger = newMockLedger()
		storage = newMockStorage()
		service = NewServiceWithDeps(ledger, storage, &sequentialIDGenerator{}, &fixedTimeSource{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})
	})

	Describe("DeleteExpense", func() {
		BeforeEach(func() {
			ledger.expenses["e1"] = &Expense{ID: "e1", Filename: "doc.png"}
			storage.files["doc.png"] = []byte("png")
		})

		It("removes the expense and its stored document", func() {
			Expect(service.DeleteExpense("e1")).To(Succeed())
			Expect(ledger.expenses).NotTo(HaveKey("e1"))
			Expect(storage.files).NotTo(HaveKey("doc.png"))
		})

		It("still deletes the record when the file is already gone", func() {
			delete(storage.files, "doc.png")
			Expect(service.DeleteExpense("e1")).To(Succeed())
			Expect(ledger.expenses).NotTo(HaveKey("e1"))
		})

		It("fails for an unknown expense", func() {
			Expect(service.DeleteExpense("missing")).NotTo(Succeed())
		})
	})

	Describe("GetExpenseFile", func() {
		BeforeEach(func() {
			ledger.expenses["e1"] = &Expense{ID: "e1", Filename: "doc.png", ContentType: "image/png"}
			storage.files["doc.png"] = []byte("png bytes")
		})

		It("returns the data and content type", func() {
			data, contentType, err := service.GetExpenseFile("e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png bytes")))
			Expect(contentType).To(Equal("image/png"))
		})

		It("fails when the expense has no stored document", func() {
			ledger.expenses["e2"] = &Expense{ID: "e2"}
			_, _, err := service.GetExpenseFile("e2")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CreateAsset", func() {
		It("registers the asset with a generated id", func() {
			asset, err := service.CreateAsset("Piso Centro", AssetTypeHome, "Calle Mayor 1", "", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(asset.ID).NotTo(BeEmpty())
			Expect(ledger.assets).To(HaveKey(asset.ID))
		})

		It("requires a name", func() {
			_, err := service.CreateAsset("  ", AssetTypeHome, "", "", 0)
			Expect(err).To(HaveOccurred())
		})

		It("requires a type", func() {
			_, err := service.CreateAsset("Piso", "", "", "", 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DeleteAsset", func() {
		It("removes a registered asset", func() {
			ledger.assets["a1"] = &Asset{ID: "a1", Name: "Piso", Type: AssetTypeHome}
			Expect(service.DeleteAsset("a1")).To(Succeed())
			Expect(ledger.assets).NotTo(HaveKey("a1"))
		})

		It("fails for an unknown asset", func() {
			Expect(service.DeleteAsset("missing")).NotTo(Succeed())
		})
	})
})
