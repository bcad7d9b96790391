package expense

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmoreda/billy-audit/internal/audit"
)

var _ = Describe("BoltLedger", func() {
	var (
		dbPath string
		ledger *BoltLedger
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		ledger, err = NewBoltLedger(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if ledger != nil {
			ledger.Close()
		}
	})

	newExpense := func(id string) *Expense {
		return &Expense{
			ID:          id,
			AssetID:     "asset-1",
			Category:    "Luz",
			Amount:      6430,
			Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Provider:    "Endesa",
			Description: "Endesa bill",
			IsRecurring: true,
			AuditStatus: audit.StatusAbusive,
			AuditDetail: "Cambia de tarifa.",
			CreatedAt:   time.Now().Truncate(time.Second),
			UpdatedAt:   time.Now().Truncate(time.Second),
		}
	}

	Describe("AppendExpense", func() {
		It("persists the expense", func() {
			Expect(ledger.AppendExpense(newExpense("e1"))).To(Succeed())

			got, err := ledger.GetExpense("e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Provider).To(Equal("Endesa"))
			Expect(got.Amount).To(Equal(6430))
			Expect(got.AuditStatus).To(Equal(audit.StatusAbusive))
		})
	})

	Describe("GetExpense", func() {
		It("fails for an unknown id", func() {
			_, err := ledger.GetExpense("missing")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not found"))
		})
	})

	Describe("ListExpenses", func() {
		It("returns an empty slice for an empty ledger", func() {
			expenses, err := ledger.ListExpenses()
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(BeEmpty())
		})

		It("returns all appended expenses", func() {
			Expect(ledger.AppendExpense(newExpense("e1"))).To(Succeed())
			Expect(ledger.AppendExpense(newExpense("e2"))).To(Succeed())

			expenses, err := ledger.ListExpenses()
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(HaveLen(2))
		})
	})

	Describe("DeleteExpense", func() {
		It("removes the expense", func() {
			Expect(ledger.AppendExpense(newExpense("e1"))).To(Succeed())
			Expect(ledger.DeleteExpense("e1")).To(Succeed())

			_, err := ledger.GetExpense("e1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("assets", func() {
		It("round-trips an asset", func() {
			asset := &Asset{
				ID:     "a1",
				Name:   "Piso Centro",
				Type:   AssetTypeHome,
				Detail: "Calle Mayor 1",
			}
			Expect(ledger.SaveAsset(asset)).To(Succeed())

			got, err := ledger.GetAsset("a1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Piso Centro"))
			Expect(got.Type).To(Equal(AssetTypeHome))
		})

		It("lists all assets", func() {
			Expect(ledger.SaveAsset(&Asset{ID: "a1", Name: "Piso", Type: AssetTypeHome})).To(Succeed())
			Expect(ledger.SaveAsset(&Asset{ID: "a2", Name: "Coche", Type: AssetTypeCar})).To(Succeed())

			assets, err := ledger.ListAssets()
			Expect(err).NotTo(HaveOccurred())
			Expect(assets).To(HaveLen(2))
		})

		It("deletes an asset", func() {
			Expect(ledger.SaveAsset(&Asset{ID: "a1", Name: "Piso", Type: AssetTypeHome})).To(Succeed())
			Expect(ledger.DeleteAsset("a1")).To(Succeed())

			_, err := ledger.GetAsset("a1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("persistence across reopen", func() {
		It("keeps expenses after closing and reopening", func() {
			Expect(ledger.AppendExpense(newExpense("e1"))).To(Succeed())
			Expect(ledger.Close()).To(Succeed())

			reopened, err := NewBoltLedger(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			got, err := reopened.GetExpense("e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Provider).To(Equal("Endesa"))
			ledger = nil
		})
	})
})
