package ledger_test

import (
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/tmlerp/invoice-sync/internal/ledger"
)

func TestLedger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ledger Suite")
}

func testEntry(id, messageID string) *ledger.Entry {
	return &ledger.Entry{
		ID:              id,
		Type:            ledger.Expense,
		VendorID:        "vendor-1",
		Amount:          decimal.RequireFromString("1190.00"),
		Date:            time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		InvoiceNumber:   "4711",
		Title:           "Rechnung 4711",
		Year:            2024,
		Origin:          ledger.OriginGmail,
		SourceMessageID: messageID,
		CreatedAt:       time.Now(),
	}
}

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *ledger.BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = ledger.NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveEntry", func() {
		var (
			entry *ledger.Entry
			err   error
		)

		BeforeEach(func() {
			entry = testEntry("entry-1", "msg-1")
		})

		JustBeforeEach(func() {
			err = db.SaveEntry(entry)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the entry to the database", func() {
				saved, getErr := db.GetEntry("entry-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("entry-1"))
			})

			It("should round-trip the amount", func() {
				saved, getErr := db.GetEntry("entry-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Amount.Equal(decimal.RequireFromString("1190.00"))).To(BeTrue())
			})

			It("should index the source message id", func() {
				exists, existsErr := db.ExistsBySourceMessageID("msg-1")
				Expect(existsErr).NotTo(HaveOccurred())
				Expect(exists).To(BeTrue())
			})
		})

		When("an entry for the same message already exists", func() {
			BeforeEach(func() {
				Expect(db.SaveEntry(testEntry("entry-0", "msg-1"))).To(Succeed())
			})

			It("should return an error", func() {
				Expect(err).To(MatchError("entry already exists for message msg-1"))
			})

			It("should not add a second entry", func() {
				entries, listErr := db.ListEntries()
				Expect(listErr).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
			})
		})

		When("the entry has no source message id", func() {
			BeforeEach(func() {
				entry = testEntry("entry-manual", "")
				entry.Origin = ledger.OriginManual
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Describe("ExistsBySourceMessageID", func() {
		When("no entry references the message", func() {
			It("should return false", func() {
				exists, err := db.ExistsBySourceMessageID("unknown")
				Expect(err).NotTo(HaveOccurred())
				Expect(exists).To(BeFalse())
			})
		})
	})

	Describe("GetEntry", func() {
		When("the entry does not exist", func() {
			It("should return an error", func() {
				_, err := db.GetEntry("nonexistent")
				Expect(err).To(MatchError("entry not found: nonexistent"))
			})
		})
	})

	Describe("ListActiveVendorsWithLabel", func() {
		var vendors []*ledger.Vendor

		BeforeEach(func() {
			Expect(db.SaveVendor(&ledger.Vendor{
				ID: "v1", Name: "Acme", GmailLabel: "acme-invoices", Type: ledger.Expense, Active: true,
			})).To(Succeed())
			Expect(db.SaveVendor(&ledger.Vendor{
				ID: "v2", Name: "Manual Only", Type: ledger.Expense, Active: true,
			})).To(Succeed())
			Expect(db.SaveVendor(&ledger.Vendor{
				ID: "v3", Name: "Retired", GmailLabel: "retired", Type: ledger.Income, Active: false,
			})).To(Succeed())
		})

		JustBeforeEach(func() {
			var err error
			vendors, err = db.ListActiveVendorsWithLabel()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return only active vendors with a label", func() {
			Expect(vendors).To(HaveLen(1))
			Expect(vendors[0].ID).To(Equal("v1"))
		})
	})

	Describe("GetVendor", func() {
		When("the vendor exists", func() {
			BeforeEach(func() {
				Expect(db.SaveVendor(&ledger.Vendor{
					ID: "v1", Name: "Acme", Type: ledger.Expense, Active: true, CreatedAt: time.Now(),
				})).To(Succeed())
			})

			It("should return the vendor", func() {
				vendor, err := db.GetVendor("v1")
				Expect(err).NotTo(HaveOccurred())
				Expect(vendor.Name).To(Equal("Acme"))
			})
		})

		When("the vendor does not exist", func() {
			It("should return an error", func() {
				_, err := db.GetVendor("nonexistent")
				Expect(err).To(MatchError("vendor not found: nonexistent"))
			})
		})
	})
})
