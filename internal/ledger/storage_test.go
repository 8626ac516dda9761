package ledger_test

import (
	"path/filepath"

	"github.com/tmlerp/invoice-sync/internal/ledger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage ledger.Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = ledger.NewLocalStorage(filepath.Join(tmpDir, "invoices"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			savedPath string
			err       error
		)

		JustBeforeEach(func() {
			savedPath, err = storage.Save("20251228_174528_45184639.pdf", []byte("%PDF-1.4 test"))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the filename", func() {
			Expect(savedPath).To(Equal("20251228_174528_45184639.pdf"))
		})

		It("should write the file under the upload root", func() {
			Expect(filepath.Join(tmpDir, "invoices", savedPath)).To(BeAnExistingFile())
		})

		When("the filename is already archived", func() {
			It("should refuse to overwrite it", func() {
				_, err := storage.Save("20251228_174528_45184639.pdf", []byte("other"))
				Expect(err).To(HaveOccurred())

				data, getErr := storage.Get("20251228_174528_45184639.pdf")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("%PDF-1.4 test"))
			})
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("invoice.pdf", []byte("content"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the file data", func() {
				data, err := storage.Get("invoice.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("content"))
			})
		})

		When("the file does not exist", func() {
			It("should return an error", func() {
				_, err := storage.Get("missing.pdf")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("invoice.pdf", []byte("content"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove the file", func() {
				Expect(storage.Delete("invoice.pdf")).To(Succeed())
				Expect(filepath.Join(tmpDir, "invoices", "invoice.pdf")).NotTo(BeAnExistingFile())
			})
		})
	})
})
