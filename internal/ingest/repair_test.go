package ingest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("repairInvoiceNumber", func() {
	DescribeTable("keeping good numbers",
		func(current, filename, expected string) {
			Expect(repairInvoiceNumber(current, filename)).To(Equal(expected))
		},
		Entry("plain number", "4711", "whatever.pdf", "4711"),
		Entry("structured code", "OP/I051733", "whatever.pdf", "OP/I051733"),
		Entry("eight digits but not a date", "45184639", "whatever.pdf", "45184639"),
	)

	DescribeTable("recovering from the filename",
		func(current, filename, expected string) {
			Expect(repairInvoiceNumber(current, filename)).To(Equal(expected))
		},
		Entry("absent number, INVOICE prefix", "", "INVOICE-4937130.pdf", "4937130"),
		Entry("placeholder number, INVOICE prefix", "Template", "export_INVOICE-4937130.pdf", "4937130"),
		Entry("date-shaped number, three segments", "20251228", "20251228_174528_45184639.pdf", "45184639"),
		Entry("absent number, two segments", "", "20251228_45184639.pdf", "45184639"),
		Entry("absent number, long digit run", "", "scan-45184639-final.pdf", "45184639"),
		Entry("label placeholder", "Rechnungsnummer", "20240101_120000_778899.pdf", "778899"),
	)

	DescribeTable("leaving the number absent",
		func(current, filename string) {
			Expect(repairInvoiceNumber(current, filename)).To(BeEmpty())
		},
		Entry("nothing recoverable", "", "scan.pdf"),
		Entry("last segment is also a date", "20251228", "20251228_20251229.pdf"),
		Entry("digit run is a date", "", "export-20251228-x.pdf"),
	)
})

var _ = Describe("isEightDigitDate", func() {
	DescribeTable("classification",
		func(token string, expected bool) {
			Expect(isEightDigitDate(token)).To(Equal(expected))
		},
		Entry("valid date", "20251228", true),
		Entry("century boundary", "21001231", true),
		Entry("year out of range", "19991231", false),
		Entry("impossible month", "20251340", false),
		Entry("impossible day", "20250232", false),
		Entry("non-numeric", "2025abcd", false),
		Entry("too short", "2025122", false),
		Entry("too long", "202512280", false),
		Entry("not a date at all", "45184639", false),
	)
})
