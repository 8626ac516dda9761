package extract

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceData holds the fields mined from an invoice document. Every field
// except Title is best-effort: a missing date or invoice number does not
// make the record unusable.
type InvoiceData struct {
	Amount        decimal.Decimal
	Date          time.Time
	HasDate       bool
	InvoiceNumber string
	Title         string
}

// Extract mines structured invoice fields from raw document text. The four
// sub-extractions are independent; failing one never blocks the others.
// Extract returns nil when the text is too short to carry any data or when
// no amount candidate is found anywhere in it, since an entry without an
// amount is useless to the ledger.
func Extract(text, filename string) *InvoiceData {
	if len(strings.TrimSpace(text)) < 10 {
		return nil
	}

	amount, ok := extractAmount(text)
	if !ok {
		return nil
	}

	data := &InvoiceData{
		Amount:        amount,
		InvoiceNumber: extractInvoiceNumber(text),
		Title:         extractTitle(text, filename),
	}

	if date, ok := extractDate(text); ok {
		data.Date = date
		data.HasDate = true
	}

	return data
}

// extractTitle returns the first plausible heading line: within the first
// ten lines, longer than five characters, not purely numeric, and mentioning
// an invoice word in some language. Falls back to the file's base name.
func extractTitle(text, filename string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) <= 5 || isAllDigits(line) {
			continue
		}
		lower := strings.ToLower(line)
		for _, word := range []string{"rechnung", "invoice", "bill"} {
			if strings.Contains(lower, word) {
				return line
			}
		}
	}

	return filepath.Base(filename)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
