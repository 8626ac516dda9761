package extract

import (
	"regexp"
	"strings"
)

// invoiceNumberPatterns is tuned for the vendor layouts seen so far: table
// headers where the value sits on the next line, label-colon-value rows, and
// vendor-specific literal prefixes (INVOICE-, OP/). New vendors get new
// entries here; an unknown layout silently yields no number.
var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Belegnummer\s+Datum\s+Seite\s*\n\s*(\d+)`),
	regexp.MustCompile(`(?i)Belegnummer\s+(\d+)`),
	regexp.MustCompile(`(?i)Rechnungsnummer\s+Rechnungsdatum\s+Zahlungsziel\s*\n\s*(\d+)`),
	regexp.MustCompile(`(?i)Rechnungsnummer\s*:?\s+([A-Z0-9][A-Z0-9\-/]*)`),
	regexp.MustCompile(`(?i)Rechnungsnummer\s*:\s*([A-Z0-9][A-Z0-9\-/]*)`),
	regexp.MustCompile(`(?i)Rechnungsnummer\s+([A-Z0-9][A-Z0-9\-/]+)`),
	regexp.MustCompile(`(?i)INVOICE[-/](\d+)`),
	regexp.MustCompile(`(?i)OP/?([A-Z0-9\-/]+)`),
	regexp.MustCompile(`(?i)(?:Invoice|Nr\.?|No\.?)[\s:]*([A-Z0-9][A-Z0-9\-/]*)`),
	regexp.MustCompile(`#\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`),
	regexp.MustCompile(`(?i)INV[-/]?([A-Z0-9][A-Z0-9\-/]*)`),
}

// invoiceNumberDenylist holds structural words that the patterns capture on
// templated invoices where the label is present but the value is not.
var invoiceNumberDenylist = map[string]bool{
	"belegnummer":     true,
	"rechnung":        true,
	"rechnungsnummer": true,
	"rechnungsdatum":  true,
	"zahlungsziel":    true,
	"datum":           true,
	"invoice":         true,
	"nr":              true,
	"no":              true,
	"template":        true,
	"debitoren":       true,
	"xml":             true,
	"nummer":          true,
	"seite":           true,
}

// extractInvoiceNumber tries each pattern in priority order and returns the
// first captured candidate that passes validation. Each pattern contributes
// only its first match; a rejected candidate moves on to the next pattern.
func extractInvoiceNumber(text string) string {
	for _, re := range invoiceNumberPatterns {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		candidate := strings.TrimSpace(match[1])
		if acceptInvoiceNumber(candidate) {
			return candidate
		}
	}
	return ""
}

// acceptInvoiceNumber filters out label fragments mistaken for values:
// denylisted structural words, very short tokens, partial "Rechnungs..."
// captures, and pure-alphabetic tokens that don't look like structured
// codes.
func acceptInvoiceNumber(candidate string) bool {
	lower := strings.ToLower(candidate)
	if invoiceNumberDenylist[lower] {
		return false
	}
	if len(candidate) <= 2 {
		return false
	}
	if strings.HasPrefix(lower, "rechnungs") {
		return false
	}
	if !strings.ContainsAny(candidate, "0123456789") && !strings.Contains(candidate, "/") {
		return false
	}
	return true
}
