package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// placeholderNumbers are field labels that the extractor occasionally
// returns when a templated PDF carries the label but no value.
var placeholderNumbers = map[string]bool{
	"template":        true,
	"belegnummer":     true,
	"rechnungsnummer": true,
	"nummer":          true,
}

var (
	filenameInvoicePattern = regexp.MustCompile(`(?i)INVOICE[-/]?(\d+)`)
	filenameDigitRun       = regexp.MustCompile(`\d{6,}`)
)

// repairInvoiceNumber replaces an absent, placeholder, or date-shaped
// invoice number with one recovered from the attachment filename. Some
// vendors stamp the real number into the filename at export time while the
// PDF body only carries a templated label; others leave the extractor
// holding a YYYYMMDD date that merely looks like a number. When the
// filename yields nothing either, the number stays absent.
func repairInvoiceNumber(current, filename string) string {
	if current != "" && !placeholderNumbers[strings.ToLower(current)] && !isEightDigitDate(current) {
		return current
	}

	if m := filenameInvoicePattern.FindStringSubmatch(filename); m != nil {
		return m[1]
	}

	base := strings.ReplaceAll(filename, ".pdf", "")
	base = strings.ReplaceAll(base, ".PDF", "")
	segments := strings.Split(base, "_")

	switch {
	case len(segments) >= 3:
		// e.g. 20251228_174528_45184639 - the trailing segment is the number
		if last := segments[len(segments)-1]; !isEightDigitDate(last) {
			return last
		}
	case len(segments) == 2:
		// e.g. 20251228_45184639
		if last := segments[1]; !isEightDigitDate(last) {
			return last
		}
	default:
		if m := filenameDigitRun.FindString(filename); m != "" && !isEightDigitDate(m) {
			return m
		}
	}

	return ""
}

// isEightDigitDate reports whether s is an 8-digit token that reads as a
// real YYYYMMDD calendar date in the years 2000-2100. Such tokens are date
// stamps mistaken for invoice numbers.
func isEightDigitDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	if _, err := strconv.Atoi(s); err != nil {
		return false
	}
	parsed, err := time.Parse("20060102", s)
	if err != nil {
		return false
	}
	return parsed.Year() >= 2000 && parsed.Year() <= 2100
}
