package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPatterns is tried in priority order: machine-readable markers some
// vendors stamp into the text layer, then currency-symbol-adjacent tokens,
// then keyword-adjacent tokens, then grouped decimals next to VAT markers.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`##BETRAGBRUTTO=([\d.,]+)##`),
	regexp.MustCompile(`##BETRAGNETTO=([\d.,]+)##`),
	regexp.MustCompile(`(?i)(?:Summe|Gesamt|Total|Betrag|Endbetrag|Zu zahlen|Brutto|Netto|Totaal|Totaalbedrag)[\s:]*([\d.,]+)\s*€`),
	regexp.MustCompile(`(?i)([\d.,]+)\s*€\s*(?:inkl|MwSt|BTW)`),
	regexp.MustCompile(`(?i)([\d.,]+)\s*EUR`),
	regexp.MustCompile(`([\d.,]+)\s*€`),
	regexp.MustCompile(`€\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)(?:Amount|Total|Sum|Price|Totaal)[\s:]*([\d.,]+)`),
	regexp.MustCompile(`(?i)([\d.,]+)\s*(?:EUR|€|Euro)`),
	regexp.MustCompile(`(?i)(?:Gesamt|Total|Summe|Totaal|Endbetrag|Zu zahlen)[\s:]*(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})?)`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})*[.,]\d{2})\s*(?:€|EUR|Euro|BTW|inkl\.|MwSt)`),
}

// amountFallbackPatterns catches bare two-decimal figures at line ends,
// which on many layouts is where the grand total sits. Only consulted when
// the primary patterns found nothing.
var amountFallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)(\d{1,3}(?:[.,]\d{3})*[.,]\d{2})\s*$`),
	regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})*[.,]\d{2})\s*\n`),
}

var maxPlausibleAmount = decimal.NewFromInt(1_000_000)

// extractAmount collects every plausible monetary token in the text and
// returns the largest one, on the assumption that the grand total is the
// biggest figure on an invoice (bigger than line items and tax breakdowns).
// That is a heuristic, not a guarantee: a large bare number near the end of
// the text can win the fallback pass.
func extractAmount(text string) (decimal.Decimal, bool) {
	var candidates []decimal.Decimal

	for _, re := range amountPatterns {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			value, err := parseAmount(match[1])
			if err != nil {
				continue
			}
			if value.IsPositive() && value.LessThan(maxPlausibleAmount) {
				candidates = append(candidates, value)
			}
		}
	}

	if len(candidates) == 0 {
		one := decimal.NewFromInt(1)
		for _, re := range amountFallbackPatterns {
			for _, match := range re.FindAllStringSubmatch(text, -1) {
				value, err := parseAmount(match[1])
				if err != nil {
					continue
				}
				if value.GreaterThanOrEqual(one) && value.LessThan(maxPlausibleAmount) {
					candidates = append(candidates, value)
				}
			}
		}
	}

	if len(candidates) == 0 {
		return decimal.Decimal{}, false
	}

	largest := candidates[0]
	for _, c := range candidates[1:] {
		if c.GreaterThan(largest) {
			largest = c
		}
	}
	return largest, true
}

// parseAmount normalizes a captured numeric token to a decimal value. A
// token carrying both "." and "," is read as German grouping (1.744,36); a
// token with only "," uses the comma as decimal separator (1744,36);
// anything else is parsed as-is.
func parseAmount(token string) (decimal.Decimal, error) {
	switch {
	case strings.Contains(token, ",") && strings.Contains(token, "."):
		token = strings.ReplaceAll(token, ".", "")
		token = strings.ReplaceAll(token, ",", ".")
	case strings.Contains(token, ","):
		token = strings.ReplaceAll(token, ",", ".")
	}
	return decimal.NewFromString(token)
}
