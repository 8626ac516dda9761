package extract

import (
	"regexp"
	"strconv"
	"time"
)

// datePatterns is tried in priority order: keyword-prefixed day-month-year,
// bare day-month-year, then year-month-day. Unlike the amount, the first
// match that validates wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Rechnungsdatum|Datum|Date)[\s:]*(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})`),
	regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{4})[./-](\d{1,2})[./-](\d{1,2})\b`),
}

// extractDate finds the first date-looking token that survives validation.
// Field order is disambiguated by the width of the captured fields: a
// four-digit leading field is the year, otherwise the token reads
// day-month-year with a two-digit year expanded by adding 2000.
func extractDate(text string) (time.Time, bool) {
	for _, re := range datePatterns {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			first, _ := strconv.Atoi(match[1])
			second, _ := strconv.Atoi(match[2])
			third, _ := strconv.Atoi(match[3])

			var day, month, year int
			switch {
			case len(match[1]) == 4:
				year, month, day = first, second, third
			case len(match[3]) == 4:
				day, month, year = first, second, third
			default:
				day, month, year = first, second, third
				if year < 100 {
					year += 2000
				}
			}

			if month < 1 || month > 12 || day < 1 || day > 31 {
				continue
			}
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
