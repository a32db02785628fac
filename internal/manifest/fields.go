package manifest

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field extractors. These are the leaf heuristics of the pipeline: each one is
// a pure function over cell text, tolerant of the OCR artifacts the manifest
// family is known to produce (mis-encoded currency symbols, thousands
// separators, merged cells). The exact shapes are tuned against real sample
// manifests rather than any formal grammar.

var (
	// Strict DD/MM/YYYY, full-cell match. ISO conversion for other formats
	// happens at serialization time, not here.
	dateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

	// Currency-marked amount. "Â£" is the UTF-8 rendering of a Latin-1
	// decoded pound sign, a frequent extraction artifact.
	currencyAmountRe = regexp.MustCompile(`(?:Â£|£)\s*[-+]?\d+(?:,\d{3})*(?:\.\d+)?`)

	// Bare numeric token with optional thousands separators.
	bareAmountRe = regexp.MustCompile(`[-+]?\d+(?:,\d{3})*(?:\.\d+)?`)

	// Amount-shaped for detection purposes: either currency-marked or a
	// decimal with pence digits. A bare integer is deliberately excluded so
	// account and consignment numbers never read as money.
	amountShapedRe = regexp.MustCompile(`(?:Â£|£)\s*[-+]?\d+(?:,\d{3})*(?:\.\d+)?|[-+]?\d+(?:,\d{3})*\.\d+`)

	numericRe = regexp.MustCompile(`[-+]?\d+(?:,\d{3})*(?:\.\d+)?`)

	// UK postcode: outward code, optional space, inward code.
	postcodeRe = regexp.MustCompile(`(?i)\b([A-Z]{1,2}[0-9][A-Z0-9]?)\s*([0-9][A-Z]{2})\b`)

	// Optional leading letter, a digit, then 5+ digits/hyphens. Deliberately
	// broad to catch OCR variants of consignment numbers.
	consignmentRe = regexp.MustCompile(`^[A-Za-z]?\d[\d-]{5,}$`)

	// Single letter followed by 5+ digits.
	accountRe = regexp.MustCompile(`^[A-Za-z]\d{5,}$`)

	// 2-4 uppercase alphanumerics, used to spot a site code embedded in a
	// combined site/size/money cell.
	siteCodeRe = regexp.MustCompile(`^[A-Z0-9]{2,4}$`)

	plainIntRe = regexp.MustCompile(`^\d+$`)
)

// RecognizeDate reports whether the cell is exactly a DD/MM/YYYY date.
func RecognizeDate(cell string) bool {
	return dateRe.MatchString(strings.TrimSpace(cell))
}

// ExtractAmount locates the first monetary token in the cell and returns it
// formatted to two decimal places, along with the cell text with that token
// removed and whitespace collapsed. A currency-marked token is preferred over
// a bare numeric one, which is what recovers merged cells like "1 £2.09"
// (amount 2.09, remainder "1"). When no token parses, the amount is empty and
// the remainder is the original text.
func ExtractAmount(cell string) (amount, remainder string) {
	loc := currencyAmountRe.FindStringIndex(cell)
	if loc == nil {
		loc = bareAmountRe.FindStringIndex(cell)
	}
	if loc == nil {
		return "", cell
	}

	token := cell[loc[0]:loc[1]]
	d, ok := parseMoney(token)
	if !ok {
		return "", cell
	}

	rest := cell[:loc[0]] + " " + cell[loc[1]:]
	return d.StringFixed(2), strings.Join(strings.Fields(rest), " ")
}

// parseMoney parses a single amount token, tolerating currency markers and
// thousands separators.
func parseMoney(token string) (decimal.Decimal, bool) {
	n := numericRe.FindString(token)
	if n == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(n, ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// FindPostcode scans cells in order and returns the first UK-postcode-shaped
// token, uppercased with a single space between outward and inward codes.
// Returns "" when no cell contains one.
func FindPostcode(cells []string) string {
	for _, cell := range cells {
		if m := postcodeRe.FindStringSubmatch(cell); m != nil {
			return strings.ToUpper(m[1] + " " + m[2])
		}
	}
	return ""
}

// IsConsignmentToken reports whether s is shaped like a consignment number.
func IsConsignmentToken(s string) bool {
	return consignmentRe.MatchString(strings.TrimSpace(s))
}

// IsAccountToken reports whether s is shaped like an account code.
func IsAccountToken(s string) bool {
	return accountRe.MatchString(strings.TrimSpace(s))
}

// IsSiteCode reports whether s is shaped like a site code.
func IsSiteCode(s string) bool {
	return siteCodeRe.MatchString(strings.TrimSpace(s))
}

// hasAmountToken reports whether any cell carries an amount-shaped token
// (currency-marked, or a decimal with pence digits).
func hasAmountToken(cells []string) bool {
	for _, cell := range cells {
		if amountShapedRe.MatchString(cell) {
			return true
		}
	}
	return false
}

// rightmostAmount returns the rightmost parseable amount anywhere in the row,
// formatted to two decimal places, or "" when the row carries none. Cells are
// scanned right to left and the last amount-shaped token within a cell wins.
func rightmostAmount(cells []string) string {
	for i := len(cells) - 1; i >= 0; i-- {
		tokens := amountShapedRe.FindAllString(cells[i], -1)
		for j := len(tokens) - 1; j >= 0; j-- {
			if d, ok := parseMoney(tokens[j]); ok {
				return d.StringFixed(2)
			}
		}
	}
	return ""
}

// isPositiveInt reports whether s is a bare integer greater than zero. "0"
// does not qualify: a zero item count is an extraction artifact, not a real
// delivery line.
func isPositiveInt(s string) bool {
	s = strings.TrimSpace(s)
	return plainIntRe.MatchString(s) && strings.Trim(s, "0") != ""
}

// splitSiteCode strips a leading or trailing site-code-shaped token off a
// combined site/size/money cell. Returns the site code and what remains, or
// ("", cell) when neither end token qualifies.
func splitSiteCode(cell string) (site, rest string) {
	fields := strings.Fields(cell)
	if len(fields) == 0 {
		return "", cell
	}
	if IsSiteCode(fields[0]) {
		return fields[0], strings.Join(fields[1:], " ")
	}
	if last := fields[len(fields)-1]; IsSiteCode(last) {
		return last, strings.Join(fields[:len(fields)-1], " ")
	}
	return "", cell
}

var isoLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "02.01.2006"}

// ToISODate converts a date string to YYYY-MM-DD, accepting the handful of
// formats seen in manifests. Returns "" when the input cannot be parsed with
// confidence.
func ToISODate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
