package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"easydevis/models"
)

// nbsp separates digit groups and the currency sign. It is used for both
// the preview and the PDF so the two targets print identical strings; the
// narrow no-break space browsers emit is missing from the PDF core fonts.
const nbsp = " "

// FormatEUR formats an amount the fr-FR way: thousands grouped with a
// no-break space, a decimal comma, exactly two decimals and a trailing "€".
// Example: 1234.5 → "1 234,50 €".
func FormatEUR(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	raw := amount.Abs().StringFixed(2)

	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	result := applyFrenchGrouping(intPart) + "," + decPart + nbsp + "€"
	if negative && !amount.Round(2).IsZero() {
		result = "-" + result
	}
	return result
}

// applyFrenchGrouping inserts a no-break space every three digits from the right.
func applyFrenchGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(nbsp)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatQty prints whole quantities without decimals and fractional ones
// with two, using a decimal comma.
func formatQty(qty decimal.Decimal) string {
	if qty.Equal(qty.Truncate(0)) {
		return qty.Truncate(0).String()
	}
	return strings.Replace(qty.StringFixed(2), ".", ",", 1)
}

// formatPercent prints a percentage with the shortest decimal form, e.g. "5,5".
func formatPercent(p decimal.Decimal) string {
	return strings.Replace(p.String(), ".", ",", 1)
}

// formatUnit renders an empty unit as a dash.
func formatUnit(unit string) string {
	if strings.TrimSpace(unit) == "" {
		return "-"
	}
	return unit
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatLongDate renders a stored date as "15 janvier 2025". A value that
// does not parse is returned unchanged with ok=false.
func FormatLongDate(stored string) (formatted string, ok bool) {
	t, err := parseStoredDate(stored)
	if err != nil {
		return stored, false
	}
	return longDate(t), true
}

func longDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + frenchMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// parseStoredDate accepts the storage layout and full RFC 3339 timestamps.
func parseStoredDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
