package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ExportFilename returns "Devis_<number>[_<client>].<ext>". The client part
// is folded to ASCII so the name survives any download header or filesystem.
func ExportFilename(number, clientName string, format Format) string {
	name := "Devis_" + slugify(number)
	if client := slugify(clientName); client != "" {
		name += "_" + client
	}
	return name + "." + format.Extension()
}

var ligatures = strings.NewReplacer("œ", "oe", "Œ", "OE", "æ", "ae", "Æ", "AE")

// slugify strips accents, keeps ASCII letters and digits and collapses the
// rest into single underscores.
func slugify(s string) string {
	s = ligatures.Replace(s)
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
