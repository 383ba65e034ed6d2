package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var upper = cases.Upper(language.Spanish)

// NormalizeName canonicalizes a party or comuna name: NFC form, trimmed, upper-case.
// Composed and decomposed accents ("UNIÓN") compare equal after this.
func NormalizeName(s string) string {
	return upper.String(norm.NFC.String(strings.TrimSpace(s)))
}
