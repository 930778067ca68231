// Package normalize canonicalizes entity names and relationship type
// strings before they reach the graph store, so that surface variants of
// the same mention ("the Acme Corp", "ACME CORP", "Acme Corp") collapse
// to a single node identity.
//
// The canonicalization is deliberately surface-level: it does not resolve
// synonyms, abbreviations, or cross-language aliases.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// Name returns the canonical display form of a raw entity name:
// whitespace is trimmed, a leading definite article "the " is dropped
// (case-insensitively), and each word is title-cased.
//
// Name is idempotent: Name(Name(s)) == Name(s).
func Name(raw string) string {
	s := strings.TrimSpace(raw)
	// Strip to a fixpoint: title-casing may re-expose a leading article
	// ("the the band"), and idempotence requires the stripped form to be
	// stable under a second pass.
	for len(s) >= 4 && strings.EqualFold(s[:4], "the ") {
		s = strings.TrimSpace(s[4:])
	}
	return titleCaser.String(s)
}

// RelType returns the canonical form of a relationship type string:
// trimmed, upper-cased, with internal spaces replaced by underscores
// ("works for" -> "WORKS_FOR").
func RelType(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ToUpper(s)
	return strings.ReplaceAll(s, " ", "_")
}
