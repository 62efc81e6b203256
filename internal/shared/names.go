package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var nameFolder = cases.Fold()

// NormalizeName canonicalizes an entity name for uniqueness checks: trimmed,
// NFC-normalized and case-folded. " Alice " and "alice" normalize to the
// same key. The stored row keeps the name as the user typed it.
func NormalizeName(name string) string {
	return nameFolder.String(norm.NFC.String(strings.TrimSpace(name)))
}
