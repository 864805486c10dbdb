// Package gstin validates GSTIN strings and repairs common OCR misreads
// in them. A GSTIN is a 15-character identifier with a fixed positional
// layout: two digits (state code), five letters, four digits, one letter,
// one entity code, the literal 'Z', and one checksum character.
package gstin

import "strings"

// Substitution is a one-directional OCR confusion rule: Wrong is the
// character the OCR engine likely produced, Right the character that was
// likely printed. The reverse direction is never tried.
type Substitution struct {
	Wrong byte
	Right byte
}

// AmbiguityTable is an ordered list of substitutions. At each scan
// position, earlier entries are tried before later ones.
type AmbiguityTable []Substitution

// DefaultAmbiguityTable covers the confusions we actually see on scanned
// pharma invoices. Keep it short; every entry adds trial work and a
// chance of a wrong "fix".
var DefaultAmbiguityTable = AmbiguityTable{
	{'8', 'B'}, // 8 misread instead of B
	{'0', 'O'}, // 0 instead of O
	{'1', 'I'}, // 1 instead of I
	{'l', '1'}, // lowercase L instead of 1
}

const gstinLength = 15

// IsValidFormat reports whether s is a well-formed GSTIN, ignoring case.
// The checksum digit is not verified, only the positional layout.
func IsValidFormat(s string) bool {
	u := strings.ToUpper(s)
	if len(u) != gstinLength {
		return false
	}
	for i := 0; i < gstinLength; i++ {
		if !validAt(i, u[i]) {
			return false
		}
	}
	return true
}

// validAt reports whether c belongs to the character class required at
// zero-based position pos.
func validAt(pos int, c byte) bool {
	switch {
	case pos <= 1: // state code
		return isDigit(c)
	case pos <= 6: // PAN letters
		return isUpper(c)
	case pos <= 10: // PAN digits
		return isDigit(c)
	case pos == 11: // PAN check letter
		return isUpper(c)
	case pos == 12: // entity number, zero excluded
		return (c >= '1' && c <= '9') || isUpper(c)
	case pos == 13:
		return c == 'Z'
	default: // checksum slot
		return isDigit(c) || isUpper(c)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

// Correct returns s if it already validates, otherwise searches for a
// single table-driven character substitution that makes it validate. The
// search scans positions left to right and, at each position, table
// entries in order; the first substitution that yields a valid GSTIN
// wins. If no single substitution helps, s is returned unchanged. At
// most one character is ever replaced.
func Correct(s string, table AmbiguityTable) string {
	fixed, _ := CorrectWithReport(s, table)
	return fixed
}

// CorrectWithReport is Correct plus a flag telling whether a repair was
// applied, so callers can count auto-corrected records.
func CorrectWithReport(s string, table AmbiguityTable) (string, bool) {
	if IsValidFormat(s) {
		return s, false
	}

	chars := []byte(strings.ToUpper(s))
	for i := range chars {
		orig := chars[i]
		for _, sub := range table {
			if orig != sub.Wrong {
				continue
			}
			chars[i] = sub.Right
			if IsValidFormat(string(chars)) {
				return string(chars), true
			}
			chars[i] = orig
		}
	}

	return s, false
}
