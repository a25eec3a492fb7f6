// Package text holds name handling shared by shopkeeper names and snapshot
// names: comparison normalization and legacy color-code preparation.
package text

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ColorChar introduces a formatting code in a prepared string.
const ColorChar = '§'

// AltColorChar is the user-facing stand-in for ColorChar.
const AltColorChar = '&'

var folder = cases.Fold()

// Normalize returns the comparison key for a user supplied name: Unicode NFC,
// trimmed, case folded, and with whitespace runs and underscores collapsed
// into single dashes. Names that normalize equal are considered the same.
func Normalize(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), "-")
	return folder.String(name)
}

// EqualNormalized reports whether a and b normalize to the same key.
func EqualNormalized(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Colorize converts '&' color codes into section codes and expands
// "&#rrggbb" hex colors into the "§x§r§r§g§g§b§b" form.
func Colorize(value string) string {
	if !strings.ContainsRune(value, AltColorChar) {
		return value
	}
	runes := []rune(value)
	var b strings.Builder
	b.Grow(len(value) + 8)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != AltColorChar || i+1 >= len(runes) {
			b.WriteRune(r)
			continue
		}
		next := runes[i+1]
		if next == '#' && i+7 < len(runes) && isHex(runes[i+2:i+8]) {
			b.WriteRune(ColorChar)
			b.WriteRune('x')
			for _, h := range runes[i+2 : i+8] {
				b.WriteRune(ColorChar)
				b.WriteRune(toLower(h))
			}
			i += 7
			continue
		}
		if isFormatCode(next) {
			b.WriteRune(ColorChar)
			b.WriteRune(toLower(next))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ContainsColorCodes reports whether value carries any prepared or
// user-facing formatting code.
func ContainsColorCodes(value string) bool {
	return strings.ContainsRune(Colorize(value), ColorChar)
}

func isFormatCode(r rune) bool {
	r = toLower(r)
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'k' && r <= 'o') || r == 'r'
}

func isHex(runes []rune) bool {
	for _, r := range runes {
		r = toLower(r)
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
