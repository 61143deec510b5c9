package utils

import "strings"

// Slugify lowercases s, keeps ASCII letters and digits, and collapses every
// other run of characters into a single hyphen. Leading and trailing hyphens
// are dropped, so "  Spicy Garlic Noodles! " becomes "spicy-garlic-noodles".
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
