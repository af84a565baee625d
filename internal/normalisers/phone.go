package normalisers

import "strings"

// phoneKeyDigits is the number of trailing digits kept, dropping country codes.
const phoneKeyDigits = 10

// Phone returns the comparison key for a phone number: its digits only,
// limited to the last ten. Shorter numbers keep every digit.
func Phone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > phoneKeyDigits {
		return digits[len(digits)-phoneKeyDigits:]
	}
	return digits
}
