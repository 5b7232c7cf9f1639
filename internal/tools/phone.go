package tools

import "strings"

// FormatPhoneNumber normalizes a spoken or typed phone number into the
// canonical form used as the reservation key. Eight-digit numbers
// starting with 9, 8, 3 or 6 are treated as Singapore local numbers and
// get the +65 prefix; anything already carrying a "+" is passed through.
// The function is idempotent so a number can be formatted at every
// boundary without drifting.
func FormatPhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	if len(cleaned) == 8 && strings.ContainsRune("9836", rune(cleaned[0])) {
		return "+65" + cleaned
	}

	return cleaned
}
