package card

import (
	"fmt"
	"strings"
)

// FormatNumber groups the digits of a card number for display without
// altering the underlying value: 4-6-5 for American Express, blocks of
// four for everything else. Non-digit characters are stripped first.
func FormatNumber(number string) string {
	digits := digitsOnly(number)
	if digits == "" {
		return ""
	}

	var groups []int
	if DetectBrand(digits) == BrandAmex {
		groups = []int{4, 6, 5}
	} else {
		groups = []int{4, 4, 4, 4, 4}
	}

	var out []string
	rest := digits
	for _, size := range groups {
		if rest == "" {
			break
		}
		if len(rest) < size {
			size = len(rest)
		}
		out = append(out, rest[:size])
		rest = rest[size:]
	}
	if rest != "" {
		out = append(out, rest)
	}
	return strings.Join(out, " ")
}

// FormatExpiry renders a month/year pair as MM/YY.
func FormatExpiry(month, year int) string {
	return fmt.Sprintf("%02d/%02d", month, year%100)
}

// LastFour returns the trailing four digits of a card number, or the
// whole digit string when shorter.
func LastFour(number string) string {
	digits := digitsOnly(number)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func digitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}
