package card

import (
	"regexp"
	"strings"
	"time"
)

// Brand is a closed set of card networks detectable from the number prefix.
type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandDiscover   Brand = "discover"
	BrandJCB        Brand = "jcb"
	BrandUnknown    Brand = "unknown"
)

// IsValid reports whether b is a known brand value.
func (b Brand) IsValid() bool {
	switch b {
	case BrandVisa, BrandMastercard, BrandAmex, BrandDiscover, BrandJCB, BrandUnknown:
		return true
	}
	return false
}

// DisplayName returns the customer-facing network name.
func (b Brand) DisplayName() string {
	switch b {
	case BrandVisa:
		return "Visa"
	case BrandMastercard:
		return "Mastercard"
	case BrandAmex:
		return "American Express"
	case BrandDiscover:
		return "Discover"
	case BrandJCB:
		return "JCB"
	default:
		return "Unknown"
	}
}

const (
	minNumberLength = 13
	maxNumberLength = 19

	// Cards issued before this year are rejected outright.
	minExpiryYear = 2024
)

// ValidateNumber checks structural validity of a card number: digits
// only after whitespace stripping, length 13-19, and a passing Luhn
// checksum.
func ValidateNumber(number string) bool {
	digits := stripSpaces(number)
	if len(digits) < minNumberLength || len(digits) > maxNumberLength {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return luhnCheck(digits)
}

// luhnCheck walks the digits right to left, doubling every second one.
func luhnCheck(digits string) bool {
	var sum int
	var double bool
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// DetectBrand identifies the network from the number prefix. Longer
// prefix rules are checked first so the most specific one wins.
func DetectBrand(number string) Brand {
	digits := stripSpaces(number)
	switch {
	case hasAnyPrefix(digits, "6011"):
		return BrandDiscover
	case hasAnyPrefix(digits, "2131", "1800"):
		return BrandJCB
	case hasAnyPrefix(digits, "34", "37"):
		return BrandAmex
	case hasAnyPrefix(digits, "51", "52", "53", "54", "55"):
		return BrandMastercard
	case hasAnyPrefix(digits, "65"):
		return BrandDiscover
	case hasAnyPrefix(digits, "35"):
		return BrandJCB
	case hasAnyPrefix(digits, "4"):
		return BrandVisa
	default:
		return BrandUnknown
	}
}

// ValidateExpiry accepts a month/year pair that is a real calendar
// month, not before the minimum supported year, and not in the past
// relative to now.
func ValidateExpiry(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year < minExpiryYear {
		return false
	}
	if year < now.Year() {
		return false
	}
	if year == now.Year() && month < int(now.Month()) {
		return false
	}
	return true
}

// ValidateCVV requires exactly four digits for American Express and
// exactly three for every other brand.
func ValidateCVV(cvv string, brand Brand) bool {
	want := 3
	if brand == BrandAmex {
		want = 4
	}
	if len(cvv) != want {
		return false
	}
	for _, r := range cvv {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var canadianPostalCode = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z][ ]?\d[A-Za-z]\d$`)

// ValidateCanadianPostalCode matches letter-digit-letter, optional
// space, digit-letter-digit, case-insensitive.
func ValidateCanadianPostalCode(code string) bool {
	return canadianPostalCode.MatchString(strings.TrimSpace(code))
}

func stripSpaces(value string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, value)
}

func hasAnyPrefix(value string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
