package card

import (
	"testing"
	"time"
)

func TestValidateNumber(t *testing.T) {
	cases := []struct {
		name   string
		number string
		want   bool
	}{
		{"known valid vector", "4532015112830366", true},
		{"known invalid vector", "4532015112830367", false},
		{"spaces are stripped", "4532 0151 1283 0366", true},
		{"amex", "378282246310005", true},
		{"mastercard", "5555555555554444", true},
		{"too short", "453201511283", false},
		{"too long", "45320151128303664532", false},
		{"non digit", "4532o15112830366", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateNumber(tc.number); got != tc.want {
				t.Fatalf("ValidateNumber(%q) = %v, want %v", tc.number, got, tc.want)
			}
		})
	}
}

func TestDetectBrand(t *testing.T) {
	cases := []struct {
		number string
		want   Brand
	}{
		{"4111111111111111", BrandVisa},
		{"5500005555555559", BrandMastercard},
		{"340000000000009", BrandAmex},
		{"370000000000002", BrandAmex},
		{"6011000990139424", BrandDiscover},
		{"6500000000000002", BrandDiscover},
		{"3530111333300000", BrandJCB},
		{"213112345678901", BrandJCB},
		{"180012345678901", BrandJCB},
		{"9999999999999999", BrandUnknown},
	}
	for _, tc := range cases {
		if got := DetectBrand(tc.number); got != tc.want {
			t.Fatalf("DetectBrand(%q) = %q, want %q", tc.number, got, tc.want)
		}
	}
}

func TestValidateExpiry(t *testing.T) {
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

	if !ValidateExpiry(8, 2026, now) {
		t.Fatalf("current month should be valid")
	}
	if ValidateExpiry(7, 2026, now) {
		t.Fatalf("one month in the past should be invalid")
	}
	if !ValidateExpiry(8, 2027, now) {
		t.Fatalf("twelve months in the future should be valid")
	}
	if ValidateExpiry(12, 2023, now) {
		t.Fatalf("year below the minimum should be invalid")
	}
	if ValidateExpiry(0, 2027, now) || ValidateExpiry(13, 2027, now) {
		t.Fatalf("months outside 1..12 should be invalid")
	}
}

func TestValidateCVV(t *testing.T) {
	if !ValidateCVV("1234", BrandAmex) {
		t.Fatalf("amex takes four digits")
	}
	if ValidateCVV("1234", BrandVisa) {
		t.Fatalf("visa rejects four digits")
	}
	if !ValidateCVV("123", BrandVisa) {
		t.Fatalf("visa takes three digits")
	}
	if ValidateCVV("123", BrandAmex) {
		t.Fatalf("amex rejects three digits")
	}
	if ValidateCVV("12a", BrandVisa) {
		t.Fatalf("non-digit cvv rejected")
	}
}

func TestValidateCanadianPostalCode(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"H1A 1A1", true},
		{"h1a1a1", true},
		{"K1A 0B1", true},
		{"12345", false},
		{"H1A-1A1", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidateCanadianPostalCode(tc.code); got != tc.want {
			t.Fatalf("ValidateCanadianPostalCode(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber("4532015112830366"); got != "4532 0151 1283 0366" {
		t.Fatalf("unexpected visa grouping: %q", got)
	}
	if got := FormatNumber("378282246310005"); got != "3782 822463 10005" {
		t.Fatalf("unexpected amex grouping: %q", got)
	}
	// Formatting never alters the validated value.
	if !ValidateNumber(FormatNumber("4532015112830366")) {
		t.Fatalf("formatted number must remain valid")
	}
}

func TestFormatExpiry(t *testing.T) {
	if got := FormatExpiry(3, 2027); got != "03/27" {
		t.Fatalf("unexpected expiry format: %q", got)
	}
}

func TestLastFour(t *testing.T) {
	if got := LastFour("4532 0151 1283 0366"); got != "0366" {
		t.Fatalf("unexpected last four: %q", got)
	}
}
