package format

import "strings"

// CountryCode is the dialling prefix every phone number is normalised to.
const CountryCode = "998"

// phoneGroups is the digit grouping after the country prefix.
var phoneGroups = [...]int{2, 3, 2, 2}

// PhoneDigits is the number of significant digits after the country code.
const PhoneDigits = 9

// Phone normalises free-form input to "+998 DD DDD DD DD". Shorter input
// yields the matching prefix of that pattern; digits beyond the ninth are
// dropped. Input without any significant digit formats to "".
func Phone(input string) string {
	digits := SignificantDigits(input)
	if digits == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("+" + CountryCode)
	rest := digits
	for _, n := range phoneGroups {
		if rest == "" {
			break
		}
		if n > len(rest) {
			n = len(rest)
		}
		b.WriteByte(' ')
		b.WriteString(rest[:n])
		rest = rest[n:]
	}
	return b.String()
}

// SignificantDigits keeps the digits of input, strips a leading country code
// and truncates to PhoneDigits. The code is stripped when it is written with
// a plus sign or when a full local number still follows it, so a local number
// that starts with 998 keeps its digits.
func SignificantDigits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, CountryCode) &&
		(strings.HasPrefix(strings.TrimSpace(input), "+"+CountryCode) || len(digits) >= len(CountryCode)+PhoneDigits) {
		digits = digits[len(CountryCode):]
	}
	if len(digits) > PhoneDigits {
		digits = digits[:PhoneDigits]
	}
	return digits
}

// IsCompletePhone reports whether input carries all nine significant digits.
func IsCompletePhone(input string) bool {
	return len(SignificantDigits(input)) == PhoneDigits
}
