package points

import (
	"fmt"
	"strings"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// placeholder numbers people type to skip the field
var dummyPhones = map[string]struct{}{
	"0000000000": {},
	"1111111111": {},
	"1234567890": {},
	"9999999999": {},
	"0123456789": {},
}

// ParsePhone normalizes an owner phone to +<digits>. Spaces, dashes, dots and
// parentheses are separators; any other character, a non-ASCII digit included,
// makes the number invalid. Russian numbers written as 8XXXXXXXXXX or
// 9XXXXXXXXX get the +7 prefix.
func ParsePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	international := strings.HasPrefix(raw, "+")

	var b strings.Builder
	for _, r := range strings.TrimPrefix(raw, "+") {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && digits[0] == '8' && !international:
		digits = "7" + digits[1:]
	case len(digits) == 10 && digits[0] == '9' && !international:
		digits = "7" + digits
	}

	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", ErrInvalidPhone
	}
	if _, dummy := dummyPhones[digits]; dummy {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}

// FormatPhoneNumber renders +7XXXXXXXXXX as +7 (XXX) XXX-XX-XX.
func FormatPhoneNumber(phone string) string {
	if strings.HasPrefix(phone, "+7") && len(phone) == 12 {
		return fmt.Sprintf("%s (%s) %s-%s-%s",
			phone[:2],
			phone[2:5],
			phone[5:8],
			phone[8:10],
			phone[10:12])
	}
	return phone
}
