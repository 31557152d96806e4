// Package isbn normalizes, validates and converts 10- and 13-digit ISBNs and
// legacy 9-digit SBNs.
//
// All identifiers are plain strings. Numeric forms are never accepted because
// the leading group digit of most English-language ISBNs is 0.
package isbn

import (
	"strings"
	"unicode/utf8"
)

const (
	SBNLength              = 9
	SBNLengthNoChecksum    = 8
	ISBN10Length           = 10
	ISBN10LengthNoChecksum = 9
	ISBN13Length           = 13
	ISBN13LengthNoChecksum = 12

	BooklandPrefixLength = 3
	// DefaultPrefix is the Bookland prefix used when converting ISBN-10s.
	DefaultPrefix = "978"
)

// BooklandPrefixes lists the EAN prefixes reserved for books.
var BooklandPrefixes = []string{"978", "979"}

// dashes strips HYPHEN-MINUS, EN DASH, EM DASH and HORIZONTAL BAR.
var dashes = strings.NewReplacer("-", "", "–", "", "—", "", "―", "")

// Normalize removes dashes from raw and checks it has the shape of an ISBN.
// With checksum set raw must carry its check character and the result is 10 or
// 13 characters long; otherwise raw is a body and the result is 9 or 12 digits.
// SBNs are padded with a leading 0 in both modes.
func Normalize(raw string, checksum bool) (string, error) {
	s := dashes.Replace(raw)
	if checksum {
		return normalizeFull(raw, s)
	}
	return normalizeBody(raw, s)
}

func normalizeFull(raw, s string) (string, error) {
	last, size := utf8.DecodeLastRuneInString(s)
	body := s[:len(s)-size]
	if !isDigits(body) {
		return "", invalid(raw, ReasonNonDigitParts)
	}
	if len(body)+1 == SBNLength {
		body = "0" + body
	}

	switch len(body) + 1 {
	case ISBN10Length:
		switch {
		case isDigit(last), last == 'X':
		case last == 'x':
			last = 'X'
		default:
			return "", invalid(raw, ReasonNonDigitOrXChecksum)
		}
	case ISBN13Length:
		if !isDigit(last) {
			return "", invalid(raw, ReasonNonDigitChecksum)
		}
		if !hasBooklandPrefix(body) {
			return "", invalid(raw, ReasonInvalidBookland)
		}
	default:
		return "", invalid(raw, ReasonFullLength)
	}
	return body + string(last), nil
}

// normalizeBody checks the Bookland region of a 12 character body before its
// character set, so "12345678901a" reports the region.
func normalizeBody(raw, s string) (string, error) {
	switch utf8.RuneCountInString(s) {
	case SBNLengthNoChecksum:
		s = "0" + s
	case ISBN13LengthNoChecksum:
		if !hasBooklandPrefix(s) {
			return "", invalid(raw, ReasonInvalidBookland)
		}
	}
	if !isDigits(s) {
		return "", invalid(raw, ReasonNonDigitParts)
	}
	if len(s) != ISBN10LengthNoChecksum && len(s) != ISBN13LengthNoChecksum {
		return "", invalid(raw, ReasonBodyLength)
	}
	return s, nil
}

// Checksum calculates the check character for an SBN, ISBN-10 or ISBN-13 body.
func Checksum(body string) (string, error) {
	s, err := Normalize(body, false)
	if err != nil {
		return "", err
	}
	return checksum(s), nil
}

// checksum expects a normalized body of 9 or 12 digits.
func checksum(body string) string {
	sum := 0
	if len(body) == ISBN10LengthNoChecksum {
		for i := 0; i < len(body); i++ {
			sum += int(body[i]-'0') * (i + 1)
		}
		check := sum % 11
		if check == 10 {
			return "X"
		}
		return string(rune('0' + check))
	}

	for i := 0; i < len(body); i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return string(rune('0' + check))
}

// Validate reports whether the check character of isbn matches its body.
// Structurally invalid input returns an error rather than false.
func Validate(isbn string) (bool, error) {
	s, err := Normalize(isbn, true)
	if err != nil {
		return false, err
	}
	return s[len(s)-1:] == checksum(s[:len(s)-1]), nil
}

// IsValid is Validate with structural errors reported as false.
func IsValid(isbn string) bool {
	ok, err := Validate(isbn)
	return err == nil && ok
}

// Convert switches isbn between its ISBN-10 and ISBN-13 forms using the
// default Bookland prefix. Output is never hyphenated.
func Convert(isbn string) (string, error) {
	return ConvertWithPrefix(isbn, DefaultPrefix)
}

// ConvertWithPrefix is Convert with an explicit Bookland prefix for the
// ISBN-10 to ISBN-13 direction. Only 978 ISBN-13s convert back to ISBN-10.
func ConvertWithPrefix(isbn, prefix string) (string, error) {
	s, err := Normalize(isbn, true)
	if err != nil {
		return "", err
	}

	if len(s) == ISBN10Length {
		body, err := Normalize(prefix+s[:ISBN10LengthNoChecksum], false)
		if err != nil {
			return "", err
		}
		return body + checksum(body), nil
	}

	if !strings.HasPrefix(s, DefaultPrefix) {
		return "", &Error{Input: isbn, Reason: ReasonNotConvertible, kind: ErrNotConvertible}
	}
	body := s[BooklandPrefixLength : ISBN13Length-1]
	return body + checksum(body), nil
}

// To13 returns the ISBN-13 form of isbn, converting ISBN-10s and SBNs with
// the 978 prefix.
func To13(isbn string) (string, error) {
	s, err := Normalize(isbn, true)
	if err != nil {
		return "", err
	}
	if len(s) == ISBN13Length {
		return s, nil
	}
	return ConvertWithPrefix(s, DefaultPrefix)
}

// To10 returns the ISBN-10 form of isbn. ISBN-13s outside the 978 range have
// no ISBN-10 equivalent.
func To10(isbn string) (string, error) {
	s, err := Normalize(isbn, true)
	if err != nil {
		return "", err
	}
	if len(s) == ISBN10Length {
		return s, nil
	}
	return Convert(s)
}

func hasBooklandPrefix(s string) bool {
	for _, p := range BooklandPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
