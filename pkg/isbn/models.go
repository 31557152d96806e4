package isbn

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Identifier is the behaviour shared by ISBN, ISBN10, ISBN13 and SBN values.
type Identifier interface {
	fmt.Stringer
	fmt.GoStringer
	Raw() string
	Normalized() string
	Checksum() string
	Validate() bool
	Convert() (string, error)
	ConvertWithPrefix(prefix string) (string, error)
	URL(site, country string) (string, error)
	URLFrom(sites Sites, site, country string) (string, error)
	URN() string
	Render(format string) (string, error)
}

var (
	_ Identifier = ISBN{}
	_ Identifier = ISBN10{}
	_ Identifier = ISBN13{}
	_ Identifier = SBN{}
)

// value keeps the input as supplied for display next to its normalized form.
// Validate and Convert read the normalized form as a full identifier, so a 9
// digit body is taken as an SBN and a 12 digit body does not validate.
type value struct {
	raw  string
	isbn string
}

// parse treats 9 and 12 character input as a body, everything else as a full
// identifier. Length is counted before dashes are removed.
func parse(raw string) (value, error) {
	n := utf8.RuneCountInString(raw)
	s, err := Normalize(raw, n != SBNLength && n != ISBN13LengthNoChecksum)
	if err != nil {
		return value{}, err
	}
	return value{raw: raw, isbn: s}, nil
}

func (v value) hasChecksum() bool {
	return len(v.isbn) == ISBN10Length || len(v.isbn) == ISBN13Length
}

func (v value) body() string {
	if v.hasChecksum() {
		return v.isbn[:len(v.isbn)-1]
	}
	return v.isbn
}

// String is the display form, "ISBN " followed by the input as supplied.
func (v value) String() string {
	return "ISBN " + v.raw
}

// Raw returns the input as supplied, dashes included.
func (v value) Raw() string {
	return v.raw
}

// Normalized returns the dash-free form used for computation.
func (v value) Normalized() string {
	return v.isbn
}

// Validate reports whether the check character matches the body. Structural
// errors report false.
func (v value) Validate() bool {
	return IsValid(v.isbn)
}

func (v value) Convert() (string, error) {
	return ConvertWithPrefix(v.isbn, DefaultPrefix)
}

func (v value) ConvertWithPrefix(prefix string) (string, error) {
	return ConvertWithPrefix(v.isbn, prefix)
}

// URN returns the RFC 3187 form.
func (v value) URN() string {
	return "URN:ISBN:" + v.raw
}

// URL links to site in DefaultSites.
func (v value) URL(site, country string) (string, error) {
	return v.URLFrom(DefaultSites, site, country)
}

func (v value) URLFrom(sites Sites, site, country string) (string, error) {
	return sites.URL(site, country, v.raw)
}

// Render formats v as "" for String, "urn", "url" for the default
// Amazon link, or "url:<site>[:<country>]".
func (v value) Render(format string) (string, error) {
	switch format {
	case "":
		return v.String(), nil
	case "urn":
		return v.URN(), nil
	case "url":
		return v.URL("amazon", DefaultCountry)
	}

	site, ok := strings.CutPrefix(format, "url:")
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	country := DefaultCountry
	if s, c, found := strings.Cut(site, ":"); found {
		site, country = s, c
	}
	return v.URL(site, country)
}

// ISBN is an SBN, ISBN-10 or ISBN-13 of unknown kind.
type ISBN struct {
	value
}

// New parses raw. Input of 9 or 12 characters is a body without check
// character.
func New(raw string) (ISBN, error) {
	v, err := parse(raw)
	if err != nil {
		return ISBN{}, err
	}
	return ISBN{v}, nil
}

func (i ISBN) Checksum() string {
	return checksum(i.body())
}

func (i ISBN) GoString() string {
	return fmt.Sprintf("isbn.New(%q)", i.isbn)
}

// ISBN10 is a 10-digit ISBN, or its 9 digit body.
type ISBN10 struct {
	value
}

func New10(raw string) (ISBN10, error) {
	v, err := parse(raw)
	if err != nil {
		return ISBN10{}, err
	}
	if len(v.isbn) != ISBN10Length && len(v.isbn) != ISBN10LengthNoChecksum {
		return ISBN10{}, invalid(raw, ReasonISBN10Length)
	}
	return ISBN10{v}, nil
}

func (i ISBN10) Checksum() string {
	return checksum(i.isbn[:ISBN10LengthNoChecksum])
}

func (i ISBN10) GoString() string {
	return fmt.Sprintf("isbn.New10(%q)", i.isbn)
}

// ISBN13 is a 13-digit ISBN, or its 12 digit body.
type ISBN13 struct {
	value
}

func New13(raw string) (ISBN13, error) {
	v, err := parse(raw)
	if err != nil {
		return ISBN13{}, err
	}
	if len(v.isbn) != ISBN13Length && len(v.isbn) != ISBN13LengthNoChecksum {
		return ISBN13{}, invalid(raw, ReasonISBN13Length)
	}
	return ISBN13{v}, nil
}

func (i ISBN13) Checksum() string {
	return checksum(i.isbn[:ISBN13LengthNoChecksum])
}

func (i ISBN13) GoString() string {
	return fmt.Sprintf("isbn.New13(%q)", i.isbn)
}

// SBN is a pre-1970 Standard Book Number. It is stored as the ISBN-10 with
// group 0, so String and URN show the ISBN-10 while Raw and GoString drop the
// added 0.
type SBN struct {
	value
	sbn string
}

// NewSBN parses an 8 digit SBN body or a 9 character SBN. Errors report raw
// without the added 0.
func NewSBN(raw string) (SBN, error) {
	v, err := parse("0" + raw)
	var ie *Error
	if errors.As(err, &ie) {
		return SBN{}, invalid(raw, ie.Reason)
	}
	if err != nil {
		return SBN{}, err
	}
	return SBN{value: v, sbn: raw}, nil
}

func (s SBN) Raw() string {
	return s.sbn
}

func (s SBN) Checksum() string {
	return checksum(s.isbn[:ISBN10LengthNoChecksum])
}

func (s SBN) GoString() string {
	return fmt.Sprintf("isbn.NewSBN(%q)", s.isbn[1:])
}
