package isbn

import (
	"errors"
	"fmt"
)

// Reasons carried by *Error.
const (
	ReasonNonDigitParts       = "non-digit parts"
	ReasonNonDigitOrXChecksum = "non-digit or X checksum"
	ReasonNonDigitChecksum    = "non-digit checksum"
	ReasonInvalidBookland     = "invalid Bookland region"
	ReasonFullLength          = "ISBN must be either 10 or 13 characters long"
	ReasonBodyLength          = "ISBN must be either 9 or 12 characters long without checksum"
	ReasonISBN10Length        = "ISBN-10 must be 10 characters long"
	ReasonISBN13Length        = "ISBN-13 must be 13 characters long"
	ReasonNotConvertible      = "only ISBN-13s with 978 Bookland code can be converted to ISBN-10"
)

var (
	// ErrInvalid matches every structural failure.
	ErrInvalid = errors.New("invalid ISBN string")
	// ErrNotConvertible matches ISBN-13s that have no ISBN-10 form.
	ErrNotConvertible = errors.New("ISBN not convertible")
	ErrUnknownSite    = errors.New("unknown site")
	ErrUnknownCountry = errors.New("unknown country")
	ErrUnknownFormat  = errors.New("unknown format")
)

// Error describes why an ISBN string was rejected.
type Error struct {
	Input  string
	Reason string

	kind error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalid, e.Input, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid || (e.kind != nil && target == e.kind)
}

func invalid(input, reason string) *Error {
	return &Error{Input: input, Reason: reason}
}

// SiteError is returned for a site missing from the URL table.
type SiteError struct {
	Site string
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownSite, e.Site)
}

func (e *SiteError) Is(target error) bool {
	return target == ErrUnknownSite
}

// CountryError is returned when a site has no domain for the country.
type CountryError struct {
	Site    string
	Country string
}

func (e *CountryError) Error() string {
	return fmt.Sprintf("%s %q for site %q", ErrUnknownCountry, e.Country, e.Site)
}

func (e *CountryError) Is(target error) bool {
	return target == ErrUnknownCountry
}
