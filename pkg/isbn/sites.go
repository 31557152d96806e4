package isbn

import (
	"sort"
	"strings"
)

// Site is a URL template for a book site. Templates use {isbn} and, when TLDs
// is set, {tld}. An empty TLD value means the country code is the TLD.
type Site struct {
	Template string
	TLDs     map[string]string
}

// Sites maps site names to their templates.
type Sites map[string]Site

// DefaultCountry is used for sites with per-country domains.
const DefaultCountry = "us"

// DefaultSites is the built-in site table. It is read-only.
var DefaultSites = Sites{
	"amazon": {
		Template: "https://www.amazon.{tld}/s?search-alias=stripbooks&field-isbn={isbn}",
		TLDs: map[string]string{
			"de": "",
			"fr": "",
			"jp": "",
			"uk": "co.uk",
			"us": "com",
		},
	},
	"copac":       {Template: "http://copac.jisc.ac.uk/search?isn={isbn}"},
	"google":      {Template: "https://books.google.com/books?vid=isbn:{isbn}"},
	"isbndb":      {Template: "https://isbndb.com/search/all?query={isbn}"},
	"waterstones": {Template: "https://www.waterstones.com/books/search/term/{isbn}"},
	"whsmith":     {Template: "https://www.whsmith.co.uk/search/go?w={isbn}&af=cat1:books"},
	"worldcat":    {Template: "http://worldcat.org/isbn/{isbn}"},
}

// URL fills the template for site. country is ignored for sites without
// per-country domains.
func (s Sites) URL(site, country, isbn string) (string, error) {
	entry, ok := s[site]
	if !ok {
		return "", &SiteError{Site: site}
	}

	tld := ""
	if len(entry.TLDs) > 0 {
		var found bool
		tld, found = entry.TLDs[country]
		if !found {
			return "", &CountryError{Site: site, Country: country}
		}
		if tld == "" {
			tld = country
		}
	}

	return strings.NewReplacer("{isbn}", isbn, "{tld}", tld).Replace(entry.Template), nil
}

// Names returns the site names in sorted order.
func (s Sites) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Countries returns the sorted country codes supported by site, or nil when
// the site has a single domain.
func (s Sites) Countries(site string) []string {
	entry, ok := s[site]
	if !ok || len(entry.TLDs) == 0 {
		return nil
	}
	countries := make([]string, 0, len(entry.TLDs))
	for c := range entry.TLDs {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}
