// Package isbnapi holds the service documentation shown on the API docs page.
package isbnapi

import _ "embed"

//go:embed README.md
var Readme string
