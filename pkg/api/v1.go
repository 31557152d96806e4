package routing

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/iziplay/isbn-api/pkg/isbn"
	"github.com/iziplay/isbn-api/pkg/metrics"
)

// Options configures the v1 operations.
type Options struct {
	// Sites defaults to isbn.DefaultSites.
	Sites isbn.Sites
	// Metrics is optional.
	Metrics *metrics.Metrics
	// JWTSecret enables bearer authentication when set.
	JWTSecret string
}

type PlainOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type ISBNInput struct {
	ISBN string `query:"isbn" required:"true" doc:"SBN, ISBN-10 or ISBN-13, dashes allowed"`
}

type DescribeInput struct {
	ISBN string `path:"isbn" doc:"SBN, ISBN-10 or ISBN-13, dashes allowed"`
}

type ConvertInput struct {
	ISBN   string `query:"isbn" required:"true" doc:"SBN, ISBN-10 or ISBN-13, dashes allowed"`
	Prefix string `query:"prefix" default:"978" doc:"Bookland prefix used when switching an ISBN-10 to ISBN-13"`
	To     string `query:"to" doc:"Target form, 10 or 13. The form is switched when empty"`
}

type URLInput struct {
	ISBN    string `query:"isbn" required:"true" doc:"SBN, ISBN-10 or ISBN-13, dashes allowed"`
	Site    string `query:"site" default:"amazon" doc:"Book site to link to"`
	Country string `query:"country" default:"us" doc:"Country for sites with regional domains"`
}

type BatchValidateInput struct {
	Body struct {
		ISBNs []string `json:"isbns" minItems:"1" maxItems:"100" doc:"ISBNs to validate"`
	}
}

type Description struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	Kind       string `json:"kind" enum:"isbn10,isbn13,isbn10-body,isbn13-body"`
	Valid      bool   `json:"valid"`
	Checksum   string `json:"checksum"`
	Converted  string `json:"converted,omitempty"`
	URN        string `json:"urn"`
}

type DescribeOutput struct {
	Body Description
}

type ChecksumOutput struct {
	Body struct {
		ISBN     string `json:"isbn"`
		Checksum string `json:"checksum"`
	}
}

type ConvertOutput struct {
	Body struct {
		ISBN      string `json:"isbn"`
		Converted string `json:"converted"`
	}
}

type ValidateResult struct {
	ISBN  string `json:"isbn"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type ValidateOutput struct {
	Body ValidateResult
}

type BatchValidateOutput struct {
	Body struct {
		Results []ValidateResult `json:"results"`
	}
}

type URLOutput struct {
	Body struct {
		ISBN string `json:"isbn"`
		Site string `json:"site"`
		URL  string `json:"url"`
	}
}

type URNOutput struct {
	Body struct {
		ISBN string `json:"isbn"`
		URN  string `json:"urn"`
	}
}

type SiteInfo struct {
	Name      string   `json:"name"`
	Countries []string `json:"countries,omitempty"`
}

type SitesOutput struct {
	Body struct {
		Sites []SiteInfo `json:"sites"`
	}
}

func Setup(api huma.API, opts Options) {
	if opts.Sites == nil {
		opts.Sites = isbn.DefaultSites
	}
	s := &server{sites: opts.Sites, metrics: opts.Metrics}
	secured := []map[string][]string{{"bearerAuth": {}}}

	api.UseMiddleware(authMiddleware(api, opts.JWTSecret))

	huma.Register(api, huma.Operation{
		OperationID: "HealthCheck",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Description: "Check if the API is running",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*PlainOutput, error) {
		return &PlainOutput{
			ContentType: "text/plain",
			Body:        []byte("OK"),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ListSites",
		Method:      http.MethodGet,
		Path:        "/v1/sites",
		Summary:     "List book sites",
		Description: "List the sites URLs can be generated for, with their supported countries",
		Tags:        []string{"URL"},
		Security:    secured,
	}, func(ctx context.Context, input *struct{}) (*SitesOutput, error) {
		resp := &SitesOutput{}
		for _, name := range s.sites.Names() {
			resp.Body.Sites = append(resp.Body.Sites, SiteInfo{
				Name:      name,
				Countries: s.sites.Countries(name),
			})
		}
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "DescribeISBN",
		Method:      http.MethodGet,
		Path:        "/v1/isbn/{isbn}",
		Summary:     "Describe an ISBN",
		Description: "Normalize an ISBN and report its kind, checksum, validity, converted form and URN. Input of 9 or 12 characters is read as a body without check character",
		Tags:        []string{"ISBN"},
		Security:    secured,
	}, s.describe)

	huma.Register(api, huma.Operation{
		OperationID: "CalculateChecksum",
		Method:      http.MethodGet,
		Path:        "/v1/checksum",
		Summary:     "Calculate checksum",
		Description: "Calculate the check character for an ISBN body, or for the body of a full ISBN",
		Tags:        []string{"ISBN"},
		Security:    secured,
	}, s.checksum)

	huma.Register(api, huma.Operation{
		OperationID: "ConvertISBN",
		Method:      http.MethodGet,
		Path:        "/v1/convert",
		Summary:     "Convert ISBN",
		Description: "Convert between ISBN-10 and ISBN-13. Only 978 ISBN-13s have an ISBN-10 form. Output is not hyphenated",
		Tags:        []string{"ISBN"},
		Security:    secured,
	}, s.convert)

	huma.Register(api, huma.Operation{
		OperationID: "ValidateISBN",
		Method:      http.MethodGet,
		Path:        "/v1/validate",
		Summary:     "Validate ISBN",
		Description: "Check the check character of an SBN, ISBN-10 or ISBN-13",
		Tags:        []string{"ISBN"},
		Security:    secured,
	}, s.validate)

	huma.Register(api, huma.Operation{
		OperationID: "ValidateISBNs",
		Method:      http.MethodPost,
		Path:        "/v1/validate",
		Summary:     "Validate ISBNs",
		Description: "Validate a batch of ISBNs. Structurally invalid entries are reported per entry",
		Tags:        []string{"ISBN"},
		Security:    secured,
	}, s.validateBatch)

	huma.Register(api, huma.Operation{
		OperationID: "ISBNURL",
		Method:      http.MethodGet,
		Path:        "/v1/url",
		Summary:     "Book site URL",
		Description: "Generate a link to a book site for a valid ISBN",
		Tags:        []string{"URL"},
		Security:    secured,
	}, s.url)

	huma.Register(api, huma.Operation{
		OperationID: "ISBNURN",
		Method:      http.MethodGet,
		Path:        "/v1/urn",
		Summary:     "RFC 3187 URN",
		Description: "Generate the RFC 3187 URN for a valid ISBN",
		Tags:        []string{"URL"},
		Security:    secured,
	}, s.urn)
}
