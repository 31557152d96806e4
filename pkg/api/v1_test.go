package routing

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/iziplay/isbn-api/pkg/isbn"
	"github.com/iziplay/isbn-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, opts Options) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	Setup(api, opts)
	return api
}

type problemBody struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Get("/healthz")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "OK", resp.Body.String())
}

func TestDescribe(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Get("/v1/isbn/978-0-07-114816-0")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got Description
	decode(t, resp.Body.Bytes(), &got)
	assert.Equal(t, Description{
		Input:      "978-0-07-114816-0",
		Normalized: "9780071148160",
		Kind:       "isbn13",
		Valid:      true,
		Checksum:   "0",
		Converted:  "0071148167",
		URN:        "URN:ISBN:978-0-07-114816-0",
	}, got)
}

func TestDescribeKinds(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := []struct {
		raw       string
		kind      string
		valid     bool
		converted string
	}{
		{"0071148167", "isbn10", true, "9780071148160"},
		{"071148167", "isbn10-body", true, "9780071148160"},
		{"071148160", "isbn10-body", false, "9780071148160"},
		{"978007114816", "isbn13-body", false, ""},
		{"9791032305690", "isbn13", true, ""},
	}
	for _, tt := range tests {
		resp := api.Get("/v1/isbn/" + tt.raw)
		require.Equal(t, http.StatusOK, resp.Code, tt.raw)

		var got Description
		decode(t, resp.Body.Bytes(), &got)
		assert.Equal(t, tt.kind, got.Kind, tt.raw)
		assert.Equal(t, tt.valid, got.Valid, tt.raw)
		assert.Equal(t, tt.converted, got.Converted, tt.raw)
	}
}

func TestDescribeInvalid(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Get("/v1/isbn/9780071148161")
	require.Equal(t, http.StatusOK, resp.Code)
	var got Description
	decode(t, resp.Body.Bytes(), &got)
	assert.False(t, got.Valid)
	assert.Equal(t, "0", got.Checksum)

	resp = api.Get("/v1/isbn/12345678901")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	var p problemBody
	decode(t, resp.Body.Bytes(), &p)
	assert.Equal(t, isbn.ReasonFullLength, p.Detail)
}

func TestChecksum(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := map[string][2]string{
		"354000978":        {"354000978", "7"},
		"978-052-187-172":  {"978052187172", "3"},
		"07114816":         {"007114816", "7"},
		"0-07-114816-7":    {"0071148167", "7"},
		"978-052-187-1723": {"9780521871723", "3"},
	}
	for raw, want := range tests {
		resp := api.Get("/v1/checksum?isbn=" + raw)
		require.Equal(t, http.StatusOK, resp.Code, raw)

		var got ChecksumOutput
		decode(t, resp.Body.Bytes(), &got.Body)
		assert.Equal(t, want[0], got.Body.ISBN, raw)
		assert.Equal(t, want[1], got.Body.Checksum, raw)
	}

	resp := api.Get("/v1/checksum?isbn=12345")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	var p problemBody
	decode(t, resp.Body.Bytes(), &p)
	assert.Equal(t, isbn.ReasonBodyLength, p.Detail)

	resp = api.Get("/v1/checksum")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestChecksumReportsFullFormError(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := map[string]string{
		"035400978a":    isbn.ReasonNonDigitOrXChecksum,
		"978052187172X": isbn.ReasonNonDigitChecksum,
		"2901568582497": isbn.ReasonInvalidBookland,
		"12345678901":   isbn.ReasonBodyLength,
	}
	for raw, reason := range tests {
		resp := api.Get("/v1/checksum?isbn=" + raw)
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code, raw)

		var p problemBody
		decode(t, resp.Body.Bytes(), &p)
		assert.Equal(t, reason, p.Detail, raw)
	}
}

func TestConvert(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := map[string]string{
		"/v1/convert?isbn=0071148167":              "9780071148160",
		"/v1/convert?isbn=9780071148160":           "0071148167",
		"/v1/convert?isbn=0071148167&prefix=979":   "9790071148169",
		"/v1/convert?isbn=0071148167&to=10":        "0071148167",
		"/v1/convert?isbn=0071148167&to=13":        "9780071148160",
		"/v1/convert?isbn=9780071148160&to=13":     "9780071148160",
		"/v1/convert?isbn=9791032305690&to=13":     "9791032305690",
		"/v1/convert?isbn=978-0-201-61622-4&to=10": "020161622X",
	}
	for path, want := range tests {
		resp := api.Get(path)
		require.Equal(t, http.StatusOK, resp.Code, path)

		var got ConvertOutput
		decode(t, resp.Body.Bytes(), &got.Body)
		assert.Equal(t, want, got.Body.Converted, path)
	}
}

func TestConvertErrors(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := map[string]string{
		"/v1/convert?isbn=9790000000001":         isbn.ReasonNotConvertible,
		"/v1/convert?isbn=0071148167&prefix=123": isbn.ReasonInvalidBookland,
		"/v1/convert?isbn=abc":                   isbn.ReasonNonDigitParts,
		"/v1/convert?isbn=0071148167&to=12":      "to must be 10 or 13",
		"/v1/convert?isbn=9790000000001&to=10":   isbn.ReasonNotConvertible,
	}
	for path, detail := range tests {
		resp := api.Get(path)
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code, path)

		var p problemBody
		decode(t, resp.Body.Bytes(), &p)
		assert.Equal(t, detail, p.Detail, path)
	}
}

func TestValidate(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := map[string]bool{
		"978-052-187-1723": true,
		"978-052-187-1720": false,
		"123456789x":       true,
		"071148167":        true,
	}
	for raw, want := range tests {
		resp := api.Get("/v1/validate?isbn=" + raw)
		require.Equal(t, http.StatusOK, resp.Code, raw)

		var got ValidateResult
		decode(t, resp.Body.Bytes(), &got)
		assert.Equal(t, want, got.Valid, raw)
		assert.Empty(t, got.Error, raw)
	}

	resp := api.Get("/v1/validate?isbn=2901568582497")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	var p problemBody
	decode(t, resp.Body.Bytes(), &p)
	assert.Equal(t, isbn.ReasonInvalidBookland, p.Detail)
}

func TestValidateBatch(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Post("/v1/validate", map[string]any{
		"isbns": []string{"9780071148160", "9780071148161", "abc"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got BatchValidateOutput
	decode(t, resp.Body.Bytes(), &got.Body)
	assert.Equal(t, []ValidateResult{
		{ISBN: "9780071148160", Valid: true},
		{ISBN: "9780071148161", Valid: false},
		{ISBN: "abc", Valid: false, Error: isbn.ReasonNonDigitParts},
	}, got.Body.Results)
}

func TestValidateBatchRejectsNonStrings(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Post("/v1/validate", map[string]any{
		"isbns": []any{9780071148160},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Post("/v1/validate", map[string]any{
		"isbns": []string{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestURL(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Get("/v1/url?isbn=0071148167")
	require.Equal(t, http.StatusOK, resp.Code)
	var got URLOutput
	decode(t, resp.Body.Bytes(), &got.Body)
	assert.Equal(t, "amazon", got.Body.Site)
	assert.Equal(t, "https://www.amazon.com/s?search-alias=stripbooks&field-isbn=0071148167", got.Body.URL)

	resp = api.Get("/v1/url?isbn=0071148167&site=amazon&country=uk")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp.Body.Bytes(), &got.Body)
	assert.Equal(t, "https://www.amazon.co.uk/s?search-alias=stripbooks&field-isbn=0071148167", got.Body.URL)

	resp = api.Get("/v1/url?isbn=0071148167&site=worldcat")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp.Body.Bytes(), &got.Body)
	assert.Equal(t, "http://worldcat.org/isbn/0071148167", got.Body.URL)
}

func TestURLErrors(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := []struct {
		path   string
		status int
		detail string
	}{
		{"/v1/url?isbn=0071148167&site=nosite", http.StatusBadRequest, `unknown site "nosite"`},
		{"/v1/url?isbn=0071148167&country=zh", http.StatusBadRequest, `unknown country "zh" for site "amazon"`},
		{"/v1/url?isbn=0071148160", http.StatusUnprocessableEntity, "invalid checksum"},
		{"/v1/url?isbn=x", http.StatusUnprocessableEntity, isbn.ReasonNonDigitParts},
		{"/v1/url?isbn=071148160", http.StatusUnprocessableEntity, "invalid checksum"},
		{"/v1/url?isbn=978007114816", http.StatusUnprocessableEntity, isbn.ReasonFullLength},
	}
	for _, tt := range tests {
		resp := api.Get(tt.path)
		require.Equal(t, tt.status, resp.Code, tt.path)

		var p problemBody
		decode(t, resp.Body.Bytes(), &p)
		assert.Equal(t, tt.detail, p.Detail, tt.path)
	}
}

func TestURLInjectedSites(t *testing.T) {
	api := newTestAPI(t, Options{Sites: isbn.Sites{
		"library": {Template: "https://library.example/{isbn}"},
	}})

	resp := api.Get("/v1/url?isbn=0071148167&site=library")
	require.Equal(t, http.StatusOK, resp.Code)
	var got URLOutput
	decode(t, resp.Body.Bytes(), &got.Body)
	assert.Equal(t, "https://library.example/0071148167", got.Body.URL)

	resp = api.Get("/v1/sites")
	require.Equal(t, http.StatusOK, resp.Code)
	var sites SitesOutput
	decode(t, resp.Body.Bytes(), &sites.Body)
	assert.Equal(t, []SiteInfo{{Name: "library"}}, sites.Body.Sites)
}

func TestURN(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Get("/v1/urn?isbn=978-052-187-1723")
	require.Equal(t, http.StatusOK, resp.Code)
	var got URNOutput
	decode(t, resp.Body.Bytes(), &got.Body)
	assert.Equal(t, "URN:ISBN:978-052-187-1723", got.Body.URN)

	resp = api.Get("/v1/urn?isbn=978-052-187-1720")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestSites(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Get("/v1/sites")
	require.Equal(t, http.StatusOK, resp.Code)

	var got SitesOutput
	decode(t, resp.Body.Bytes(), &got.Body)
	require.Len(t, got.Body.Sites, len(isbn.DefaultSites))
	assert.Equal(t, SiteInfo{Name: "amazon", Countries: []string{"de", "fr", "jp", "uk", "us"}}, got.Body.Sites[0])
	assert.Equal(t, "worldcat", got.Body.Sites[len(got.Body.Sites)-1].Name)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	api := newTestAPI(t, Options{Metrics: m})

	api.Get("/v1/validate?isbn=9780071148160")
	api.Get("/v1/validate?isbn=9780071148161")
	api.Get("/v1/validate?isbn=abc")
	api.Post("/v1/validate", map[string]any{"isbns": []string{"9780071148160", "x"}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("validate", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("validate", metrics.OutcomeInvalid)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("validate", metrics.OutcomeRejected)))
}

func signed(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "tester"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	api := newTestAPI(t, Options{JWTSecret: "s3cret"})

	resp := api.Get("/healthz")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = api.Get("/v1/validate?isbn=9780071148160")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = api.Get("/v1/validate?isbn=9780071148160", "Authorization: Bearer "+signed(t, "wrong"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = api.Get("/v1/validate?isbn=9780071148160", "Authorization: Bearer "+signed(t, "s3cret"))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = api.Get("/v1/validate?isbn=9780071148160&jwt=" + signed(t, "s3cret"))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthDisabled(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp := api.Get("/v1/validate?isbn=9780071148160")
	assert.Equal(t, http.StatusOK, resp.Code)
}
