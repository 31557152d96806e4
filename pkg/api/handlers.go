package routing

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/iziplay/isbn-api/pkg/isbn"
	"github.com/iziplay/isbn-api/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/iziplay/isbn-api/pkg/api")

type server struct {
	sites   isbn.Sites
	metrics *metrics.Metrics
}

type operation struct {
	name    string
	start   time.Time
	span    trace.Span
	metrics *metrics.Metrics
}

func (s *server) begin(ctx context.Context, name, raw string) *operation {
	_, span := tracer.Start(ctx, "isbn."+name, trace.WithAttributes(attribute.String("isbn.input", raw)))
	return &operation{name: name, start: time.Now(), span: span, metrics: s.metrics}
}

func (o *operation) done(outcome string) {
	if o.metrics != nil {
		o.metrics.Observe(o.name, outcome, o.start)
	}
	o.span.SetAttributes(attribute.String("isbn.outcome", outcome))
	o.span.End()
}

// fail records err and returns it as a problem response.
func (o *operation) fail(err error) error {
	o.span.RecordError(err)
	o.span.SetStatus(codes.Error, err.Error())
	o.done(metrics.OutcomeRejected)
	return problem(err)
}

func problem(err error) error {
	var ie *isbn.Error
	switch {
	case errors.As(err, &ie):
		return huma.Error422UnprocessableEntity(ie.Reason, err)
	case errors.Is(err, isbn.ErrUnknownSite), errors.Is(err, isbn.ErrUnknownCountry):
		return huma.Error400BadRequest(err.Error(), err)
	case errors.Is(err, errInvalidChecksum):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	return huma.Error500InternalServerError("unexpected error", err)
}

var errInvalidChecksum = errors.New("invalid checksum")

func kindOf(normalized string) string {
	switch len(normalized) {
	case isbn.ISBN10LengthNoChecksum:
		return "isbn10-body"
	case isbn.ISBN13LengthNoChecksum:
		return "isbn13-body"
	case isbn.ISBN13Length:
		return "isbn13"
	default:
		return "isbn10"
	}
}

// checksumOf accepts a body without check character or a full ISBN. When
// neither fits, the full form's error wins unless it only complains about the
// length.
func checksumOf(raw string) (normalized, checksum string, err error) {
	normalized, err = isbn.Normalize(raw, false)
	if err == nil {
		checksum, err = isbn.Checksum(normalized)
		return normalized, checksum, err
	}

	full, ferr := isbn.Normalize(raw, true)
	if ferr != nil {
		var ie *isbn.Error
		if errors.As(ferr, &ie) && ie.Reason != isbn.ReasonFullLength {
			return "", "", ferr
		}
		return "", "", err
	}
	checksum, err = isbn.Checksum(full[:len(full)-1])
	return full, checksum, err
}

// validISBN parses raw and rejects it unless it is a full ISBN with a
// matching check character. A 9 character input is read as an SBN.
func validISBN(raw string) (isbn.ISBN, error) {
	i, err := isbn.New(raw)
	if err != nil {
		return i, err
	}
	ok, err := isbn.Validate(raw)
	if err != nil {
		return i, err
	}
	if !ok {
		return i, errInvalidChecksum
	}
	return i, nil
}

func (s *server) describe(ctx context.Context, input *DescribeInput) (*DescribeOutput, error) {
	op := s.begin(ctx, "describe", input.ISBN)
	i, err := isbn.New(input.ISBN)
	if err != nil {
		return nil, op.fail(err)
	}

	resp := &DescribeOutput{Body: Description{
		Input:      i.Raw(),
		Normalized: i.Normalized(),
		Kind:       kindOf(i.Normalized()),
		Valid:      i.Validate(),
		Checksum:   i.Checksum(),
		URN:        i.URN(),
	}}
	if converted, err := i.Convert(); err == nil {
		resp.Body.Converted = converted
	}

	outcome := metrics.OutcomeOK
	if !resp.Body.Valid {
		outcome = metrics.OutcomeInvalid
	}
	op.done(outcome)
	return resp, nil
}

func (s *server) checksum(ctx context.Context, input *ISBNInput) (*ChecksumOutput, error) {
	op := s.begin(ctx, "checksum", input.ISBN)
	normalized, checksum, err := checksumOf(input.ISBN)
	if err != nil {
		return nil, op.fail(err)
	}

	resp := &ChecksumOutput{}
	resp.Body.ISBN = normalized
	resp.Body.Checksum = checksum
	op.done(metrics.OutcomeOK)
	return resp, nil
}

func (s *server) convert(ctx context.Context, input *ConvertInput) (*ConvertOutput, error) {
	op := s.begin(ctx, "convert", input.ISBN)

	var converted string
	var err error
	switch input.To {
	case "":
		converted, err = isbn.ConvertWithPrefix(input.ISBN, input.Prefix)
	case "10":
		converted, err = isbn.To10(input.ISBN)
	case "13":
		converted, err = isbn.To13(input.ISBN)
	default:
		op.done(metrics.OutcomeRejected)
		return nil, huma.Error422UnprocessableEntity("to must be 10 or 13")
	}
	if err != nil {
		return nil, op.fail(err)
	}

	resp := &ConvertOutput{}
	resp.Body.ISBN = input.ISBN
	resp.Body.Converted = converted
	op.done(metrics.OutcomeOK)
	return resp, nil
}

func (s *server) validate(ctx context.Context, input *ISBNInput) (*ValidateOutput, error) {
	op := s.begin(ctx, "validate", input.ISBN)
	valid, err := isbn.Validate(input.ISBN)
	if err != nil {
		return nil, op.fail(err)
	}

	outcome := metrics.OutcomeOK
	if !valid {
		outcome = metrics.OutcomeInvalid
	}
	op.done(outcome)
	return &ValidateOutput{Body: ValidateResult{ISBN: input.ISBN, Valid: valid}}, nil
}

func (s *server) validateBatch(ctx context.Context, input *BatchValidateInput) (*BatchValidateOutput, error) {
	resp := &BatchValidateOutput{}
	resp.Body.Results = make([]ValidateResult, 0, len(input.Body.ISBNs))

	for _, raw := range input.Body.ISBNs {
		op := s.begin(ctx, "validate", raw)
		result := ValidateResult{ISBN: raw}
		valid, err := isbn.Validate(raw)
		switch {
		case err != nil:
			var ie *isbn.Error
			if errors.As(err, &ie) {
				result.Error = ie.Reason
			} else {
				result.Error = err.Error()
			}
			op.span.RecordError(err)
			op.done(metrics.OutcomeRejected)
		case !valid:
			op.done(metrics.OutcomeInvalid)
		default:
			result.Valid = true
			op.done(metrics.OutcomeOK)
		}
		resp.Body.Results = append(resp.Body.Results, result)
	}
	return resp, nil
}

func (s *server) url(ctx context.Context, input *URLInput) (*URLOutput, error) {
	op := s.begin(ctx, "url", input.ISBN)
	op.span.SetAttributes(attribute.String("isbn.site", input.Site), attribute.String("isbn.country", input.Country))

	i, err := validISBN(input.ISBN)
	if err != nil {
		return nil, op.fail(err)
	}
	link, err := i.URLFrom(s.sites, input.Site, input.Country)
	if err != nil {
		return nil, op.fail(err)
	}

	resp := &URLOutput{}
	resp.Body.ISBN = input.ISBN
	resp.Body.Site = input.Site
	resp.Body.URL = link
	op.done(metrics.OutcomeOK)
	return resp, nil
}

func (s *server) urn(ctx context.Context, input *ISBNInput) (*URNOutput, error) {
	op := s.begin(ctx, "urn", input.ISBN)
	i, err := validISBN(input.ISBN)
	if err != nil {
		return nil, op.fail(err)
	}

	resp := &URNOutput{}
	resp.Body.ISBN = input.ISBN
	resp.Body.URN = i.URN()
	op.done(metrics.OutcomeOK)
	return resp, nil
}
