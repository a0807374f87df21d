// Package pipeline orchestrates the fixed decode → map → encode chain
// that re-expresses legacy payloads as structured records.
package pipeline

import (
	"fmt"
	"time"

	"github.com/madcok-co/bridgekit/pkg/codec"
	"github.com/madcok-co/bridgekit/pkg/schema"
	"github.com/madcok-co/bridgekit/pkg/value"
)

// DecodeError marks a malformed source payload. Decode failures are
// never retried; they surface immediately as pipeline failures.
type DecodeError struct {
	Format codec.Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Config fixes the formats and mapping for one pipeline instance.
type Config struct {
	SourceFormat codec.Format
	TargetFormat codec.Format
	Mapping      *schema.Mapping

	// UnwrapSOAP strips SOAP envelopes after decode. Off by default:
	// the envelope stays nested exactly as decoded.
	UnwrapSOAP bool
}

// Metadata summarizes one transformation call. Created fresh per call,
// never persisted by the pipeline itself.
type Metadata struct {
	SourceFormat      codec.Format `json:"sourceFormat"`
	TargetFormat      codec.Format `json:"targetFormat"`
	FieldsMapped      int          `json:"fieldsMapped"`
	FieldsTransformed int          `json:"fieldsTransformed"`
	Timestamp         time.Time    `json:"timestamp"`
}

// Result is the transformed payload. Encoded is non-nil only when the
// target format has a text encoding (XML, CSV) and the mapped value has
// a compatible shape; otherwise callers use the native structured Data.
type Result struct {
	Data     value.Value
	Encoded  []byte
	Metadata Metadata
}

// Body returns the payload bytes: the target encoding when one was
// produced, compact JSON of the structured value otherwise.
func (r *Result) Body() []byte {
	if r.Encoded != nil {
		return r.Encoded
	}
	b, err := r.Data.MarshalJSON()
	if err != nil {
		return nil
	}
	return b
}

// Pipeline is safe for concurrent use: it holds no mutable state.
type Pipeline struct {
	config Config
}

// New creates a pipeline for the given config.
func New(config Config) *Pipeline {
	return &Pipeline{config: config}
}

// Transform runs decode, mapping and encode against the configured
// target format.
func (p *Pipeline) Transform(raw []byte) (*Result, error) {
	return p.TransformTo(raw, p.config.TargetFormat)
}

// TransformTo is Transform with a per-call target format override.
func (p *Pipeline) TransformTo(raw []byte, target codec.Format) (*Result, error) {
	decoded, err := p.decode(raw)
	if err != nil {
		return nil, err
	}

	mapped := schema.Apply(decoded, p.config.Mapping)

	res := &Result{
		Data: mapped.Data,
		Metadata: Metadata{
			SourceFormat:      p.config.SourceFormat,
			TargetFormat:      target,
			FieldsMapped:      mapped.FieldsMapped,
			FieldsTransformed: mapped.FieldsTransformed,
			Timestamp:         time.Now().UTC(),
		},
	}

	// Encode only when the shape fits: object for XML, array for CSV.
	// Everything else stays native.
	switch {
	case target.IsXMLLike() && mapped.Data.Kind() == value.KindObject:
		encoded, err := codec.EncodeXML(mapped.Data)
		if err == nil {
			res.Encoded = encoded
		}
	case target == codec.FormatCSV && mapped.Data.Kind() == value.KindArray:
		encoded, err := codec.EncodeCSV(mapped.Data)
		if err == nil {
			res.Encoded = encoded
		}
	}

	return res, nil
}

// decode parses the raw payload by source format. SOAP decodes via the
// XML codec; the envelope is only unwrapped when configured. Structured
// formats (json, rest, graphql, grpc) parse as JSON; payloads that are
// not valid JSON pass through as text rather than failing.
func (p *Pipeline) decode(raw []byte) (value.Value, error) {
	switch {
	case p.config.SourceFormat.IsXMLLike():
		v, err := codec.DecodeXML(raw)
		if err != nil {
			return value.Null(), &DecodeError{Format: p.config.SourceFormat, Err: err}
		}
		if p.config.UnwrapSOAP && p.config.SourceFormat == codec.FormatSOAP {
			v = codec.UnwrapSOAPBody(v)
		}
		return v, nil

	case p.config.SourceFormat == codec.FormatCSV:
		return codec.DecodeCSV(raw)

	default:
		if len(raw) == 0 {
			return value.Null(), nil
		}
		if v, err := value.ParseJSON(raw); err == nil {
			return v, nil
		}
		return value.String(string(raw)), nil
	}
}
