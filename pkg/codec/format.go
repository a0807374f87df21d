// Package codec converts raw wire payloads to and from the generic
// structured value shared by the transformation pipeline. XML goes
// through mxj; CSV is implemented natively because the legacy feeds it
// targets predate RFC 4180 and need lenient handling.
package codec

import "strings"

// Format identifies a wire encoding read from or written to a remote
// system.
type Format string

const (
	FormatXML      Format = "xml"
	FormatSOAP     Format = "soap"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatREST     Format = "rest"
	FormatGRPC     Format = "grpc"
	FormatGraphQL  Format = "graphql"
	FormatProtobuf Format = "protobuf"
)

// ParseFormat normalizes a format tag. Unknown tags come back as-is so
// callers can decide whether to reject them.
func ParseFormat(s string) Format {
	return Format(strings.ToLower(strings.TrimSpace(s)))
}

// IsXMLLike reports whether the format decodes via the XML codec.
// SOAP is XML on the wire; the envelope stays nested unless the caller
// opts into unwrapping.
func (f Format) IsXMLLike() bool {
	return f == FormatXML || f == FormatSOAP
}

// AcceptHeader returns the default Accept header for requests against
// an endpoint speaking this format.
func (f Format) AcceptHeader() string {
	switch {
	case f.IsXMLLike():
		return "application/xml, text/xml"
	case f == FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}
