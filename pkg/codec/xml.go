package codec

import (
	"fmt"

	"github.com/clbanning/mxj/v2"

	"github.com/madcok-co/bridgekit/pkg/value"
)

// soap envelope element names tried, in order, when unwrapping
var soapEnvelopeKeys = []string{"Envelope", "soap:Envelope", "SOAP-ENV:Envelope", "soapenv:Envelope"}
var soapBodyKeys = []string{"Body", "soap:Body", "SOAP-ENV:Body", "soapenv:Body"}

// DecodeXML parses an XML payload into a structured value. Leaf text is
// cast to numbers and booleans where it parses as such.
func DecodeXML(data []byte) (value.Value, error) {
	m, err := mxj.NewMapXml(data, true)
	if err != nil {
		return value.Null(), fmt.Errorf("decode xml: %w", err)
	}
	return value.FromAny(map[string]any(m)), nil
}

// UnwrapSOAPBody strips a SOAP envelope and header, returning the first
// child of the Body element. This is opt-in: by default the pipeline
// leaves envelopes nested exactly as decoded. Values without a
// recognizable envelope come back unchanged.
func UnwrapSOAPBody(v value.Value) value.Value {
	env := v
	for _, k := range soapEnvelopeKeys {
		if inner, ok := v.Get(k); ok {
			env = inner
			break
		}
	}
	for _, k := range soapBodyKeys {
		if body, ok := env.Get(k); ok {
			return body
		}
	}
	return v
}

// EncodeXML serializes a structured value as XML. Only objects have a
// natural XML shape; other kinds are rejected so the pipeline can fall
// back to the native value.
func EncodeXML(v value.Value) ([]byte, error) {
	if v.Kind() != value.KindObject {
		return nil, fmt.Errorf("encode xml: cannot encode %s, want object", v.Kind())
	}
	raw, ok := v.ToAny().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("encode xml: unexpected shape")
	}
	out, err := mxj.Map(raw).Xml()
	if err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	return out, nil
}
