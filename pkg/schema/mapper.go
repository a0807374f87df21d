package schema

import (
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/madcok-co/bridgekit/pkg/value"
)

// ApplyResult carries the mapped data plus the configured-rule counts.
// FieldsMapped and FieldsTransformed count configured rules, not hits:
// they are independent of how many fields were actually present.
type ApplyResult struct {
	Data              value.Value
	FieldsMapped      int
	FieldsTransformed int
}

// Apply runs the mapping over a decoded value: first rename/select on a
// single structured object, then the ordered transforms over record
// arrays. Values that fit neither shape pass through the respective
// step unchanged.
func Apply(decoded value.Value, m *Mapping) ApplyResult {
	res := ApplyResult{Data: decoded}
	if m == nil {
		return res
	}

	res.FieldsMapped = len(m.SourceFields)
	res.FieldsTransformed = len(m.Transforms)

	if len(m.SourceFields) > 0 && decoded.Kind() == value.KindObject {
		res.Data = renameFields(decoded, m.SourceFields)
	}

	if len(m.Transforms) > 0 && res.Data.Kind() == value.KindArray {
		res.Data = transformRecords(res.Data, m)
	}

	return res
}

// renameFields builds a new object containing only the target-named
// fields whose source field exists. Output order follows sorted source
// field names so results are deterministic.
func renameFields(obj value.Value, sourceFields map[string]string) value.Value {
	sources := make([]string, 0, len(sourceFields))
	for src := range sourceFields {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	out := value.Object()
	for _, src := range sources {
		if fv, ok := obj.Get(src); ok {
			out.Set(sourceFields[src], fv)
		}
	}
	return out
}

// transformRecords applies every transform, in order, to every object
// record of the array. Non-object elements pass through untouched.
func transformRecords(arr value.Value, m *Mapping) value.Value {
	out := make([]value.Value, 0, arr.Len())
	for _, rec := range arr.Items() {
		if rec.Kind() != value.KindObject {
			out = append(out, rec)
			continue
		}

		next := value.Object()
		for _, k := range rec.Keys() {
			fv, _ := rec.Get(k)
			next.Set(k, fv)
		}
		for _, tr := range m.Transforms {
			src, ok := next.Get(tr.SourceField)
			if !ok {
				continue
			}
			next.Set(tr.TargetField, transformValue(src, tr, m.Custom))
		}
		out = append(out, next)
	}
	return value.Array(out...)
}

// transformValue is total: every input produces some output, never an
// error. Uninterpretable values degrade to markers (NaN, "Invalid Date")
// rather than failing the record.
func transformValue(v value.Value, tr FieldTransform, custom CustomFunc) value.Value {
	switch tr.Type {
	case TransformUppercase:
		if v.Kind() == value.KindString {
			return value.String(strings.ToUpper(v.StringValue()))
		}
		return v
	case TransformLowercase:
		if v.Kind() == value.KindString {
			return value.String(strings.ToLower(v.StringValue()))
		}
		return v
	case TransformNumber:
		return value.CoerceNumber(v)
	case TransformBoolean:
		return value.CoerceBool(v)
	case TransformDate:
		return value.String(CanonicalDate(v))
	case TransformCustom:
		if custom != nil {
			return custom(tr.SourceField, v)
		}
		return v
	}
	return v
}

// invalidDate is the marker produced for unparsable date input.
const invalidDate = "Invalid Date"

// dateLayouts tried in order by CanonicalDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123,
	time.RFC1123Z,
}

// CanonicalDate reformats a value as an RFC 3339 UTC timestamp string.
// Numbers are read as millisecond epochs. Anything unparsable still
// yields the canonical invalid-date marker, never an error.
func CanonicalDate(v value.Value) string {
	switch v.Kind() {
	case value.KindNumber:
		ms := int64(v.NumberValue())
		return time.UnixMilli(ms).UTC().Format(time.RFC3339)
	case value.KindString:
		s := strings.TrimSpace(v.StringValue())
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Format(time.RFC3339)
			}
		}
		// a bare epoch in text still counts as a date
		if n, err := cast.ToInt64E(s); err == nil {
			return time.UnixMilli(n).UTC().Format(time.RFC3339)
		}
		return invalidDate
	}
	return invalidDate
}
