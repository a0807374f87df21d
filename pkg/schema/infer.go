package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/madcok-co/bridgekit/pkg/value"
)

// FieldType is the inferred type of a field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// InferredField describes one field of the inferred shape. Values are
// never mutated after return.
type InferredField struct {
	Name         string        `json:"name"`
	Type         FieldType     `json:"type"`
	Nullable     bool          `json:"nullable"`
	SampleValues []value.Value `json:"sampleValues"`
}

// InferredSchema is the best-guess field-level shape of a sample.
type InferredSchema struct {
	Fields []InferredField `json:"fields"`

	// Confidence is a crude completeness heuristic, min(1, fields/10),
	// not a statistical measure
	Confidence float64 `json:"confidence"`

	Suggestions []string `json:"suggestions"`
}

// maxSampleValues caps how many element values are collected per field.
const maxSampleValues = 5

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	usDatePattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

// Infer derives a field-level type description from sample data: a
// record array (candidate fields come from the first element, nullable
// scans the whole array) or a single object. Any other shape yields
// zero fields. Pure function, no network or mutation.
func Infer(sample value.Value) InferredSchema {
	var fields []InferredField

	switch {
	case sample.Kind() == value.KindArray && sample.Len() > 0:
		fields = inferFromArray(sample)
	case sample.Kind() == value.KindObject:
		fields = inferFromObject(sample)
	}

	schema := InferredSchema{
		Fields:     fields,
		Confidence: confidence(len(fields)),
	}
	schema.Suggestions = suggest(fields)
	return schema
}

func inferFromArray(arr value.Value) []InferredField {
	first := arr.Index(0)
	if first.Kind() != value.KindObject {
		return nil
	}

	fields := make([]InferredField, 0, first.Len())
	for _, name := range first.Keys() {
		fv, _ := first.Get(name)

		field := InferredField{
			Name: name,
			Type: inferType(fv),
		}

		for i, elem := range arr.Items() {
			ev, present := elem.Get(name)
			if !present || ev.IsNull() {
				field.Nullable = true
			}
			if i < maxSampleValues {
				field.SampleValues = append(field.SampleValues, ev)
			}
		}

		fields = append(fields, field)
	}
	return fields
}

func inferFromObject(obj value.Value) []InferredField {
	fields := make([]InferredField, 0, obj.Len())
	for _, name := range obj.Keys() {
		fv, _ := obj.Get(name)
		fields = append(fields, InferredField{
			Name:         name,
			Type:         inferType(fv),
			Nullable:     fv.IsNull(),
			SampleValues: []value.Value{fv},
		})
	}
	return fields
}

// inferType applies the priority order: null defaults to string, then
// primitives, then containers, then date-looking text.
func inferType(v value.Value) FieldType {
	switch v.Kind() {
	case value.KindNull:
		return FieldString
	case value.KindNumber:
		return FieldNumber
	case value.KindBool:
		return FieldBoolean
	case value.KindArray:
		return FieldArray
	case value.KindObject:
		return FieldObject
	}
	if looksLikeDate(v.StringValue()) {
		return FieldDate
	}
	return FieldString
}

func looksLikeDate(s string) bool {
	return isoDatePattern.MatchString(s) || usDatePattern.MatchString(s)
}

func confidence(fieldCount int) float64 {
	c := float64(fieldCount) / 10
	if c > 1 {
		return 1
	}
	return c
}

func suggest(fields []InferredField) []string {
	if len(fields) == 0 {
		return []string{"no fields could be inferred from the sample data"}
	}

	var dateish []string
	for _, f := range fields {
		if f.Type != FieldString {
			continue
		}
		for _, sv := range f.SampleValues {
			if sv.Kind() == value.KindString && looksLikeDate(sv.StringValue()) {
				dateish = append(dateish, f.Name)
				break
			}
		}
	}

	var out []string
	if len(dateish) > 0 {
		out = append(out, fmt.Sprintf(
			"fields %s contain date-like values; consider a date transform",
			strings.Join(dateish, ", ")))
	}
	return out
}
