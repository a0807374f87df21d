// Package schema implements the declarative field mapping applied
// between decode and encode, and best-effort schema inference over
// sample data.
package schema

import (
	"github.com/madcok-co/bridgekit/pkg/value"
)

// TransformType identifies a per-field value conversion rule.
type TransformType string

const (
	TransformDate      TransformType = "date"
	TransformNumber    TransformType = "number"
	TransformBoolean   TransformType = "boolean"
	TransformUppercase TransformType = "uppercase"
	TransformLowercase TransformType = "lowercase"
	TransformCustom    TransformType = "custom"
)

// FieldTransform is a single deterministic value-conversion rule. When
// TargetField equals SourceField the field is overwritten in place.
type FieldTransform struct {
	SourceField string        `json:"sourceField" mapstructure:"sourceField" validate:"required"`
	TargetField string        `json:"targetField" mapstructure:"targetField" validate:"required"`
	Type        TransformType `json:"transformType" mapstructure:"transformType" validate:"oneof=date number boolean uppercase lowercase custom"`
}

// CustomFunc is a caller-supplied hook for the "custom" transform type.
// Without one, custom transforms are identity.
type CustomFunc func(field string, v value.Value) value.Value

// Mapping is the declarative rename+transform ruleset. SourceFields maps
// source field name to target field name; fields not listed are dropped
// during renaming. Transforms run in order over record arrays.
type Mapping struct {
	SourceFields map[string]string `json:"sourceFields" mapstructure:"sourceFields"`
	Transforms   []FieldTransform  `json:"transforms" mapstructure:"transforms" validate:"dive"`

	// Custom is invoked for transforms of type "custom"; nil means identity
	Custom CustomFunc `json:"-" mapstructure:"-"`
}

// IsZero reports whether the mapping has no effect.
func (m *Mapping) IsZero() bool {
	return m == nil || (len(m.SourceFields) == 0 && len(m.Transforms) == 0)
}
